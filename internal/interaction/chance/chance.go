// Package chance содержит примитивы бросков: процентный шанс,
// целое в закрытом интервале и дробь в [0,1).
//
// Каждый вызов: независимый несидированный бросок; результаты
// специально не воспроизводятся между запусками.
package chance

import "math/rand/v2"

// Source: источник равномерных случайных чисел
type Source interface {
	// IntN возвращает целое в [0, n); n > 0
	IntN(n int) int
	// Float64 возвращает дробь в [0, 1)
	Float64() float64
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// Default возвращает общий генератор процесса. Безопасен для конкурентного использования.
func Default() Source {
	return globalSource{}
}

// RollPercent возвращает true с вероятностью p/100.
// p <= 0: всегда false, p >= 100: всегда true, без обращения к источнику.
func RollPercent(src Source, p int) bool {
	if p <= 0 {
		return false
	}
	if p >= 100 {
		return true
	}
	return src.IntN(100) < p
}

// RollRange возвращает равномерно распределённое целое в [lo, hi].
// Перевёрнутый интервал разворачивается.
func RollRange(src Source, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Unit возвращает дробь в [0, 1)
func Unit(src Source) float64 {
	return src.Float64()
}
