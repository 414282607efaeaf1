package chance

// Script: детерминированный Source для тестов и реплеев.
// Значения выдаются по кругу; пустой скрипт всегда возвращает 0.
type Script struct {
	Ints   []int
	Floats []float64

	ni, nf int
}

// IntN возвращает следующее целое скрипта по модулю n
func (s *Script) IntN(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ni%len(s.Ints)]
	s.ni++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Float64 возвращает следующую дробь скрипта
func (s *Script) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.nf%len(s.Floats)]
	s.nf++
	return v
}

// Calls возвращает число выданных целых и дробей
func (s *Script) Calls() (ints, floats int) {
	return s.ni, s.nf
}
