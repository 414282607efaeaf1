package journal

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Кадр zstd начинается с magic number 0xFD2FB528 (little endian)
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Option настраивает журнал при открытии
type Option func(*Journal) error

// WithCompression сжимает новые записи zstd. Старые несжатые записи читаются как прежде.
func WithCompression() Option {
	return func(j *Journal) error {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create compressor: %w", err)
		}
		j.encoder = enc
		return nil
	}
}

// decoder общий: DecodeAll безопасен для параллельного вызова
var decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

func (j *Journal) encode(data []byte) []byte {
	if j.encoder == nil {
		return data
	}
	return j.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func decode(val []byte) ([]byte, error) {
	if !bytes.HasPrefix(val, zstdMagic) {
		return val, nil
	}
	out, err := decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress entry: %w", err)
	}
	return out, nil
}
