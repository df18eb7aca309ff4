// Package qrcode renders door links as PNG QR codes.
package qrcode

import (
	"errors"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

// MinSize is the smallest image edge in pixels that scans reliably from paper.
const MinSize = 64

// ErrEmptyContent is returned when asked to encode an empty string.
var ErrEmptyContent = errors.New("qr content is empty")

// Encoder turns a string into a PNG image.
type Encoder interface {
	Encode(content string, size int) ([]byte, error)
}

// PNGEncoder encodes with medium error correction.
type PNGEncoder struct {
	Level goqr.RecoveryLevel
}

// NewPNGEncoder returns an encoder using medium (15%) recovery.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{Level: goqr.Medium}
}

// Ensure PNGEncoder implements Encoder interface.
var _ Encoder = (*PNGEncoder)(nil)

// Encode renders content as a size×size PNG.
// PRE: content is non-empty; size >= MinSize
// POST: Returns PNG bytes
func (e *PNGEncoder) Encode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size < MinSize {
		return nil, fmt.Errorf("qr size %d below minimum %d", size, MinSize)
	}
	png, err := goqr.Encode(content, e.Level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
