// Package qr renders text as an SVG QR code, sized for contact-card sharing.
package qr

import (
	"bytes"
	"fmt"

	"github.com/aaronarduino/goqrsvg"
	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode/qr"
)

const (
	// DefaultWidth is used when the caller does not request a size.
	DefaultWidth = 256

	// MaxWidth bounds the rendered size; QR payloads are small and anything
	// larger scales cleanly on the client.
	MaxWidth = 2048

	quietZoneModules = 8
)

// RenderSVG encodes text as a QR code and renders it as an SVG document
// roughly width pixels across. Medium error correction, matching what phone
// cameras handle comfortably on printed cards.
func RenderSVG(text string, width int) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("qr: empty payload")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if width > MaxWidth {
		width = MaxWidth
	}

	code, err := qr.Encode(text, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}

	modules := code.Bounds().Max.X
	blockSize := width / (modules + quietZoneModules)
	if blockSize < 1 {
		blockSize = 1
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	qs := goqrsvg.NewQrSVG(code, blockSize)
	qs.StartQrSVG(canvas)
	if err := qs.WriteQrSVG(canvas); err != nil {
		return nil, fmt.Errorf("qr: render: %w", err)
	}
	canvas.End()
	return buf.Bytes(), nil
}
