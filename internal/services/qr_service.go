package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// QRService renders text as a QR code PNG.
type QRService struct {
	level qrcode.RecoveryLevel
}

func NewQRService() *QRService {
	return &QRService{level: qrcode.Medium}
}

func (s *QRService) RenderPNG(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, s.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps a PNG in a data: URI suitable for an <img> src.
func DataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
