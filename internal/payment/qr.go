// Package payment generates scannable payment artifacts for the kiosk.
package payment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/ayusman/kirana/internal/checkout"
)

// QR image settings.
const (
	// ImageSize is the side length of the generated PNG in pixels.
	ImageSize = 256
	// DefaultDir is where artifact files are written.
	DefaultDir = "qr_codes"
)

// QRGenerator writes a QR code PNG per transaction. The encoded payload is
// "payment_id:<reference>;amount:<due>" and the file is named after the
// reference.
type QRGenerator struct {
	dir string
}

// NewQRGenerator creates a QRGenerator writing into dir ("" means the
// default qr_codes directory).
func NewQRGenerator(dir string) *QRGenerator {
	if dir == "" {
		dir = DefaultDir
	}
	return &QRGenerator{dir: dir}
}

// Generate creates a fresh payment reference, encodes it with the amount
// due into a QR PNG, and returns the artifact handle.
func (g *QRGenerator) Generate(amount float64) (checkout.Artifact, error) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return checkout.Artifact{}, fmt.Errorf("create artifact directory: %w", err)
	}

	reference := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	payload := fmt.Sprintf("payment_id:%s;amount:%.2f", reference, amount)
	path := filepath.Join(g.dir, reference+".png")

	if err := qrcode.WriteFile(payload, qrcode.Low, ImageSize, path); err != nil {
		return checkout.Artifact{}, fmt.Errorf("write qr code: %w", err)
	}

	return checkout.Artifact{Reference: reference, Path: path}, nil
}
