// Package badge renders attendee QR badges as PNG images.
package badge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/rollcall/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

// Size is the edge length of a rendered badge in pixels.
const Size = 200

var ErrEmptyCode = errors.New("badge: empty QR code")

// encode is a seam for testing qrcode.Encode.
var encode = qrcode.Encode

// Render encodes code as a Size x Size PNG with medium error correction.
func Render(code string) ([]byte, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}
	return encode(code, qrcode.Medium, Size)
}

// FileName is the download name of a badge: "<name>-<code>.png". Path
// separators are replaced so the result is always a single path element.
func FileName(a models.Attendee) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(a.Name + "-" + a.QRCode)
	return name + ".png"
}

// WriteFile renders a's badge into dir and returns the written path.
func WriteFile(dir string, a models.Attendee) (string, error) {
	png, err := Render(a.QRCode)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(a))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
