// Package qrcode builds the registrant QR code and converts it to and from PNG data URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// DataURLPrefix prefixes every stored QR code.
const DataURLPrefix = "data:image/png;base64,"

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ErrNotPNGDataURL is returned when a stored value is not a PNG data URL.
var ErrNotPNGDataURL = errors.New("not a png data url")

// Encoder renders text payloads as PNG QR codes.
type Encoder struct {
	level goqrcode.RecoveryLevel
	size  int
}

// NewEncoder creates an encoder with medium error recovery. size <= 0 uses DefaultSize.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{level: goqrcode.Medium, size: size}
}

// Encode returns the PNG bytes of a QR code holding content.
func (e *Encoder) Encode(content string) ([]byte, error) {
	png, err := goqrcode.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Payload is the text embedded in a registrant's QR code.
func Payload(registrationID, fullName, course string) string {
	return fmt.Sprintf("Registration ID: %s\nName: %s\nCourse: %s", registrationID, fullName, course)
}

// DataURL wraps PNG bytes as a base64 data URL.
func DataURL(png []byte) string {
	return DataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURL returns the PNG bytes held in a data URL produced by DataURL.
func DecodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, DataURLPrefix) {
		return nil, ErrNotPNGDataURL
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, DataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return png, nil
}
