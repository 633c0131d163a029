package share

import (
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

// WriteQRPNG encodes url as a QR code PNG of size×size pixels.
func WriteQRPNG(w io.Writer, url string, size int) error {
	if url == "" {
		return fmt.Errorf("empty url")
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	_, err = w.Write(png)
	return err
}
