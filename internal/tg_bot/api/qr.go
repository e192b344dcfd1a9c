package api

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// AddressQR renders s as a 256px PNG QR code.
func AddressQR(s string) ([]byte, error) {
	png, err := qrcode.Encode(s, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
