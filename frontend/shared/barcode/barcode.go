package barcode

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/pkg/errors"
)

var errEmptyValue = errors.New("barcode value is required")

// Code128PNG renders value as a Code 128 symbol scaled to width x height.
func Code128PNG(value string, width, height int) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errEmptyValue
	}
	code, err := code128.Encode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "encode code128 %q", value)
	}
	return scaledPNG(code, width, height)
}

// QRPNG renders content as a square QR code.
func QRPNG(content string, size int) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errEmptyValue
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return scaledPNG(code, size, size)
}

func scaledPNG(code barcode.Barcode, width, height int) ([]byte, error) {
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, errors.Wrap(err, "scale barcode")
	}
	normalized := toNRGBA(scaled)
	var out bytes.Buffer
	if err := png.Encode(&out, normalized); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
