package barcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestCode128PNG(t *testing.T) {
	t.Parallel()

	data, err := Code128PNG("6291041500213", 600, 120)
	if err != nil {
		t.Fatalf("Code128PNG returned error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 120 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestQRPNG(t *testing.T) {
	t.Parallel()

	data, err := QRPNG("https://192.168.1.20:8000", 256)
	if err != nil {
		t.Fatalf("QRPNG returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected png bytes")
	}
}

func TestEmptyValueRejected(t *testing.T) {
	t.Parallel()

	if _, err := Code128PNG("  ", 100, 40); err == nil {
		t.Fatalf("expected error for empty barcode")
	}
	if _, err := QRPNG("", 100); err == nil {
		t.Fatalf("expected error for empty qr content")
	}
}
