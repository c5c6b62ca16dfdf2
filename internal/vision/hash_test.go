package vision

import (
	"image"
	"testing"
)

func TestFingerprint_StableAndDiscriminating(t *testing.T) {
	checker := image.NewGray(image.Rect(0, 0, 64, 64))
	checkerboard(checker, 0, 0, 64, 64)

	gradient := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			gradient.Pix[y*gradient.Stride+x] = uint8(x * 4)
		}
	}

	h1, err := Fingerprint(checker)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	h2, err := Fingerprint(checker)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("same image produced different fingerprints: %x vs %x", h1, h2)
	}
	if HashDistance(h1, h2) != 0 {
		t.Fatalf("distance to self = %d, want 0", HashDistance(h1, h2))
	}

	h3, err := Fingerprint(gradient)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if HashDistance(h1, h3) == 0 {
		t.Fatalf("checkerboard and gradient should not fingerprint identically")
	}
}

func TestHashFormatRoundTrip(t *testing.T) {
	h := uint64(0xdeadbeef12345678)
	parsed, err := ParseHash(FormatHash(h))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != h {
		t.Fatalf("round trip lost bits: %x", parsed)
	}

	if _, err := ParseHash("not-hex"); err == nil {
		t.Fatalf("expected error for invalid hash string")
	}
}
