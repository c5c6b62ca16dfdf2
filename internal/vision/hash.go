package vision

import (
	"image"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
)

// Fingerprint computes the 64-bit perceptual hash of an image. Two frames
// of the same unchanged screen fingerprint identically, which lets the
// resolver skip re-matching between polls.
func Fingerprint(img image.Image) (uint64, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, err
	}
	return h.GetHash(), nil
}

// HashDistance is the Hamming distance between two fingerprints.
// 0 means perceptually identical; small distances mean near-identical.
func HashDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// FormatHash renders a fingerprint the way workflow documents carry it.
func FormatHash(h uint64) string {
	return strconv.FormatUint(h, 16)
}

// ParseHash parses a fingerprint written by FormatHash.
func ParseHash(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}
