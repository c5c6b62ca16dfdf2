// Package vision implements the image primitives behind anchor resolution:
// grayscale template matching, perceptual fingerprints, and the anchor
// template cache.
package vision

import (
	"image"
	"image/draw"
	"math"
)

// Match is the best template match found in a frame.
type Match struct {
	// TopLeft is the template's top-left position inside the searched
	// frame, in frame pixels relative to the frame's bounds origin.
	TopLeft image.Point

	// Score is the zero-mean normalized cross-correlation in [-1, 1].
	// 1.0 is a pixel-perfect match.
	Score float64
}

// MatchTemplate slides tmpl over every position of frame and returns the
// position with the highest zero-mean normalized cross-correlation.
// Ties resolve to the first position in raster-scan order (top to bottom,
// left to right).
//
// ok is false when no comparison is possible: an empty image, a template
// larger than the frame, or a perfectly uniform template or frame (no
// texture to correlate).
func MatchTemplate(frame, tmpl *image.Gray) (m Match, ok bool) {
	fb, tb := frame.Bounds(), tmpl.Bounds()
	fw, fh := fb.Dx(), fb.Dy()
	tw, th := tb.Dx(), tb.Dy()
	if fw == 0 || fh == 0 || tw == 0 || th == 0 || tw > fw || th > fh {
		return Match{}, false
	}

	n := float64(tw * th)

	// Zero-mean template. With the template centered on zero the
	// correlation numerator reduces to a plain dot product against the
	// raw window values.
	tvals := make([]float64, tw*th)
	var tsum float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(tmpl.GrayAt(tb.Min.X+x, tb.Min.Y+y).Y)
			tvals[y*tw+x] = v
			tsum += v
		}
	}
	tmean := tsum / n
	var tvar float64
	for i := range tvals {
		tvals[i] -= tmean
		tvar += tvals[i] * tvals[i]
	}
	if tvar == 0 {
		return Match{}, false
	}
	tnorm := math.Sqrt(tvar)

	fvals := make([]float64, fw*fh)
	for y := 0; y < fh; y++ {
		for x := 0; x < fw; x++ {
			fvals[y*fw+x] = float64(frame.GrayAt(fb.Min.X+x, fb.Min.Y+y).Y)
		}
	}

	// Integral images over the frame give each window's sum and sum of
	// squares in constant time.
	stride := fw + 1
	sum := make([]float64, stride*(fh+1))
	sumSq := make([]float64, stride*(fh+1))
	for y := 0; y < fh; y++ {
		var rowSum, rowSq float64
		for x := 0; x < fw; x++ {
			v := fvals[y*fw+x]
			rowSum += v
			rowSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSq
		}
	}
	window := func(tab []float64, x, y int) float64 {
		return tab[(y+th)*stride+x+tw] - tab[y*stride+x+tw] - tab[(y+th)*stride+x] + tab[y*stride+x]
	}

	best := Match{Score: -2}
	found := false
	for y := 0; y+th <= fh; y++ {
		for x := 0; x+tw <= fw; x++ {
			winSum := window(sum, x, y)
			winVar := window(sumSq, x, y) - winSum*winSum/n
			if winVar <= 0 {
				// Flat window; a textured template cannot match here.
				continue
			}

			var dot float64
			for j := 0; j < th; j++ {
				frow := (y + j) * fw
				trow := j * tw
				for i := 0; i < tw; i++ {
					dot += fvals[frow+x+i] * tvals[trow+i]
				}
			}

			score := dot / (tnorm * math.Sqrt(winVar))
			// Strict > keeps the first raster-scan position on ties.
			if score > best.Score {
				best = Match{TopLeft: image.Pt(x, y), Score: score}
				found = true
			}
		}
	}
	if !found {
		return Match{}, false
	}
	return best, true
}

// ToGray converts an image to 8-bit grayscale. Images that already are
// *image.Gray are returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}
