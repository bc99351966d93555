package extract

import (
	"image"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// dominantBackend returns the most frequent colours after quantising each
// channel to 5 bits.
type dominantBackend struct{}

func (dominantBackend) extract(img image.Image, k int) []weighted {
	type bucket struct {
		r, g, b uint32
		n       int
	}

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil
	}

	buckets := make(map[uint16]*bucket)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := colour.ToRGB(img.At(x, y))
			key := uint16(c.R>>3)<<10 | uint16(c.G>>3)<<5 | uint16(c.B>>3)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.r += uint32(c.R)
			b.g += uint32(c.G)
			b.b += uint32(c.B)
			b.n++
		}
	}

	out := make([]weighted, 0, len(buckets))
	for _, b := range buckets {
		n := uint32(b.n)
		out = append(out, weighted{
			c:      colour.RGB{R: uint8(b.r / n), G: uint8(b.g / n), B: uint8(b.b / n)},
			weight: float64(b.n) / float64(total),
		})
	}
	sortByWeight(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}
