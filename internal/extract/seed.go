package extract

import (
	"crypto/sha256"
	"encoding/binary"
	"image"
)

// contentSeed hashes the image dimensions and a grid sample of its pixels so the
// same picture always clusters the same way, regardless of file name.
func contentSeed(img image.Image) uint64 {
	bounds := img.Bounds()
	h := sha256.New()

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(bounds.Dx()))
	binary.LittleEndian.PutUint32(buf[4:], uint32(bounds.Dy()))
	h.Write(buf[:])

	step := max(min(bounds.Dx(), bounds.Dy())/32, 1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			buf[0], buf[1], buf[2] = uint8(r>>8), uint8(g>>8), uint8(b>>8)
			h.Write(buf[:3])
		}
	}

	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}
