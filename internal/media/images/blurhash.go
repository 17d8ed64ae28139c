package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize bounds the image BlurHash is computed from; a placeholder needs no more.
const blurHashSize = 64

// ComputeBlurHash returns a 4x3 component BlurHash for encoded image data.
// Slide thumbnails are 16:9, so four horizontal components keep the placeholder readable.
func ComputeBlurHash(data []byte) (string, error) {
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}

	hash, err := blurhash.Encode(4, 3, shrinkForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func shrinkForBlurHash(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurHashSize && b.Dy() <= blurHashSize {
		return img
	}
	w, h := blurHashSize, blurHashSize
	if b.Dx() > b.Dy() {
		h = max(b.Dy()*blurHashSize/b.Dx(), 1)
	} else {
		w = max(b.Dx()*blurHashSize/b.Dy(), 1)
	}
	// Nearest-neighbor is enough for a placeholder.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
