package covers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp"
)

// blurHashSize is the thumbnail edge used for BlurHash computation. The
// hash is a low-resolution placeholder; anything beyond this size only
// costs time.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash from encoded image bytes, using 4x3
// components.
func ComputeBlurHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode cover: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, Thumbnail(img, blurHashSize))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
