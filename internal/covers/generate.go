package covers

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// generatedSize is the edge length of generated covers.
const generatedSize = 512

// Generate renders a deterministic placeholder cover for a book with no
// embedded artwork: a vertical gradient between two hues derived from the
// title, so the same title always gets the same cover. Returns PNG bytes.
func Generate(title string) ([]byte, error) {
	if title == "" {
		title = "untitled"
	}

	top := hueFor(title)
	bottom := hueFor(title + "/bottom")

	img := image.NewRGBA(image.Rect(0, 0, generatedSize, generatedSize))
	for y := 0; y < generatedSize; y++ {
		t := float64(y) / float64(generatedSize-1)
		hue := top + (bottom-top)*t
		r, g, b := hslToRGB(hue, 0.4, 0.65)
		row := color.RGBA{R: r, G: g, B: b, A: 255}
		for x := 0; x < generatedSize; x++ {
			img.SetRGBA(x, y, row)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode generated cover: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales an image down so its longer edge is at most size pixels,
// preserving aspect ratio. Images already small enough pass through.
func Thumbnail(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= size && h <= size {
		return img
	}

	var dw, dh int
	if w > h {
		dw = size
		dh = max(h*size/w, 1)
	} else {
		dh = size
		dw = max(w*size/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// hueFor hashes a string onto the hue circle. Same algorithm everywhere so
// regenerated covers never change between runs.
func hueFor(s string) float64 {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return float64(h % 360)
}

// hslToRGB converts HSL (h 0-360, s and l 0-1) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64
	if s == 0 {
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(r1 * 255), uint8(g1 * 255), uint8(b1 * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
