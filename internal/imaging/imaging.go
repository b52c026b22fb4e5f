// Package imaging normalizes uploaded card photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxUploadBytes is the largest accepted upload.
const MaxUploadBytes = 5 << 20

// MaxDimension bounds the longer edge of a stored card photo.
const MaxDimension = 800

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("image exceeds 5 MB")

// allowedMIME lists the accepted input formats, sniffed from content.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Image is a processed card photo.
type Image struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process validates the format by sniffing bytes, shrinks the photo to fit
// MaxDimension and re-encodes it as JPEG.
func Process(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Image{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img down, keeping its aspect ratio, so that neither edge
// exceeds maxDim. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
