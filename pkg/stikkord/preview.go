package stikkord

import (
	"bytes"
	"fmt"
	"image"
	"os"

	_ "image/gif"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// previewQuality is the JPEG quality for downscaled copies.
const previewQuality = 85

// Preview returns path rendered as a JPEG no larger than maxDim on its
// longest side, for the shell's preview pane.
func Preview(path string, maxDim int) ([]byte, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio.Open: %w", err)
	}

	img = shrink(img, maxDim)
	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(previewQuality)(&buf, img); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// downscaleForUpload writes a JPEG copy of path bounded by maxDim to a
// temporary file and returns its path; the caller removes it. An image
// already within bounds returns "".
func downscaleForUpload(path string, maxDim int) (string, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return "", fmt.Errorf("imgio.Open: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return "", nil
	}

	tmp, err := os.CreateTemp("", "stikkord-upload-*.jpg")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}

	small := shrink(img, maxDim)
	klog.V(1).Infof("downscaled %s from %dx%d to %dx%d for upload", path, b.Dx(), b.Dy(), small.Bounds().Dx(), small.Bounds().Dy())
	if err := imgio.Save(tmp.Name(), small, imgio.JPEGEncoder(previewQuality)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save: %w", err)
	}
	return tmp.Name(), nil
}

// shrink scales img down so its longest side is maxDim, preserving aspect.
// Images already within bounds come back untouched.
func shrink(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}

	x := maxDim
	y := maxDim
	if b.Dx() >= b.Dy() {
		scale := float64(b.Dx()) / float64(maxDim)
		y = int(float64(b.Dy()) / scale)
	} else {
		scale := float64(b.Dy()) / float64(maxDim)
		x = int(float64(b.Dx()) / scale)
	}
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}

	return transform.Resize(img, x, y, transform.Lanczos)
}
