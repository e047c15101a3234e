package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"
)

// Export quality settings
const (
	DefaultJPEGQuality = 0.85
	MinJPEGQuality     = 0.1
	jpegQualityStep    = 0.1
)

// EncodePNG encodes an image losslessly
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &EncodeError{Format: "png", Cause: err}
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes an image at a quality in (0, 1]
func EncodeJPEG(img image.Image, quality float64) ([]byte, error) {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, &EncodeError{Format: "jpeg", Cause: err}
	}
	return buf.Bytes(), nil
}

// FitJPEG encodes at the default quality and re-encodes with descending quality until
// the output is at most targetKB kilobytes, stopping at the minimum quality. A
// non-positive target disables the guard. It returns the bytes and the quality used.
func FitJPEG(img image.Image, targetKB int) ([]byte, float64, error) {
	quality := DefaultJPEGQuality
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return nil, 0, err
	}
	if targetKB <= 0 {
		return data, quality, nil
	}
	limit := targetKB * 1024
	for len(data) > limit && quality > MinJPEGQuality {
		quality = math.Max(MinJPEGQuality, math.Round((quality-jpegQualityStep)*100)/100)
		if data, err = EncodeJPEG(img, quality); err != nil {
			return nil, 0, err
		}
	}
	return data, quality, nil
}
