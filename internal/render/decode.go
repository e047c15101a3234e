package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/webp"
)

// Accepted image media types
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

// DetectImage sniffs the media type of encoded image bytes and reports whether it is accepted
func DetectImage(data []byte) (string, bool) {
	m := mimetype.Detect(data)
	for _, accepted := range []string{MimePNG, MimeJPEG, MimeWebP} {
		if m.Is(accepted) {
			return accepted, true
		}
	}
	return m.String(), false
}

// DecodeImage decodes PNG, JPEG or WebP bytes. The format is sniffed from the
// content, not trusted from a file name or data URL header.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Message: "empty image"}
	}
	mime, ok := DetectImage(data)
	if !ok {
		return nil, mime, &DecodeError{Message: "unsupported image type " + mime}
	}
	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch mime {
	case MimePNG:
		img, err = png.Decode(r)
	case MimeJPEG:
		img, err = jpeg.Decode(r)
	case MimeWebP:
		img, err = webp.Decode(r)
	}
	if err != nil {
		return nil, mime, &DecodeError{Message: "failed to decode " + mime, Cause: err}
	}
	return img, mime, nil
}

// DecodeSource decodes an element's data URL source
func DecodeSource(source string) (image.Image, error) {
	_, data, err := DecodeDataURL(source)
	if err != nil {
		return nil, err
	}
	img, _, err := DecodeImage(data)
	return img, err
}
