package service

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// normalizeImage converts formats Tesseract may not be built with into PNG.
// PNG and JPEG bytes are passed through untouched.
func normalizeImage(format string, data []byte) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case "bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case "tiff":
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		return data, nil
	}
	if err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	return buf.Bytes(), nil
}
