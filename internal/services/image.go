package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotAnImage     = errors.New("file is not an image")
	ErrMalformedImage = errors.New("malformed image data uri")
)

// EncodeImage sniffs the payload and returns it as a base64 data URI.
func EncodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotAnImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeImage splits a base64 data URI into its bytes and media type.
func DecodeImage(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrMalformedImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrMalformedImage
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(mediaType, "image/") {
		return nil, "", ErrMalformedImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	return data, mediaType, nil
}

// ImageFilename picks a file name for uploads of a decoded image.
func ImageFilename(mediaType string) string {
	ext := mimetype.Lookup(mediaType)
	if ext == nil || ext.Extension() == "" {
		return "image"
	}
	return "image" + ext.Extension()
}
