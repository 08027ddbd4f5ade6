package handler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	pictureSize    = 512
	maxPictureSize = 8 << 20
)

// fitPicture decodes an uploaded image, fits it into a square box keeping
// its aspect ratio and re-encodes it as JPEG.
func fitPicture(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(io.LimitReader(r, maxPictureSize), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid("Profile picture must be a JPEG, PNG, GIF, BMP or TIFF image")
	}
	img = imaging.Fit(img, pictureSize, pictureSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode picture: %w", err)
	}
	return buf.Bytes(), nil
}
