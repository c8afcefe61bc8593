package enrichment

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	payloadMaxEdge     = 1024
	payloadJPEGQuality = 85
)

// EncodeImagePayload prepares an image for transmission: it is downsized so
// its longest edge is at most payloadMaxEdge, re-encoded as JPEG (which also
// normalizes the color mode), and returned as a base64 data URL. Any failure
// here aborts the enrichment call before the network is touched.
func EncodeImagePayload(imagePath string) (string, error) {
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", imagePath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > payloadMaxEdge || bounds.Dy() > payloadMaxEdge {
		img = imaging.Fit(img, payloadMaxEdge, payloadMaxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(payloadJPEGQuality)); err != nil {
		return "", fmt.Errorf("failed to encode image %s: %w", imagePath, err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
