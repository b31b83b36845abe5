package anthropic

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// maxImageDimension keeps scanned pages under the API's size limits while
// preserving enough detail to read stamps and totals.
const maxImageDimension = 2000

// prepareImage downsizes and grayscales a scan before upload. If the bytes
// do not decode as an image, the original payload and media type are sent
// unchanged and the API reports its own error.
func prepareImage(data []byte, mediaType string) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		return data, mediaType
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		if bounds.Dx() >= bounds.Dy() {
			img = imaging.Resize(img, maxImageDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxImageDimension, imaging.Lanczos)
		}
	}
	img = imaging.Grayscale(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		return data, mediaType
	}
	return buf.Bytes(), "image/jpeg"
}
