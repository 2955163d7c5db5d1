package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned for zero-length input or an image with no pixels.
var ErrEmptyImage = errors.New("image is empty")

// Decode turns an encoded still image into a pixel grid at its native
// resolution.
//
// Supported formats are whatever is registered with the image package: PNG,
// JPEG, GIF, BMP, TIFF and WebP. JPEG EXIF orientation is applied so the
// returned grid is upright, the same way a phone gallery would show it.
//
// # Errors
//
//   - ErrEmptyImage if data is empty or decodes to a 0x0 image
//   - a wrapped decoder error if the bytes are not a supported image
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	return img, nil
}

// LoadFile reads and decodes the image at path.
func LoadFile(path string) (image.Image, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}

	return img, data, nil
}
