package imaging

import "image"

// CloseGaps applies a 3x3 morphological closing (dilate, then erode) to a
// binary edge map.
//
// Breaks of up to two pixels in an edge line are bridged. Closing never moves
// the outer extent of a shape: every pixel it adds lies inside the bounding
// box of the pixels that caused it, so measurements taken from the bounding
// box are unchanged.
//
// For the erosion step, pixels outside the image count as set so that edges
// touching the image border are not eaten away.
func CloseGaps(edges *image.Gray) *image.Gray {
	return erode3x3(dilate3x3(edges))
}

func dilate3x3(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if src.Pix[y*src.Stride+x] == 0 {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width {
						continue
					}
					dst.Pix[ny*dst.Stride+nx] = 255
				}
			}
		}
	}
	return dst
}

func erode3x3(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if src.Pix[y*src.Stride+x] == 0 {
				continue
			}
			keep := true
			for dy := -1; dy <= 1 && keep; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width {
						continue
					}
					if src.Pix[ny*src.Stride+nx] == 0 {
						keep = false
						break
					}
				}
			}
			if keep {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}
