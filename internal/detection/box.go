package detection

// Box is the contour chosen as the box being measured.
type Box struct {
	Contour Contour `json:"contour"`

	// Index of the contour in the extractor's enumeration.
	Index int `json:"index"`

	WidthPx  int `json:"width_px"`
	HeightPx int `json:"height_px"`
}

// SelectBox returns the contour with the largest area, the first one on ties.
//
// No filtering is applied. The chosen contour may be the marker itself when
// nothing larger is in the picture.
func SelectBox(contours []Contour) (*Box, error) {
	if len(contours) == 0 {
		return nil, ErrNoContour
	}

	best := 0
	for i, c := range contours[1:] {
		if c.Area > contours[best].Area {
			best = i + 1
		}
	}

	c := contours[best]
	return &Box{
		Contour:  c,
		Index:    best,
		WidthPx:  c.Bounds.Width,
		HeightPx: c.Bounds.Height,
	}, nil
}
