package measurement

// MeasureRequest is the JSON body of POST /processar-imagem.
type MeasureRequest struct {
	// Image is the encoded photo, base64. A data URL prefix is accepted.
	Image string `json:"image"`

	// MarkerWidthCM overrides the configured marker width.
	MarkerWidthCM *float64 `json:"marker_width_cm" validate:"omitempty,gt=0"`
}

// MeasureResponse is the success body of POST /processar-imagem.
type MeasureResponse struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
