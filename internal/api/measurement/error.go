package measurement

import (
	"context"
	"errors"
	"net/http"

	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/response"
)

var (
	ErrImageMissing        = response.NewError(http.StatusBadRequest, "Imagem não recebida")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "Falha ao decodificar imagem")
	ErrNoContour           = response.NewError(http.StatusBadRequest, "Nenhum contorno encontrado")
	ErrMarkerNotFound      = response.NewError(http.StatusBadRequest, "Marcador de referência não encontrado")
	ErrMarkerMeasurement   = response.NewError(http.StatusBadRequest, "Largura do marcador de referência inválida")
	ErrScale               = response.NewError(http.StatusBadRequest, "Não foi possível calcular a escala")
	ErrInvalidMarkerWidth  = response.NewError(http.StatusBadRequest, "marker_width_cm deve ser um número positivo")
	ErrBusy                = response.NewError(http.StatusServiceUnavailable, "Serviço ocupado, tente novamente")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "Erro interno do servidor")
)

// FromDomain translates pipeline errors into transport errors. Errors it
// does not know are returned unchanged.
func FromDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, measure.ErrDecode):
		return ErrInvalidImage
	case errors.Is(err, measure.ErrNoContour):
		return ErrNoContour
	case errors.Is(err, measure.ErrMarkerNotFound):
		return ErrMarkerNotFound
	case errors.Is(err, measure.ErrMarkerMeasurement):
		return ErrMarkerMeasurement
	case errors.Is(err, measure.ErrScale):
		return ErrScale
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrBusy
	default:
		return err
	}
}
