package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// StreamReader is the read side of the algo streaming service.
type StreamReader[T domain.Product] interface {
	GetData(productID string) (domain.AlgoStream[T], error)
	ProductIDs() []string
}

// StreamHandler serves the current algo streams.
type StreamHandler[T domain.Product] struct {
	streams StreamReader[T]
	logger  *slog.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler[T domain.Product](streams StreamReader[T], logger *slog.Logger) *StreamHandler[T] {
	return &StreamHandler[T]{
		streams: streams,
		logger:  logHandler(logger, "streams"),
	}
}

type listStreamsResponse struct {
	ProductIDs []string `json:"product_ids"`
	Total      int      `json:"total"`
}

// ListStreams returns the ids of every product with a current stream.
// GET /api/streams
func (h *StreamHandler[T]) ListStreams(w http.ResponseWriter, r *http.Request) {
	ids := h.streams.ProductIDs()
	writeJSON(w, http.StatusOK, listStreamsResponse{
		ProductIDs: ids,
		Total:      len(ids),
	})
}

// GetStream returns the current algo stream of one product.
// GET /api/streams/{id}
func (h *StreamHandler[T]) GetStream(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	stream, err := h.streams.GetData(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stream not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get stream failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get stream")
		return
	}

	writeJSON(w, http.StatusOK, stream)
}
