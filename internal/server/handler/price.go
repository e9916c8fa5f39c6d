package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/alanyoungcy/algostream/internal/feed"
)

// maxPriceBody caps the size of a POST /api/prices body.
const maxPriceBody = 1 << 16

// PriceService is the part of the pricing service the handler needs.
type PriceService[T domain.Product] interface {
	GetData(productID string) (domain.Price[T], error)
	OnMessage(ctx context.Context, price domain.Price[T]) error
	Remove(ctx context.Context, productID string) error
}

// PriceHandler reads and injects upstream prices.
type PriceHandler[T domain.Product] struct {
	prices   PriceService[T]
	products feed.ProductLookup[T]
	logger   *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler[T domain.Product](prices PriceService[T], products feed.ProductLookup[T], logger *slog.Logger) *PriceHandler[T] {
	return &PriceHandler[T]{
		prices:   prices,
		products: products,
		logger:   logHandler(logger, "prices"),
	}
}

// GetPrice returns the latest upstream price of one product.
// GET /api/prices/{id}
func (h *PriceHandler[T]) GetPrice(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	price, err := h.prices.GetData(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "price not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get price")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// PostPrice pushes a price into the pipeline. The request returns after every
// downstream listener has seen the resulting stream.
// POST /api/prices  {"product_id":"...","mid":"...","spread":"..."}
func (h *PriceHandler[T]) PostPrice(w http.ResponseWriter, r *http.Request) {
	var msg feed.PriceMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPriceBody)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := feed.ToPrice(h.products, msg)
	if err != nil {
		h.writePriceError(w, r, msg.ProductID, err)
		return
	}
	if err := h.prices.OnMessage(r.Context(), price); err != nil {
		h.writePriceError(w, r, msg.ProductID, err)
		return
	}

	writeJSON(w, http.StatusOK, price)
}

// DeletePrice withdraws the latest upstream price of one product. The last
// published stream is kept.
// DELETE /api/prices/{id}
func (h *PriceHandler[T]) DeletePrice(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.prices.Remove(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "price not found")
			return
		}
		h.writePriceError(w, r, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PriceHandler[T]) writePriceError(w http.ResponseWriter, r *http.Request, productID string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "unknown product")
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "handler: publish price failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "downstream listener failed")
	}
}
