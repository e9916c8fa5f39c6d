package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// ProductRegistry holds the reference data for every product the pipeline is
// allowed to price.
type ProductRegistry[T domain.Product] struct {
	mu       sync.RWMutex
	products map[string]T
}

// NewProductRegistry creates a registry pre-populated with products.
func NewProductRegistry[T domain.Product](products ...T) (*ProductRegistry[T], error) {
	r := &ProductRegistry[T]{products: make(map[string]T, len(products))}
	for _, p := range products {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a product. Ids must be non-empty and unique.
func (r *ProductRegistry[T]) Register(product T) error {
	id := product.ProductID()
	if id == "" {
		return fmt.Errorf("products: register: empty product id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; ok {
		return fmt.Errorf("products: register %q: %w", id, domain.ErrAlreadyExists)
	}
	r.products[id] = product
	return nil
}

// Lookup returns the product for id, or an error wrapping
// domain.ErrUnknownProduct.
func (r *ProductRegistry[T]) Lookup(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("products: lookup %q: %w", id, domain.ErrUnknownProduct)
	}
	return p, nil
}

// All returns every registered product sorted by id.
func (r *ProductRegistry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID() < out[j].ProductID() })
	return out
}

// IDs returns every registered product id in sorted order.
func (r *ProductRegistry[T]) IDs() []string {
	all := r.All()
	ids := make([]string, len(all))
	for i, p := range all {
		ids[i] = p.ProductID()
	}
	return ids
}

// Len returns the number of registered products.
func (r *ProductRegistry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
