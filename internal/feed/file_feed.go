package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/algostream/internal/domain"
	"github.com/shopspring/decimal"
)

// FileFeed replays prices from a CSV file with the columns
// product_id,mid,spread. A header row and lines starting with '#' are skipped.
type FileFeed[T domain.Product] struct {
	path     string
	products ProductLookup[T]
	sink     PriceSink[T]
	logger   *slog.Logger
}

// NewFileFeed creates a FileFeed reading path.
func NewFileFeed[T domain.Product](path string, products ProductLookup[T], sink PriceSink[T], logger *slog.Logger) *FileFeed[T] {
	return &FileFeed[T]{
		path:     path,
		products: products,
		sink:     sink,
		logger:   logger.With(slog.String("component", "file_feed")),
	}
}

// Run reads the whole file and pushes each price in file order. The first bad
// line or sink error stops the replay.
func (f *FileFeed[T]) Run(ctx context.Context) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("file_feed: open %s: %w", f.path, err)
	}
	defer file.Close()

	f.logger.InfoContext(ctx, "file feed started", slog.String("path", f.path))

	n, err := f.Load(ctx, file)
	if err != nil {
		return fmt.Errorf("file_feed: %s: %w", f.path, err)
	}

	f.logger.InfoContext(ctx, "file feed finished",
		slog.String("path", f.path),
		slog.Int("prices", n),
	)
	return nil
}

// Load pushes every price in r and returns how many were delivered.
func (f *FileFeed[T]) Load(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	count := 0
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("read: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		msg, err := parseRecord(record)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := ToPrice(f.products, msg)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if err := f.sink.OnMessage(ctx, price); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
}

func isHeader(record []string) bool {
	return strings.EqualFold(strings.TrimSpace(record[0]), "product_id")
}

func parseRecord(record []string) (PriceMessage, error) {
	mid, err := decimal.NewFromString(strings.TrimSpace(record[1]))
	if err != nil {
		return PriceMessage{}, fmt.Errorf("%w: mid %q", domain.ErrInvalidPrice, record[1])
	}
	spread, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return PriceMessage{}, fmt.Errorf("%w: spread %q", domain.ErrInvalidPrice, record[2])
	}
	return PriceMessage{
		ProductID: strings.TrimSpace(record[0]),
		Mid:       decimal.NullDecimal{Decimal: mid, Valid: true},
		Spread:    decimal.NullDecimal{Decimal: spread, Valid: true},
	}, nil
}
