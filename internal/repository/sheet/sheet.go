// Package sheet reads the catalog from a spreadsheet published as CSV. The
// feed is read-only: it implements catalog.Backend and nothing else.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/circuitbreaker"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const PlaceholderImage = "https://picsum.photos/600/400"

// Column order of the published sheet.
const (
	colName = iota
	colLocalName
	colCategory
	colPrice
	colDescription
	colBenefits
	colImage
)

type Feed struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]domain.Product]
}

func NewFeed(url string, timeout time.Duration, log *zap.Logger) *Feed {
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return NewFeedWithClient(url, client, log)
}

func NewFeedWithClient(url string, client *http.Client, log *zap.Logger) *Feed {
	return &Feed{
		url:    url,
		client: client,
		cb:     circuitbreaker.New[[]domain.Product]("sheet-feed", circuitbreaker.Settings{}, log),
	}
}

func (f *Feed) Name() string { return "sheet" }

// List fetches and parses the whole sheet on every call.
func (f *Feed) List(ctx context.Context) ([]domain.Product, error) {
	return f.cb.Execute(func() ([]domain.Product, error) {
		return f.fetch(ctx)
	})
}

func (f *Feed) fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("sheet returned status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

// Parse reads CSV rows in the fixed column order. The first row is a header.
// Ids are sheet-<n> where n counts data rows from 1, including rows later
// dropped for an empty name, so ids stay put when a row is blanked.
func Parse(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	products := []domain.Product{}
	row := -1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse sheet: %w", err)
		}
		row++
		if row == 0 {
			continue
		}

		name := cell(record, colName)
		if name == "" {
			continue
		}
		image := cell(record, colImage)
		if image == "" {
			image = PlaceholderImage
		}
		products = append(products, domain.Product{
			ID:        fmt.Sprintf("sheet-%d", row),
			Name:      name,
			LocalName: cell(record, colLocalName),
			// Raw label; the catalog normalizes it.
			Category:    domain.Category(cell(record, colCategory)),
			Price:       parsePrice(cell(record, colPrice)),
			Description: cell(record, colDescription),
			Benefits:    cell(record, colBenefits),
			ImageURL:    image,
		})
	}
	return products, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parsePrice accepts whole or decimal numbers with optional thousands
// separators. Anything else, or a negative value, is 0.
func parsePrice(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}
