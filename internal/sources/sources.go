// Package sources provides the remote and local data source adapters the
// sync engine reconciles against.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// CatalogPage is one page of the remote company catalog.
type CatalogPage struct {
	TotalCount  int
	CurrentPage int
	PerPage     int
	Companies   []models.Company
}

// TotalPages derives the page count from the totals the source reports.
func (p *CatalogPage) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.TotalCount + p.PerPage - 1) / p.PerPage
}

// CompanyCatalog lists all known companies, one page at a time.
type CompanyCatalog interface {
	FetchPage(ctx context.Context, page int) (*CatalogPage, error)
}

// EarningsFeed returns upcoming earnings events for one ticker.
type EarningsFeed interface {
	FetchEarnings(ctx context.Context, ticker string) ([]models.Event, error)
}

// PriceSource returns historical closing prices for a ticker.
type PriceSource interface {
	// ClosingPrice returns the close for the given trading day, or
	// models.PriceUnknown if the series has no value for it.
	ClosingPrice(ctx context.Context, ticker string, day time.Time) (float64, error)
}

// newHTTPClient returns the client shared by the remote adapters.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// getJSON performs a GET and decodes the JSON response body into v.
func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", apperrors.ErrSourceFailed, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
