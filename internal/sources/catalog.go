package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// CatalogClient fetches the paginated company catalog from the earnings
// announcements dataset. Each record's name field is boilerplate text with
// the real company name and ticker embedded in it.
type CatalogClient struct {
	baseURL string
	perPage int
	client  *http.Client
}

// NewCatalogClient creates a catalog client against baseURL, requesting
// perPage records per page.
func NewCatalogClient(baseURL string, perPage int) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		perPage: perPage,
		client:  newHTTPClient(),
	}
}

type catalogResponse struct {
	TotalCount  int             `json:"total_count"`
	CurrentPage int             `json:"current_page"`
	PerPage     int             `json:"per_page"`
	Docs        []catalogRecord `json:"docs"`
}

type catalogRecord struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FetchPage fetches one catalog page. Records whose name cannot be parsed
// are skipped; the rest of the page is still returned.
func (c *CatalogClient) FetchPage(ctx context.Context, page int) (*CatalogPage, error) {
	url := fmt.Sprintf("%s?query=*&source_code=ZEA&per_page=%d&page=%d", c.baseURL, c.perPage, page)

	var resp catalogResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return nil, apperrors.NewSourceError("company-catalog", "", page, err)
	}

	result := &CatalogPage{
		TotalCount:  resp.TotalCount,
		CurrentPage: resp.CurrentPage,
		PerPage:     resp.PerPage,
	}

	for _, rec := range resp.Docs {
		if rec.Code == "" {
			continue
		}
		name, ok := ParseCatalogName(rec.Name, rec.Code)
		if !ok {
			// Malformed record, keep going with the rest of the page.
			continue
		}
		result.Companies = append(result.Companies, models.Company{
			Ticker: strings.ToUpper(rec.Code),
			Name:   name,
		})
	}

	return result, nil
}

// catalogNamePrefix is the boilerplate every catalog record name starts with.
const catalogNamePrefix = "Earnings Announcement Dates for "

// ParseCatalogName extracts the company name from catalog boilerplate, e.g.
// "Earnings Announcement Dates for American Vanguard Corp. (AVD)" yields
// "American Vanguard Corp.". It strips the leading boilerplate and the
// trailing "(TICKER)" suffix. ok is false when the text doesn't fit the
// expected shape.
func ParseCatalogName(raw, ticker string) (name string, ok bool) {
	// Strip the prefix before trimming: trimming first would eat the
	// prefix's trailing space and a pure-boilerplate record would slip
	// through as a "name".
	name = raw
	if strings.HasPrefix(name, catalogNamePrefix) {
		name = name[len(catalogNamePrefix):]
	}
	name = strings.TrimSpace(name)

	suffix := "(" + strings.ToUpper(ticker) + ")"
	if strings.HasSuffix(name, suffix) {
		name = strings.TrimSpace(name[:len(name)-len(suffix)])
	} else if i := strings.LastIndex(name, " ("); i > 0 && strings.HasSuffix(name, ")") {
		name = strings.TrimSpace(name[:i])
	}

	if name == "" {
		return "", false
	}
	return name, true
}
