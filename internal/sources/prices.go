package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// PriceClient fetches historical closing prices for a ticker. Rows come back
// as [date, close] pairs.
type PriceClient struct {
	baseURL string
	client  *http.Client
}

// NewPriceClient creates a price history client against baseURL.
func NewPriceClient(baseURL string) *PriceClient {
	return &PriceClient{
		baseURL: baseURL,
		client:  newHTTPClient(),
	}
}

type priceResponse struct {
	Data [][]interface{} `json:"data"`
}

// ClosingPrice returns the close for the given trading day. When the series
// has no row for that day the sentinel models.PriceUnknown is returned with
// a nil error: an unknown price is data, not a failure.
func (c *PriceClient) ClosingPrice(ctx context.Context, ticker string, day time.Time) (float64, error) {
	dayStr := day.Format("2006-01-02")
	url := fmt.Sprintf("%s/%s.json?start_date=%s&end_date=%s&column=close", c.baseURL, ticker, dayStr, dayStr)

	var resp priceResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return models.PriceUnknown, apperrors.NewSourceError("price-history", ticker, 0, err)
	}

	for _, row := range resp.Data {
		if len(row) < 2 {
			continue
		}
		d, ok := fieldDate(row[0])
		if !ok || !sameDay(d, day) {
			continue
		}
		if close, ok := row[1].(float64); ok {
			return close, nil
		}
	}
	return models.PriceUnknown, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
