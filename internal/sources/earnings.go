package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// EarningsClient fetches upcoming earnings events for a single ticker. The
// feed returns positional rows rather than keyed objects; see parseEarningsRow
// for the column layout.
type EarningsClient struct {
	baseURL string
	client  *http.Client
}

// NewEarningsClient creates an earnings feed client against baseURL.
func NewEarningsClient(baseURL string) *EarningsClient {
	return &EarningsClient{
		baseURL: baseURL,
		client:  newHTTPClient(),
	}
}

type earningsResponse struct {
	Data [][]interface{} `json:"data"`
}

// FetchEarnings fetches the earnings calendar rows for ticker and converts
// them to events. Malformed rows are skipped so one bad record cannot abort
// the batch.
func (c *EarningsClient) FetchEarnings(ctx context.Context, ticker string) ([]models.Event, error) {
	url := fmt.Sprintf("%s/%s.json", c.baseURL, ticker)

	var resp earningsResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return nil, apperrors.NewSourceError("earnings-feed", ticker, 0, err)
	}

	var events []models.Event
	for _, row := range resp.Data {
		ev, ok := parseEarningsRow(ticker, row)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Positional layout of one earnings feed row:
//
//	0  report date
//	1  prior quarter end date
//	2  next quarter end date
//	3  estimated EPS
//	4  event date
//	5  alternate date 1
//	6  alternate date 2
//	7  numeric flag (unused)
//	8  certainty code: 1=Confirmed 2=Estimated 3=Unknown
//	9  timing code: 1=After Close 2=Before Open 3=During Trading 4=Unknown
//	10 actual EPS
//	11 prior period end date
//	12 prior actual EPS
func parseEarningsRow(ticker string, row []interface{}) (models.Event, bool) {
	if len(row) < 13 {
		return models.Event{}, false
	}

	eventDate, ok := fieldDate(row[4])
	if !ok {
		return models.Event{}, false
	}

	certainty, ok := certaintyFromCode(fieldInt(row[8]))
	if !ok {
		return models.Event{}, false
	}

	ev := models.Event{
		Ticker:         ticker,
		Type:           models.EventTypeEarnings,
		Date:           eventDate,
		RelatedDetails: string(timingFromCode(fieldInt(row[9]))),
		Certainty:      certainty,
		EstimatedEPS:   fieldFloat(row[3]),
		ActualEPSPrior: fieldFloat(row[12]),
	}
	// Missing related dates leave the zero value; the store maps those to
	// absent.
	ev.RelatedDate, _ = fieldDate(row[2])
	ev.PriorEndDate, _ = fieldDate(row[1])

	return ev, true
}

func certaintyFromCode(code int) (models.Certainty, bool) {
	switch code {
	case 1:
		return models.CertaintyConfirmed, true
	case 2:
		return models.CertaintyEstimated, true
	case 3:
		return models.CertaintyUnknown, true
	}
	return "", false
}

func timingFromCode(code int) models.EarningsTiming {
	switch code {
	case 1:
		return models.TimingAfterClose
	case 2:
		return models.TimingBeforeOpen
	case 3:
		return models.TimingDuringTrading
	default:
		return models.TimingUnknown
	}
}

// fieldDate parses a positional date value of the form "2006-01-02".
func fieldDate(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// fieldFloat reads a positional numeric value, zero when absent.
func fieldFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

// fieldInt reads a positional numeric value as an int, zero when absent.
func fieldInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
