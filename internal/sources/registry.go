package sources

import (
	"time"

	"fincal/internal/models"
)

// Static registries consulted at seed time. The product and crypto entries
// are curated by hand, the same way the seed company list is.

// MonthPhase positions an estimated product event within its month.
type MonthPhase int

const (
	EarlyMonth MonthPhase = iota
	MidMonth
	LateMonth
)

// EstimatedDay snaps a month phase to its conventional day: early is the
// 5th, middle the 15th, late the 25th.
func EstimatedDay(year int, month time.Month, phase MonthPhase) time.Time {
	day := 5
	switch phase {
	case MidMonth:
		day = 15
	case LateMonth:
		day = 25
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedCompanies returns the curated companies loaded before any full catalog
// crawl.
func SeedCompanies() []models.Company {
	return []models.Company{
		{Ticker: "AAPL", Name: "Apple Inc."},
		{Ticker: "MSFT", Name: "Microsoft Corp."},
		{Ticker: "AMZN", Name: "Amazon.com Inc."},
		{Ticker: "GOOG", Name: "Alphabet Inc."},
		{Ticker: "META", Name: "Meta Platforms Inc."},
		{Ticker: "NFLX", Name: "Netflix Inc."},
		{Ticker: "NVDA", Name: "NVIDIA Corp."},
		{Ticker: "TSLA", Name: "Tesla Inc."},
		{Ticker: "AMD", Name: "Advanced Micro Devices Inc."},
		{Ticker: "INTC", Name: "Intel Corp."},
	}
}

// EconomicAgencies returns the agencies behind the recurring economic
// releases, keyed by their synthetic ECONOMY_ tickers.
func EconomicAgencies() []models.Company {
	return []models.Company{
		{Ticker: "ECONOMY_FOMC", Name: "Federal Open Market Committee"},
		{Ticker: "ECONOMY_BLS", Name: "Bureau of Labor Statistics"},
		{Ticker: "ECONOMY_BEA", Name: "Bureau of Economic Analysis"},
		{Ticker: "ECONOMY_TCB", Name: "The Conference Board"},
	}
}

// CryptoTickers returns the static coin registry.
func CryptoTickers() []string {
	return []string{"BTC", "ETH", "XRP", "LTC", "BCH"}
}

// CryptoCompanies returns the coin registry as companies.
func CryptoCompanies() []models.Company {
	return []models.Company{
		{Ticker: "BTC", Name: "Bitcoin"},
		{Ticker: "ETH", Name: "Ethereum"},
		{Ticker: "XRP", Name: "Ripple"},
		{Ticker: "LTC", Name: "Litecoin"},
		{Ticker: "BCH", Name: "Bitcoin Cash"},
	}
}

// ProductEvents returns the curated product launch calendar relative to the
// given year. Dates are estimates snapped to early/mid/late month until
// confirmed.
func ProductEvents(year int) []models.Event {
	return []models.Event{
		{
			Ticker:         "AAPL",
			Type:           "iPhone Launch",
			Date:           EstimatedDay(year, time.September, MidMonth),
			RelatedDetails: "Fall hardware event",
			Certainty:      models.CertaintyEstimated,
		},
		{
			Ticker:         "NVDA",
			Type:           "GPU Architecture Launch",
			Date:           EstimatedDay(year, time.March, LateMonth),
			RelatedDetails: "GTC keynote",
			Certainty:      models.CertaintyEstimated,
		},
		{
			Ticker:         "TSLA",
			Type:           "AI Day",
			Date:           EstimatedDay(year, time.August, EarlyMonth),
			RelatedDetails: "Annual AI and robotics update",
			Certainty:      models.CertaintyEstimated,
		},
		{
			Ticker:         "ETH",
			Type:           "Protocol Upgrade",
			Date:           EstimatedDay(year, time.June, MidMonth),
			RelatedDetails: "Scheduled network hard fork",
			Certainty:      models.CertaintyEstimated,
		},
	}
}
