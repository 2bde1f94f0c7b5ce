// Package models provides domain models for the financial calendar engine.
package models

import (
	"fmt"
	"strings"
	"time"
)

// PriceUnknown is the sentinel stored in price fields when no value is
// available. Prices are never NULL; consumers must treat this literal as
// absent data.
const PriceUnknown = 999999.9

// HasPrice reports whether p carries a real value rather than the sentinel.
func HasPrice(p float64) bool {
	return p != PriceUnknown
}

// Certainty indicates how firm an event's scheduled date is.
type Certainty string

const (
	CertaintyConfirmed Certainty = "Confirmed"
	CertaintyEstimated Certainty = "Estimated"
	CertaintyUnknown   Certainty = "Unknown"
)

// ParseCertainty maps a stored string back to a Certainty.
func ParseCertainty(s string) (Certainty, error) {
	switch Certainty(s) {
	case CertaintyConfirmed, CertaintyEstimated, CertaintyUnknown:
		return Certainty(s), nil
	}
	return "", fmt.Errorf("unknown certainty %q", s)
}

// ActionType represents the kind of action a user has taken on an event.
type ActionType string

const (
	ActionOSReminder  ActionType = "OSReminder"
	ActionPriceChange ActionType = "PriceChange"
)

// ActionStatus represents the state of an action.
// A reminder is Queued while the event date is still unconfirmed and
// transitions to Created once the OS-level reminder has been scheduled.
type ActionStatus string

const (
	ActionCreated ActionStatus = "Created"
	ActionQueued  ActionStatus = "Queued"
)

// CompanySyncStatus tracks progress of the company catalog sync.
type CompanySyncStatus string

const (
	CompanyNoSyncPerformed CompanySyncStatus = "NoSyncPerformed"
	CompanySeedSyncDone    CompanySyncStatus = "SeedSyncDone"
	CompanyFullSyncStarted CompanySyncStatus = "FullSyncStarted"
	CompanyFullSyncDone    CompanySyncStatus = "FullSyncDone"
	CompanyFullSyncFailed  CompanySyncStatus = "FullSyncAttemptedButFailed"
)

// EventSyncStatus tracks progress of the event sync.
type EventSyncStatus string

const (
	EventNoSyncPerformed EventSyncStatus = "NoSyncPerformed"
	EventSeedSyncDone    EventSyncStatus = "SeedSyncDone"
	EventRefreshDone     EventSyncStatus = "RefreshCheckDone"
)

// EventCategory buckets events for the query layer.
type EventCategory string

const (
	CategoryEarnings    EventCategory = "Earnings"
	CategoryEconomic    EventCategory = "Economic"
	CategoryProduct     EventCategory = "Product"
	CategoryCrypto      EventCategory = "Crypto"
	CategoryPriceChange EventCategory = "PriceChange"
)

// EarningsTiming is the intraday timing of an earnings release.
type EarningsTiming string

const (
	TimingAfterClose    EarningsTiming = "After Market Close"
	TimingBeforeOpen    EarningsTiming = "Before Market Open"
	TimingDuringTrading EarningsTiming = "During Market Trading"
	TimingUnknown       EarningsTiming = "Unknown"
)

// EventTypeEarnings is the single event type used for quarterly earnings.
const EventTypeEarnings = "Quarterly Earnings"

// EconomicTickerPrefix marks companies that are really economic agencies,
// e.g. ECONOMY_FOMC.
const EconomicTickerPrefix = "ECONOMY_"

// Company is a listed company (or, for economic events, the agency that
// publishes them).
type Company struct {
	Ticker string
	Name   string
}

// Event is a single calendar event. (Ticker, Type) is the unique identity.
type Event struct {
	Ticker         string
	Type           string
	Date           time.Time
	RelatedDetails string
	RelatedDate    time.Time
	PriorEndDate   time.Time
	Certainty      Certainty
	EstimatedEPS   float64
	ActualEPSPrior float64
}

// EventHistory carries prior-occurrence and price context for one event.
// Price fields use PriceUnknown when the value has not been fetched yet;
// a price-not-yet-known row is valid and mutable.
type EventHistory struct {
	Ticker                string
	EventType             string
	Previous1Date         time.Time
	Previous1Status       Certainty
	Previous1RelatedDate  time.Time
	CurrentDate           time.Time
	Previous1Price        float64
	Previous1RelatedPrice float64
	CurrentPrice          float64
}

// Action records a user-initiated subscription on an event. At most one live
// action exists per (event, type).
type Action struct {
	Ticker    string
	EventType string
	Type      ActionType
	Status    ActionStatus
}

// SyncState is the singleton sync progress record. Exactly one row exists
// process-wide, created lazily on the first company sync.
type SyncState struct {
	CompanyStatus     CompanySyncStatus
	CompanySyncDate   time.Time
	CompanyPage       int
	CompanyTotalPages int
	EventStatus       EventSyncStatus
	EventSyncDate     time.Time
}

// IsPriceChangeType reports whether an event type string names a price-change
// alert, e.g. "+ 5.12% today" or "- 3.40% past 30 days".
func IsPriceChangeType(eventType string) bool {
	if !strings.Contains(eventType, "%") {
		return false
	}
	return strings.HasSuffix(eventType, "today") ||
		strings.HasSuffix(eventType, "past 30 days") ||
		strings.HasSuffix(eventType, "year to date")
}

// IsEconomicTicker reports whether a ticker belongs to an economic agency.
func IsEconomicTicker(ticker string) bool {
	return strings.HasPrefix(ticker, EconomicTickerPrefix)
}

// Categorize buckets an event by its type and ticker. Crypto membership
// depends on the static coin registry, so the caller supplies that check.
func Categorize(ev Event, isCrypto func(ticker string) bool) EventCategory {
	switch {
	case IsPriceChangeType(ev.Type):
		return CategoryPriceChange
	case ev.Type == EventTypeEarnings:
		return CategoryEarnings
	case IsEconomicTicker(ev.Ticker):
		return CategoryEconomic
	case isCrypto != nil && isCrypto(ev.Ticker):
		return CategoryCrypto
	default:
		return CategoryProduct
	}
}
