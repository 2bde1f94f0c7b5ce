package sources

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "fincal/internal/errors"
	"fincal/internal/models"
)

// EconomicRelease is one recurring economic release from the local calendar
// file, e.g. the monthly jobs report.
type EconomicRelease struct {
	Name       string   `yaml:"name"`
	Agency     string   `yaml:"agency"`
	AgencyCode string   `yaml:"agency_code"`
	Period     string   `yaml:"period"`
	Link       string   `yaml:"link"`
	Dates      []string `yaml:"dates"`
}

// Ticker returns the synthetic ticker for the publishing agency, e.g.
// ECONOMY_FOMC.
func (r *EconomicRelease) Ticker() string {
	return models.EconomicTickerPrefix + r.AgencyCode
}

type economicFile struct {
	Releases []EconomicRelease `yaml:"releases"`
}

// LoadEconomicReleases reads the local economic calendar file. Releases
// missing a name or agency code are skipped.
func LoadEconomicReleases(path string) ([]EconomicRelease, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewSourceError("economic-calendar", "", 0, err)
	}

	var f economicFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewSourceError("economic-calendar", "", 0, fmt.Errorf("parsing %s: %w", path, err))
	}

	releases := f.Releases[:0]
	for _, r := range f.Releases {
		if r.Name == "" || r.AgencyCode == "" {
			continue
		}
		releases = append(releases, r)
	}
	return releases, nil
}

// Events expands a release's scheduled dates into calendar events. The event
// type is month-qualified ("Sep Jobs Report") so each occurrence keeps its
// own (ticker, type) identity. Unparseable dates are skipped.
func (r *EconomicRelease) Events() []models.Event {
	var events []models.Event
	for _, ds := range r.Dates {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			continue
		}
		events = append(events, models.Event{
			Ticker:         r.Ticker(),
			Type:           fmt.Sprintf("%s %s", d.Format("Jan"), r.Name),
			Date:           d,
			RelatedDetails: r.Link,
			Certainty:      models.CertaintyConfirmed,
		})
	}
	return events
}
