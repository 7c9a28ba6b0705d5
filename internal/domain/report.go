package domain

import "time"

// LocationAlerts is one location's entry in a Report.
type LocationAlerts struct {
	LocationID string   `json:"location_id"`
	Location   string   `json:"location"`
	RiskScore  float64  `json:"risk_score"`
	Alerts     []string `json:"alerts"`
}

// Report is the per-pass snapshot of advisories by location, consumed by the
// dashboard. Each pass replaces the previous one.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Locations   []LocationAlerts `json:"locations"`
}

// NewLocationAlerts builds a report entry for a row and the events it
// triggered. Alerts is never nil so the entry encodes as an empty list.
func NewLocationAlerts(row MetricRow, name string, events []AlertEvent) LocationAlerts {
	alerts := make([]string, 0, len(events))
	for _, e := range events {
		alerts = append(alerts, e.Message)
	}
	return LocationAlerts{
		LocationID: row.LocationID,
		Location:   name,
		RiskScore:  row.RiskScore,
		Alerts:     alerts,
	}
}

// NewReport stamps entries with the current time.
func NewReport(entries []LocationAlerts) Report {
	if entries == nil {
		entries = []LocationAlerts{}
	}
	return Report{
		GeneratedAt: reportClock.Now().UTC(),
		Locations:   entries,
	}
}

// AlertCount returns the total number of advisories across all locations.
func (r Report) AlertCount() int {
	n := 0
	for _, l := range r.Locations {
		n += len(l.Alerts)
	}
	return n
}
