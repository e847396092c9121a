package ledger

import "time"

// IngestEntry records a place that the ingestion pipeline turned into a
// venue record. ExternalURI is the key.
type IngestEntry struct {
	ExternalURI  string    `json:"externalUri"`
	DisplayName  string    `json:"displayName"`
	Neighborhood string    `json:"neighborhood"`
	Slug         string    `json:"slug"`
	ProcessedAt  time.Time `json:"processedAt"`
}

// Key implements Entry.
func (e IngestEntry) Key() string { return e.ExternalURI }

// RefineEntry records a content file whose body was rewritten by the
// refinement pipeline. Filename is the key.
type RefineEntry struct {
	Filename  string    `json:"filename"`
	SpotName  string    `json:"spotName"`
	RefinedAt time.Time `json:"refinedAt"`
}

// Key implements Entry.
func (e RefineEntry) Key() string { return e.Filename }

// RecentNames returns up to n display names from the end of an ingestion
// ledger, oldest first.
func RecentNames(l *Ledger[IngestEntry], n int) []string {
	if n <= 0 {
		return nil
	}
	entries := l.entries
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.DisplayName != "" {
			names = append(names, e.DisplayName)
		}
	}
	return names
}
