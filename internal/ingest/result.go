package ingest

// ItemStatus is the outcome of one new candidate.
type ItemStatus string

// Item outcomes.
const (
	StatusWritten ItemStatus = "written"
	StatusFailed  ItemStatus = "failed"
)

// ItemResult records what happened to one new candidate.
type ItemResult struct {
	ExternalURI  string
	Name         string
	Neighborhood string
	Slug         string
	Path         string
	Status       ItemStatus
	// Fallback is set when the review synthesis used the template.
	Fallback bool
	Err      error
}

// Result summarizes an ingestion run.
type Result struct {
	RunID   string
	Queries []string
	Total   int
	New     int
	Skipped int
	Written int
	Failed  int
	Retries int
	Items   []ItemResult
}

func (r *Result) add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case StatusWritten:
		r.Written++
	case StatusFailed:
		r.Failed++
	}
}
