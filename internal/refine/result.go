package refine

// ItemStatus is the outcome of one file.
type ItemStatus string

// File outcomes.
const (
	StatusRefined ItemStatus = "refined"
	StatusFailed  ItemStatus = "failed"
)

// ItemResult records what happened to one file.
type ItemResult struct {
	Filename string
	Path     string
	SpotName string
	Author   string
	Status   ItemStatus
	Err      error
}

// Result summarizes a refinement run.
type Result struct {
	RunID    string
	Single   bool
	Selected int
	Refined  int
	Failed   int
	// Interrupted is set when cancellation stopped the run between files.
	Interrupted bool
	Items       []ItemResult
}

func (r *Result) add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case StatusRefined:
		r.Refined++
	case StatusFailed:
		r.Failed++
	}
}
