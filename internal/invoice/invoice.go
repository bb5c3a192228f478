package invoice

import "time"

// Record is the run-ledger entry for one processed invoice
type Record struct {
	ID          string    `json:"id"`
	SourcePath  string    `json:"source_path"`
	OutputPath  string    `json:"output_path"`
	Rows        int       `json:"rows"` // line-item rows exported
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Record statuses
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)
