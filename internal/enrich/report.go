package enrich

import (
	"time"

	"github.com/google/uuid"
)

// Report summarizes one enrichment run.
type Report struct {
	RunID      string        `json:"run_id"`
	Resolved   int           `json:"resolved"`
	Unresolved int           `json:"unresolved"`
	Total      int           `json:"total"`
	CacheHits  int           `json:"cache_hits"`
	Requests   int           `json:"requests"`
	Duration   time.Duration `json:"duration_ns"`
}

func newReport() *Report {
	return &Report{RunID: uuid.New().String()}
}

// Processed returns the number of rows handled so far.
func (r *Report) Processed() int { return r.Resolved + r.Unresolved }
