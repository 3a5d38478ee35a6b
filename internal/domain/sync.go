package domain

import "time"

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunEmpty     RunStatus = "empty"
	RunAborted   RunStatus = "aborted"
)

type Outcome string

const (
	OutcomeImported Outcome = "imported"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

const (
	ReasonBeforeCutoff      = "before_cutoff"
	ReasonDuplicate         = "duplicate"
	ReasonDuplicateCheck    = "duplicate_check_failed"
	ReasonDetailUnavailable = "detail_unavailable"
	ReasonCreateFailed      = "create_failed"
)

// ItemResult is the outcome of processing one listed video.
type ItemResult struct {
	VideoID       string  `json:"video_id"`
	Title         string  `json:"title"`
	Outcome       Outcome `json:"outcome"`
	Reason        string  `json:"reason,omitempty"`
	ArticleID     int64   `json:"article_id,omitempty"`
	FeaturedImage bool    `json:"featured_image"`
	Error         string  `json:"error,omitempty"`
}

// RunSummary holds the result of a single sync run.
type RunSummary struct {
	ID            string       `json:"id" db:"id"`
	Trigger       Trigger      `json:"trigger" db:"trigger_kind"`
	Status        RunStatus    `json:"status" db:"status"`
	StartedAt     time.Time    `json:"started_at" db:"started_at"`
	FinishedAt    time.Time    `json:"finished_at" db:"finished_at"`
	Listed        int          `json:"listed" db:"listed"`
	Imported      int          `json:"imported" db:"imported"`
	Skipped       int          `json:"skipped" db:"skipped"`
	Failed        int          `json:"failed" db:"failed"`
	ImageFailures int          `json:"image_failures" db:"image_failures"`
	Published     int          `json:"published" db:"published"`
	Items         []ItemResult `json:"items" db:"-"`
	Error         string       `json:"error,omitempty" db:"error"`
}

func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Add appends an item result and updates the counters.
func (s *RunSummary) Add(r ItemResult) {
	s.Items = append(s.Items, r)
	switch r.Outcome {
	case OutcomeImported:
		s.Imported++
		if !r.FeaturedImage {
			s.ImageFailures++
		}
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
