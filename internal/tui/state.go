package tui

import (
	"time"

	"github.com/marcin-skalski/actions-status/internal/status"
)

type Snapshot struct {
	Timestamp time.Time
	LastTick  time.Time
	Overall   status.Status
	Repos     []RepoState
	Auth      string // auth state label

	RateLimit RateLimitState
	Notice    string // latest alert, "" when none
}

type RepoState struct {
	FullName string
	Status   status.Status
	Title    string
	Err      string
	// Rerunnable is true when the failed jobs of the last run can be
	// re-run from the board.
	Rerunnable bool
}

type RateLimitState struct {
	Known     bool
	Limit     int
	Remaining int
	Reset     time.Time
	Low       bool
}
