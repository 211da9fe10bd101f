package status

import "github.com/marcin-skalski/actions-status/internal/github"

// Relevant trims a newest-first run listing to the runs that decide the
// status: leading queued runs are skipped, and the result ends with the
// first completed run. Without any completed run the result is empty.
func Relevant(runs []github.WorkflowRun) []github.WorkflowRun {
	start := 0
	for start < len(runs) && runs[start].Status == github.RunQueued {
		start++
	}
	for i := start; i < len(runs); i++ {
		if runs[i].Status == github.RunCompleted {
			return runs[start : i+1]
		}
	}
	return nil
}

// Resolution is the outcome of resolving one listing.
type Resolution struct {
	Status Status

	// LastRun is the completed run the status is keyed on, nil when the
	// listing carried no new information.
	LastRun *github.WorkflowRun

	Changed bool
}

// Resolve maps relevant runs (as returned by Relevant) to a status. An
// empty slice keeps prior. Everything before the final completed run is
// treated as still in progress.
func Resolve(runs []github.WorkflowRun, prior Status) Resolution {
	if len(runs) == 0 {
		return Resolution{Status: prior}
	}

	completed := runs[len(runs)-1]
	running := len(runs) > 1

	var next Status
	switch {
	case running && completed.Succeeded():
		next = RunningFromOK
	case running:
		next = RunningFromFailed
	case completed.Succeeded():
		next = OK
	default:
		next = Failed
	}

	return Resolution{
		Status:  next,
		LastRun: &completed,
		Changed: next != prior,
	}
}

// Alert classifies a tick's transition of the overall status.
type Alert int

const (
	AlertNone Alert = iota
	// AlertNetwork fires on every tick that ends disconnected.
	AlertNetwork
	// AlertFailure fires once when a healthy set turns severe.
	AlertFailure
)

func (a Alert) String() string {
	switch a {
	case AlertNetwork:
		return "network"
	case AlertFailure:
		return "failure"
	}
	return "none"
}

// AlertFor decides what, if anything, to raise after a tick moved the
// overall status from previous to overall.
func AlertFor(previous, overall Status) Alert {
	switch {
	case overall == Disconnected:
		return AlertNetwork
	case overall.Severe() && previous.Healthy():
		return AlertFailure
	}
	return AlertNone
}
