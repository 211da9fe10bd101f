// Package status derives a repository's CI state from its workflow runs
// and decides when the watched set as a whole deserves an alert.
package status

import "fmt"

// Status is the state of one repository or of the whole watched set.
type Status int

const (
	NoRuns Status = iota
	OK
	RunningFromOK
	RunningFromFailed
	Failed
	Disconnected
)

// severity is the aggregation order, least severe first. Kept separate
// from the constant values so reordering the declarations cannot change
// which status wins.
var severity = map[Status]int{
	NoRuns:            0,
	OK:                1,
	RunningFromOK:     2,
	RunningFromFailed: 3,
	Failed:            4,
	Disconnected:      5,
}

var names = map[Status]string{
	NoRuns:            "no runs",
	OK:                "ok",
	RunningFromOK:     "running (was ok)",
	RunningFromFailed: "running (was failed)",
	Failed:            "failed",
	Disconnected:      "disconnected",
}

var glyphs = map[Status]string{
	NoRuns:            "0️⃣",
	OK:                "\U0001F7E2",
	RunningFromOK:     "♻️",
	RunningFromFailed: "\U0001F7E1",
	Failed:            "\U0001F534",
	Disconnected:      "\U0001F6AB",
}

func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Glyph is the single-symbol rendering used in titles and headers.
func (s Status) Glyph() string {
	if g, ok := glyphs[s]; ok {
		return g
	}
	return "?"
}

// Rank is the severity of s; higher is worse.
func (s Status) Rank() int { return severity[s] }

// Severe reports whether s is bad enough to alert on: a failure, a run
// retrying a failure, or a lost connection.
func (s Status) Severe() bool {
	return s.Rank() >= RunningFromFailed.Rank()
}

// Healthy reports whether the last completed run passed.
func (s Status) Healthy() bool {
	return s == OK || s == RunningFromOK
}

// Compare returns -1, 0 or +1 as a is less, equally or more severe than b.
func Compare(a, b Status) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// Max returns the most severe of statuses, or NoRuns when there are none.
func Max(statuses ...Status) Status {
	worst := NoRuns
	for _, s := range statuses {
		if Compare(s, worst) > 0 {
			worst = s
		}
	}
	return worst
}
