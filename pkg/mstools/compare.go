package mstools

import (
	"fmt"
	"time"
)

// IssueKind classifies a single comparison finding.
type IssueKind int

const (
	IssueMissing            IssueKind = iota // Object exists in the source but not the destination
	IssueRowCountMismatch                    // Table exists in both but row counts differ
	IssueMissingOrDifferent                  // Object is absent or its normalized definition differs
)

// String returns a human-readable string representation of the IssueKind.
func (k IssueKind) String() string {
	switch k {
	case IssueMissing:
		return "Missing"
	case IssueRowCountMismatch:
		return "RowCountMismatch"
	case IssueMissingOrDifferent:
		return "MissingOrDifferent"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Issue is a single discrepancy between source and destination.
type Issue struct {
	// ObjectType is the compared category, e.g. "table", "index", "procedure".
	ObjectType string

	// Name is the canonical object key the issue refers to.
	Name string

	// Kind classifies the discrepancy.
	Kind IssueKind

	// Detail is a human-readable explanation, e.g. "source 120 rows, destination 0".
	Detail string
}

// CompareReport is the aggregate result of one comparison run.
type CompareReport struct {
	// Source and Destination are display names (host/database).
	Source      string
	Destination string

	// ObjectsChecked is the number of canonical keys examined across all categories.
	ObjectsChecked int

	// Issues holds every discrepancy found, grouped by category in stable order.
	Issues []Issue

	StartedAt  time.Time
	FinishedAt time.Time
}

// InSync reports whether the comparison found no discrepancies.
func (r *CompareReport) InSync() bool {
	return len(r.Issues) == 0
}

// Duration returns the wall-clock time of the comparison.
func (r *CompareReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
