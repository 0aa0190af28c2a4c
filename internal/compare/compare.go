// Package compare verifies that a destination database contains what the
// source does. Objects are matched by canonical key (case-folded name
// parts joined with "|") and judged equal when their normalized
// definitions match; the comparison is one-way, since a freshly cloned
// destination cannot hold objects the source lacks.
package compare

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// Comparator compares two database catalogs and reports discrepancies.
type Comparator struct {
	source          *sql.DB
	destination     *sql.DB
	sourceName      string
	destinationName string
	logger          *slog.Logger
}

// New creates a Comparator over two open connections. The names are
// display labels for the report. Panics on nil connections.
func New(source, destination *sql.DB, sourceName, destinationName string, logger *slog.Logger) *Comparator {
	if source == nil {
		panic("compare: source db must not be nil")
	}
	if destination == nil {
		panic("compare: destination db must not be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Comparator{
		source:          source,
		destination:     destination,
		sourceName:      sourceName,
		destinationName: destinationName,
		logger:          logger,
	}
}

// Compare snapshots both catalogs and diffs them. Row counts are opt-in;
// they need VIEW DATABASE STATE and only mean anything after a data copy.
func (c *Comparator) Compare(ctx context.Context, includeRowCounts bool) (*mstools.CompareReport, error) {
	report := &mstools.CompareReport{
		Source:      c.sourceName,
		Destination: c.destinationName,
		StartedAt:   time.Now(),
	}

	src, err := takeSnapshot(ctx, c.source, includeRowCounts)
	if err != nil {
		return nil, fmt.Errorf("reading source catalog: %w", err)
	}
	dst, err := takeSnapshot(ctx, c.destination, includeRowCounts)
	if err != nil {
		return nil, fmt.Errorf("reading destination catalog: %w", err)
	}

	report.ObjectsChecked = src.objectCount(includeRowCounts)
	report.Issues = diff(src, dst, includeRowCounts)
	report.FinishedAt = time.Now()

	c.logger.Info("comparison finished",
		"source", c.sourceName,
		"destination", c.destinationName,
		"objects", report.ObjectsChecked,
		"issues", len(report.Issues))
	return report, nil
}

// diff walks the source snapshot category by category: tables, row
// counts, constraints, indexes, modules. Keys within a category come out
// sorted so reports are stable across runs.
func diff(source, destination *snapshot, includeRowCounts bool) []mstools.Issue {
	var issues []mstools.Issue

	for _, key := range slices.Sorted(maps.Keys(source.tables)) {
		if _, ok := destination.tables[key]; !ok {
			issues = append(issues, mstools.Issue{
				ObjectType: "table",
				Name:       key,
				Kind:       mstools.IssueMissing,
				Detail:     "no destination table with this schema, name, and column list",
			})
		}
	}

	if includeRowCounts {
		for _, key := range slices.Sorted(maps.Keys(source.rowCounts)) {
			destRows, ok := destination.rowCounts[key]
			if !ok {
				// Absent tables are already reported as Missing.
				continue
			}
			if srcRows := source.rowCounts[key]; srcRows != destRows {
				issues = append(issues, mstools.Issue{
					ObjectType: "table",
					Name:       key,
					Kind:       mstools.IssueRowCountMismatch,
					Detail:     fmt.Sprintf("source %d rows, destination %d", srcRows, destRows),
				})
			}
		}
	}

	issues = append(issues, diffDefinitions("constraint", source.constraints, destination.constraints)...)
	issues = append(issues, diffDefinitions("index", source.indexes, destination.indexes)...)
	issues = append(issues, diffModules(source.modules, destination.modules)...)
	return issues
}

func diffDefinitions(objectType string, source, destination map[string]string) []mstools.Issue {
	var issues []mstools.Issue
	for _, key := range slices.Sorted(maps.Keys(source)) {
		destDef, ok := destination[key]
		switch {
		case !ok:
			issues = append(issues, mstools.Issue{
				ObjectType: objectType,
				Name:       key,
				Kind:       mstools.IssueMissingOrDifferent,
				Detail:     "missing on the destination",
			})
		case destDef != source[key]:
			issues = append(issues, mstools.Issue{
				ObjectType: objectType,
				Name:       key,
				Kind:       mstools.IssueMissingOrDifferent,
				Detail:     "definitions differ",
			})
		}
	}
	return issues
}

func diffModules(source, destination map[string]moduleEntry) []mstools.Issue {
	var issues []mstools.Issue
	for _, key := range slices.Sorted(maps.Keys(source)) {
		entry := source[key]
		destEntry, ok := destination[key]
		switch {
		case !ok:
			issues = append(issues, mstools.Issue{
				ObjectType: entry.objectType,
				Name:       key,
				Kind:       mstools.IssueMissingOrDifferent,
				Detail:     "missing on the destination",
			})
		case destEntry.definition != entry.definition:
			issues = append(issues, mstools.Issue{
				ObjectType: entry.objectType,
				Name:       key,
				Kind:       mstools.IssueMissingOrDifferent,
				Detail:     "definitions differ",
			})
		}
	}
	return issues
}
