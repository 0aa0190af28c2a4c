// Package report renders operator-facing summaries of clone runs and
// catalog comparisons: a styled console summary and an HTML file, both
// fed from the same PipelineRun and CompareReport records. Reports go to
// stdout; logs go to stderr.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// WriteRunSummary renders the end-of-run summary for a clone run.
func WriteRunSummary(w io.Writer, run *mstools.PipelineRun) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Clone %s → %s", run.Source, run.Destination)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("run %s · %s", run.ID, formatDuration(run.Duration()))))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s%s%s%s%s%s\n",
		padRight("STAGE", 16), padRight("RESULT", 10),
		padRight("PASSES", 8), padRight("BATCHES", 9),
		padRight("FAILED", 8), "TIME")
	for _, s := range run.Stages {
		fmt.Fprintf(w, "%s%s%s%s%s%s\n",
			padRight(s.Stage.Name, 16),
			padRight(stageResult(s), 10),
			padRight(fmt.Sprintf("%d", s.Outcome.PassesUsed), 8),
			padRight(fmt.Sprintf("%d", s.Outcome.TotalBatches), 9),
			padRight(fmt.Sprintf("%d", len(s.Outcome.FailedBatches)), 8),
			formatDuration(s.Duration))
	}

	writeFailureDetails(w, run)

	fmt.Fprintln(w)
	if run.Succeeded() {
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%s clone completed: %d stages, %d batches",
			symbolPass, len(run.Stages), totalBatches(run))))
	} else {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s clone finished with issues: %d of %d stages failed",
			symbolFail, len(run.FailedStages()), len(run.Stages))))
	}
}

func stageResult(s mstools.StageOutcome) string {
	switch {
	case s.Err != nil:
		return errorStyle.Render(symbolFail + " error")
	case !s.Outcome.Success:
		return errorStyle.Render(symbolFail + " failed")
	default:
		return successStyle.Render(symbolPass + " ok")
	}
}

// writeFailureDetails lists what went wrong per failed stage: the setup
// error, or each still-failing batch with its script line and last error.
func writeFailureDetails(w io.Writer, run *mstools.PipelineRun) {
	for _, s := range run.FailedStages() {
		fmt.Fprintln(w)
		if s.Err != nil {
			fmt.Fprintf(w, "%s %s\n", warningStyle.Render(s.Stage.Name+":"), firstLine(s.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s %d of %d batches still failing\n",
			warningStyle.Render(s.Stage.Name+":"), len(s.Outcome.FailedBatches), s.Outcome.TotalBatches)
		for _, b := range s.Outcome.FailedBatches {
			fmt.Fprintf(w, "  batch %d (line %d): %s\n", b.Index, b.StartLine, firstLine(b.LastError))
		}
	}
}

// WriteDeploySummary renders the result of a single-script deployment.
func WriteDeploySummary(w io.Writer, scriptPath string, outcome *mstools.DeploymentOutcome) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Deploy "+scriptPath))
	fmt.Fprintln(w)

	if outcome.Success {
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%s deploy completed: %d batches in %d passes",
			symbolPass, outcome.TotalBatches, outcome.PassesUsed)))
		return
	}

	fmt.Fprintf(w, "%d of %d batches still failing after %d passes\n",
		len(outcome.FailedBatches), outcome.TotalBatches, outcome.PassesUsed)
	for _, b := range outcome.FailedBatches {
		fmt.Fprintf(w, "  batch %d (line %d): %s\n", b.Index, b.StartLine, firstLine(b.LastError))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, errorStyle.Render(symbolFail+" deploy finished with issues"))
}

// WriteCompareSummary renders the result of a catalog comparison.
func WriteCompareSummary(w io.Writer, report *mstools.CompareReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Compare %s → %s", report.Source, report.Destination)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("checked %d objects in %s",
		report.ObjectsChecked, formatDuration(report.Duration()))))
	fmt.Fprintln(w)

	if report.InSync() {
		fmt.Fprintln(w, successStyle.Render(symbolPass+" databases are in sync"))
		return
	}

	fmt.Fprintf(w, "%s%s%s\n",
		padRight("FINDING", 20), padRight("TYPE", 12), "OBJECT")
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "%s%s%s\n",
			padRight(issue.Kind.String(), 20),
			padRight(issue.ObjectType, 12),
			issue.Name)
		if issue.Detail != "" {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 32), mutedStyle.Render(issue.Detail))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s %d issues found", symbolFail, len(report.Issues))))
}

func totalBatches(run *mstools.PipelineRun) int {
	var n int
	for _, s := range run.Stages {
		n += s.Outcome.TotalBatches
	}
	return n
}

// firstLine keeps operator output single-line per finding; server errors
// regularly span lines.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
