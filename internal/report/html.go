package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// HTMLFileName is the canonical report file name for a run. The run ID
// keeps successive reports from overwriting each other.
func HTMLFileName(run *mstools.PipelineRun) string {
	return fmt.Sprintf("mstools_run_%s.html", run.ID)
}

type htmlData struct {
	Run       *mstools.PipelineRun
	Compare   *mstools.CompareReport
	Generated time.Time
}

// WriteHTML writes the run report to path. compare may be nil when no
// comparison was performed after the clone.
func WriteHTML(path string, run *mstools.PipelineRun, compare *mstools.CompareReport) error {
	return renderHTML(path, htmlData{Run: run, Compare: compare, Generated: time.Now()})
}

// WriteCompareHTML writes a standalone comparison report to path.
func WriteCompareHTML(path string, compare *mstools.CompareReport) error {
	return renderHTML(path, htmlData{Compare: compare, Generated: time.Now()})
}

func renderHTML(path string, data htmlData) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing html report: %w", err)
	}
	return nil
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"dur": formatDuration,
	"shortsum": func(s string) string {
		if len(s) > 8 {
			return s[:8]
		}
		return s
	},
	"result": func(s mstools.StageOutcome) string {
		switch {
		case s.Err != nil:
			return "error"
		case !s.Outcome.Success:
			return "failed"
		default:
			return "ok"
		}
	},
}).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Run}}mstools run {{.Run.ID}}{{else}}mstools comparison{{end}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2328; }
  h1 { font-size: 1.4rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; }
  .meta { color: #59636e; margin-bottom: 1.5rem; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
  th, td { text-align: left; padding: 0.4rem 0.75rem; border-bottom: 1px solid #d1d9e0; }
  th { font-size: 0.8rem; text-transform: uppercase; color: #59636e; }
  .ok { color: #1a7f37; }
  .failed, .error { color: #d1242f; }
  .mono { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.85rem; }
  .errtext { color: #d1242f; }
  .detail { color: #59636e; }
</style>
</head>
<body>
{{if .Run}}
<h1>Clone {{.Run.Source}} &rarr; {{.Run.Destination}}</h1>
<p class="meta">run <span class="mono">{{.Run.ID}}</span> · started {{.Run.StartedAt.Format "2006-01-02 15:04:05"}} · {{dur .Run.Duration}}</p>

<table>
<tr><th>Stage</th><th>Result</th><th>Passes</th><th>Batches</th><th>Failed</th><th>Time</th><th>Checksum</th></tr>
{{range .Run.Stages}}
<tr>
  <td>{{.Stage.Name}}</td>
  <td class="{{result .}}">{{result .}}</td>
  <td>{{.Outcome.PassesUsed}}</td>
  <td>{{.Outcome.TotalBatches}}</td>
  <td>{{len .Outcome.FailedBatches}}</td>
  <td>{{dur .Duration}}</td>
  <td class="mono" title="{{.Checksum}}">{{shortsum .Checksum}}</td>
</tr>
{{end}}
</table>

{{range .Run.Stages}}{{if .Err}}
<h2>{{.Stage.Name}}</h2>
<p class="errtext">{{.Err}}</p>
{{else if .Outcome.FailedBatches}}
<h2>{{.Stage.Name}}: failing batches</h2>
<table>
<tr><th>Batch</th><th>Line</th><th>Last error</th></tr>
{{range .Outcome.FailedBatches}}
<tr><td>{{.Index}}</td><td>{{.StartLine}}</td><td class="errtext">{{.LastError}}</td></tr>
{{end}}
</table>
{{end}}{{end}}
{{end}}

{{if .Compare}}
<h2>Comparison: {{.Compare.Source}} &rarr; {{.Compare.Destination}}</h2>
<p class="meta">checked {{.Compare.ObjectsChecked}} objects in {{dur .Compare.Duration}}</p>
{{if .Compare.InSync}}
<p class="ok">Databases are in sync.</p>
{{else}}
<table>
<tr><th>Finding</th><th>Type</th><th>Object</th><th>Detail</th></tr>
{{range .Compare.Issues}}
<tr><td>{{.Kind}}</td><td>{{.ObjectType}}</td><td class="mono">{{.Name}}</td><td class="detail">{{.Detail}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}

<p class="meta">generated {{.Generated.Format "2006-01-02 15:04:05"}} by mstools</p>
</body>
</html>
`
