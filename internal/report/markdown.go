package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/namesweep/namesweep/internal/model"
)

// maxListedNames caps the names listed in the Markdown report. Larger
// result sets are summarized by count and left to the JSON output.
const maxListedNames = 100

// MarkdownWriter outputs reports in Markdown format, suitable for
// documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSummary(md, report)
	w.writeLengthStats(md, report)
	w.writeNames(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Namespace Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Names discovered", strconv.Itoa(report.TotalNames)},
			{"Requests issued", strconv.FormatInt(report.TotalRequests, 10)},
			{"Prefixes explored", strconv.Itoa(report.ExploredPrefixes)},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Efficiency (names/request)", fmt.Sprintf("%.3f", report.Efficiency())},
			{"Discovery rate", fmt.Sprintf("%.1f names/min", report.NamesPerMinute())},
			{"Request rate", fmt.Sprintf("%.1f req/min", report.RequestsPerMinute())},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	if report.Interrupted {
		md.Warning("The crawl was interrupted; results are partial. " +
			"Restart with the same checkpoint file to resume.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeLengthStats(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.LengthStats) == 0 {
		return
	}

	md.H2("Queries by Prefix Length")
	md.PlainText("")

	lengths := make([]int, 0, len(report.LengthStats))
	for l := range report.LengthStats {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	rows := make([][]string, 0, len(lengths))
	for _, l := range lengths {
		stat := report.LengthStats[l]
		rows = append(rows, []string{
			strconv.Itoa(l),
			strconv.Itoa(stat.Queries),
			strconv.Itoa(stat.Success),
			fmt.Sprintf("%.1f%%", stat.SuccessRate()*100),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Prefix Length", "Queries", "With Results", "Hit Rate"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeNames(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Discovered Names")
	md.PlainText("")

	if report.TotalNames == 0 {
		md.PlainText("No names were discovered.")
		md.PlainText("")
		return
	}

	if report.TotalNames > maxListedNames {
		md.PlainText(fmt.Sprintf(
			"%d names discovered; see the JSON output for the full list.",
			report.TotalNames,
		))
		md.PlainText("")
		return
	}

	items := make([]string, 0, len(report.Names))
	for _, name := range report.Names {
		items = append(items, "`"+name+"`")
	}
	md.BulletList(items...)
	md.PlainText("")
}

func statusText(report *model.CrawlReport) string {
	if report.Interrupted {
		return "interrupted (partial results)"
	}
	return "complete"
}
