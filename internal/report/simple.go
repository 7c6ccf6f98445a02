package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/namesweep/namesweep/internal/model"
)

// timeRounding trims sub-second noise from displayed durations.
const timeRounding = time.Second

// SimpleWriter outputs human-readable text reports for terminal
// display. Plain ASCII, no color, so output pipes cleanly to files
// and other tools.
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-length statistics section.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-length statistics.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given
// writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeTotals(&sb, report)
	if w.verbose {
		w.writeLengthStats(&sb, report)
	}

	n, err := io.WriteString(w.output, sb.String())
	if err != nil {
		return n, fmt.Errorf("write report: %w", err)
	}
	return n, nil
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	if report.Interrupted {
		sb.WriteString("CRAWL INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("CRAWL COMPLETE\n")
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n")
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, report *model.CrawlReport) {
	fmt.Fprintf(sb, "Names discovered:  %d\n", report.TotalNames)
	fmt.Fprintf(sb, "Requests issued:   %d\n", report.TotalRequests)
	fmt.Fprintf(sb, "Prefixes explored: %d\n", report.ExploredPrefixes)
	fmt.Fprintf(sb, "Elapsed:           %s\n", report.Elapsed.Round(timeRounding))
	fmt.Fprintf(sb, "Efficiency:        %.3f names/request\n", report.Efficiency())
	fmt.Fprintf(sb, "Discovery rate:    %.1f names/min\n", report.NamesPerMinute())
	if report.FinalDelay > 0 {
		fmt.Fprintf(sb, "Final delay:       %s\n", report.FinalDelay)
	}
}

func (w *SimpleWriter) writeLengthStats(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.LengthStats) == 0 {
		return
	}

	sb.WriteString("\nQueries by prefix length:\n")

	lengths := make([]int, 0, len(report.LengthStats))
	for l := range report.LengthStats {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	for _, l := range lengths {
		stat := report.LengthStats[l]
		fmt.Fprintf(sb, "  len %2d: %5d queries, %5d with results (%.1f%%)\n",
			l, stat.Queries, stat.Success, stat.SuccessRate()*100)
	}
}
