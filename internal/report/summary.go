package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/franz/music-catalog/internal/store"
)

// SummaryReport describes the catalog's contents
type SummaryReport struct {
	GeneratedAt time.Time

	// Engine
	Engine        string
	EngineVersion string
	DatabasePath  string

	// Row counts
	Counts store.TableCounts

	// Derived
	UntaggedWorks int64

	// Audit log, if one was given
	EventLogPath string
	Lookups      int
	Deletes      int
	Errors       int
}

// GenerateSummaryReport gathers catalog statistics, and operation counts
// from the event log when eventLogPath is set
func GenerateSummaryReport(ctx context.Context, db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		Engine:       string(db.Dialect()),
		EventLogPath: eventLogPath,
	}

	version, err := db.EngineVersion(ctx)
	if err != nil {
		return nil, err
	}
	report.EngineVersion = version

	counts, err := db.CountRows(ctx)
	if err != nil {
		return nil, err
	}
	report.Counts = *counts

	err = db.DB().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM works w
		WHERE NOT EXISTS (SELECT 1 FROM tag_relations tr WHERE tr.work_id = w.id)
	`).Scan(&report.UntaggedWorks)
	if err != nil {
		return nil, fmt.Errorf("failed to count untagged works: %w", err)
	}

	if eventLogPath != "" {
		events, err := ReadEvents(eventLogPath)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			switch {
			case e.Error != "":
				report.Errors++
			case e.Event == EventLookup:
				report.Lookups++
			case e.Event == EventDelete:
				report.Deletes++
			}
		}
	}

	return report, nil
}

// CountLines returns the table counts as label/value pairs in display order
func (r *SummaryReport) CountLines() [][2]string {
	return [][2]string{
		{"Composers", humanize.Comma(r.Counts.Composers)},
		{"Eras", humanize.Comma(r.Counts.Eras)},
		{"Work Types", humanize.Comma(r.Counts.WorkTypes)},
		{"Source Files", humanize.Comma(r.Counts.DatasetContents)},
		{"Works", humanize.Comma(r.Counts.Works)},
		{"Tags", humanize.Comma(r.Counts.Tags)},
		{"Tag Relations", humanize.Comma(r.Counts.TagRelations)},
	}
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Music Catalog - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	md.WriteString(fmt.Sprintf("**Engine:** %s %s\n\n", report.Engine, report.EngineVersion))
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Catalog\n\n")
	md.WriteString("| Table | Rows |\n")
	md.WriteString("|-------|------|\n")
	for _, line := range report.CountLines() {
		md.WriteString(fmt.Sprintf("| %s | %s |\n", line[0], line[1]))
	}
	md.WriteString("\n")

	if report.UntaggedWorks > 0 {
		md.WriteString(fmt.Sprintf("> %s works have no tags and are hidden from lookups unless untagged works are requested.\n\n",
			humanize.Comma(report.UntaggedWorks)))
	}

	if report.EventLogPath != "" {
		md.WriteString("## Activity\n\n")
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
		md.WriteString("| Operation | Count |\n")
		md.WriteString("|-----------|-------|\n")
		md.WriteString(fmt.Sprintf("| Lookups | %d |\n", report.Lookups))
		md.WriteString(fmt.Sprintf("| Deletes | %d |\n", report.Deletes))
		if report.Errors > 0 {
			md.WriteString(fmt.Sprintf("| Errors | %d |\n", report.Errors))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by mcat*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
