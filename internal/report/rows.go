package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// Format is an output format for lookup rows
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name; empty selects the table format
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w: output format %q (supported: table, json, csv, yaml)", util.ErrInvalidConfig, name)
}

// Columns is the projection of a lookup row, in output order
var Columns = []string{
	"collection", "dataset_name", "filename",
	"title", "catalog", "catalog_number", "pcn",
	"composer_name", "born", "died",
	"work_type", "era", "tag",
}

// WriteRows renders lookup rows in the given format
func WriteRows(w io.Writer, rows []*store.MetadataRow, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(Columns); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(rowValues(r, "")); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatTable, "":
		return writeTable(w, rows, util.GetTerminalWidth())
	}

	return fmt.Errorf("%w: output format %q", util.ErrInvalidConfig, format)
}

// writeTable prints the columns people scan for; the full projection is
// available through the other formats
func writeTable(w io.Writer, rows []*store.MetadataRow, width int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tFILENAME\tCOMPOSER\tTITLE\tCATALOG\tERA\tTYPE\tTAG")

	// Leave room for the other seven columns
	titleWidth := width / 4
	if titleWidth < 16 {
		titleWidth = 16
	}

	for _, r := range rows {
		catalog := strings.TrimSpace(deref(r.Catalog, "") + " " + deref(r.CatalogNumber, ""))
		if catalog == "" {
			catalog = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.DatasetName,
			r.Filename,
			r.ComposerName,
			truncate(r.Title, titleWidth),
			catalog,
			deref(r.Era, "-"),
			deref(r.WorkType, "-"),
			deref(r.Tag, "-"),
		)
	}

	return tw.Flush()
}

func rowValues(r *store.MetadataRow, null string) []string {
	return []string{
		r.Collection, r.DatasetName, r.Filename,
		r.Title, deref(r.Catalog, null), deref(r.CatalogNumber, null), deref(r.PCN, null),
		r.ComposerName, derefInt(r.Born, null), derefInt(r.Died, null),
		deref(r.WorkType, null), deref(r.Era, null), deref(r.Tag, null),
	}
}

func deref(s *string, null string) string {
	if s == nil {
		return null
	}
	return *s
}

func derefInt(i *int, null string) string {
	if i == nil {
		return null
	}
	return strconv.Itoa(*i)
}

// truncate shortens s to at most max runes, marking the cut with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
