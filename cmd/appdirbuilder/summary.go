package appdirbuilder

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/pipeline"
	"github.com/arthur-debert/appdirbuilder/pkg/styles"
	"github.com/pterm/pterm"
)

// printSummary renders the per-stage counts of a build.
func printSummary(w io.Writer, r *pipeline.Report) error {
	rows := pterm.TableData{
		{"Stage", "Files"},
		{"Traced (outside AppDir)", strconv.Itoa(r.Candidates)},
		{"Traced (inside AppDir)", strconv.Itoa(r.Existing)},
		{"Excluded", strconv.Itoa(len(r.Excluded))},
		{"Application files", strconv.Itoa(r.AppLocal)},
		{"System files", strconv.Itoa(r.External)},
		{"Kept", strconv.Itoa(r.Kept)},
		{"Deleted", strconv.Itoa(len(r.Deleted))},
		{"Protected by include", strconv.Itoa(len(r.IncludedByFragment))},
		{"Artifacts", strconv.Itoa(len(r.Artifacts))},
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf(MsgErrRenderTable, err)
	}

	fmt.Fprintln(w, table)
	fmt.Fprintf(w, MsgBuildDone, styles.Render("Path", r.AppDir))
	fmt.Fprintln(w, styles.Render("Digest", r.Digest))
	return nil
}

// stagePrinter writes one muted line per finished stage to w.
func stagePrinter(w io.Writer) pipeline.StageFunc {
	return func(stage string, counts map[string]int) {
		fmt.Fprintln(w, styles.Render("Muted", fmt.Sprintf(MsgStageLine, stage, formatCounts(counts))))
	}
}

// formatCounts renders counts as "name=n" pairs sorted by name.
func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+strconv.Itoa(counts[name]))
	}
	return strings.Join(pairs, " ")
}
