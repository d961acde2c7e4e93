package ui

import (
	"fmt"
	"io"
)

// Row is one line of the build plan table.
type Row struct {
	Name    string
	Version string
	Note    string // "(explicit)", "(layer N)" or "(layer N, make)"
}

// headerPad is the padding added after a column's longest cell; with the
// separating space, columns are at least headerPad+1 characters apart.
const headerPad = 3

// RenderPlan writes the name/version plan table. Column widths track the
// longest cell in each column, bounded below by the header widths.
func RenderPlan(w io.Writer, rows []Row) {
	nameHeader := fmt.Sprintf("Package (%d)", len(rows))
	versionHeader := "Version"

	namePad := len(nameHeader)
	versionPad := len(versionHeader)
	for _, r := range rows {
		if len(r.Name) > namePad {
			namePad = len(r.Name)
		}
		if len(r.Version) > versionPad {
			versionPad = len(r.Version)
		}
	}
	namePad += headerPad
	versionPad += headerPad

	fmt.Fprintf(w, "%s->%s %-*s %-*s\n", magenta, reset, namePad, nameHeader, versionPad, versionHeader)
	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintf(w, "%s->%s %-*s %-*s %s\n", magenta, reset, namePad, r.Name, versionPad, r.Version, r.Note)
	}
}
