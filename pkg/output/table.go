/*
SPDX-FileCopyrightText: 2025 jackieclzheng

SPDX-License-Identifier: Apache-2.0
*/

package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// EntryRow is one parsed entry as shown by "digestmail list".
type EntryRow struct {
	Position int      `json:"position" yaml:"position"`
	Title    string   `json:"title" yaml:"title"`
	Fields   []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Next     bool     `json:"next,omitempty" yaml:"next,omitempty"`
}

// DigestRow is one configured digest as shown by "digestmail digests".
type DigestRow struct {
	Name        string `json:"name" yaml:"name"`
	Source      string `json:"source" yaml:"source"`
	State       string `json:"state" yaml:"state"`
	Schema      string `json:"schema" yaml:"schema"`
	ItemsPerRun int    `json:"itemsPerRun" yaml:"itemsPerRun"`
}

const maxTitleWidth = 48

func WriteEntryTable(w io.Writer, rows []EntryRow) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NEXT\tPOS\tTITLE\tFIELDS")
	for _, r := range rows {
		marker := ""
		if r.Next {
			marker = "->"
		}
		fields := "-"
		if len(r.Fields) > 0 {
			fields = strings.Join(r.Fields, ",")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", marker, r.Position, truncate(r.Title, maxTitleWidth), fields)
	}
	_ = tw.Flush()
}

func WriteDigestTable(w io.Writer, rows []DigestRow) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSCHEMA\tPER_RUN\tSOURCE\tSTATE")
	for _, r := range rows {
		schema := r.Schema
		if schema == "" {
			schema = "auto"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Name, schema, r.ItemsPerRun, r.Source, r.State)
	}
	_ = tw.Flush()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
