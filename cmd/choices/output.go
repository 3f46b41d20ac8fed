package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// palette styles status words. Writers that are not a terminal get plain
// text.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	bad   lipgloss.Style
	warn  lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(lipgloss.Color("#2CD7C7")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
	}
}

func (p palette) verdict(v bool) string {
	if v {
		return p.ok.Render(yesNo(v))
	}
	return p.bad.Render(yesNo(v))
}

// stickyWriter keeps the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(b []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(b)
	s.err = err
	return n, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab separated rows aligned in columns.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
