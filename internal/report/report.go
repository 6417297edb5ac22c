// Package report renders driver.FileResult summaries for cmd/flowgraph,
// grounded on panbanda-omen's internal/output table formatter.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/tavola/flowgraph/internal/driver"
)

// Format selects how WriteResults renders its input.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

// jsonFile is the JSON rendering's per-file shape.
type jsonFile struct {
	Path        string           `json:"path"`
	FromCache   bool             `json:"fromCache"`
	Error       string           `json:"error,omitempty"`
	Live        []string         `json:"live"`
	Dead        []string         `json:"dead"`
	Diagnostics []jsonDiagnostic `json:"diagnostics,omitempty"`
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// WriteResults renders results to w in the given format.
func WriteResults(w io.Writer, results []driver.FileResult, format Format, colored bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, results)
	default:
		return writeText(w, results, colored)
	}
}

func writeJSON(w io.Writer, results []driver.FileResult) error {
	out := make([]jsonFile, 0, len(results))
	for _, r := range results {
		jf := jsonFile{Path: r.Path, FromCache: r.FromCache}
		if r.Err != nil {
			jf.Error = r.Err.Error()
		}
		for _, d := range r.Declarations {
			if d.Live {
				jf.Live = append(jf.Live, d.Name)
			} else {
				jf.Dead = append(jf.Dead, d.Name)
			}
		}
		for _, d := range r.Diagnostics {
			jf.Diagnostics = append(jf.Diagnostics, jsonDiagnostic{
				Severity: d.Severity, Code: d.Code, Message: d.Message, Line: d.Line, Column: d.Column,
			})
		}
		out = append(out, jf)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, results []driver.FileResult, colored bool) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
	)
	table.Header([]string{"FILE", "DECLARATION", "KIND", "STATUS"})

	for _, r := range results {
		if r.Err != nil {
			table.Append([]string{r.Path, "-", "-", colorize(colored, color.FgRed, fmt.Sprintf("error: %v", r.Err))})
			continue
		}
		for _, d := range r.Declarations {
			status := "dead"
			c := color.FgYellow
			if d.Live {
				status = "live"
				c = color.FgGreen
			}
			table.Append([]string{r.Path, d.Name, d.Kind, colorize(colored, c, status)})
		}
	}
	table.Render()

	for _, r := range results {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", r.Path, d.Line, d.Column, d.Severity, d.Message)
		}
	}
	return nil
}

func colorize(enabled bool, attr color.Attribute, s string) string {
	if !enabled {
		return s
	}
	return color.New(attr).Sprint(s)
}
