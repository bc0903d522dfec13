// Package report renders simulation reports and cheat sheets as text tables,
// JSON or msgpack.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aristath/fairorcheat/internal/cheatsheet"
	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/simulation"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the output encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return "text"
}

// ParseFormat accepts "text" (default when empty), "json" and "msgpack"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidConfig, s)
}

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D4C57"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#6B50FF"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	fairStyle   = cellStyle.Foreground(lipgloss.Color("#00FFB2"))
	cheatStyle  = cellStyle.Foreground(lipgloss.Color("#E94090"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// firstDataRow is the StyleFunc row index of the first data row
const firstDataRow = table.HeaderRow + 1

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle)
}

// RenderReports renders one row per policy
func RenderReports(reports []*simulation.Report) string {
	t := newTable().
		Headers("Policy", "Sessions", "Min", "Mean", "Max", "StdDev", "Games", "Truncated").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			}
			return numberStyle
		})

	for _, r := range reports {
		t.Row(
			r.PolicyName,
			strconv.Itoa(r.Sessions),
			formatFloat(r.MinScore),
			formatFloat(r.MeanScore),
			formatFloat(r.MaxScore),
			formatFloat(r.StdDevScore),
			formatFloat(r.MeanGames),
			strconv.Itoa(r.Truncated),
		)
	}
	return t.Render()
}

// RenderSummaries renders one row per batch of games
func RenderSummaries(summaries []simulation.GameSummary) string {
	t := newTable().
		Headers("Policy", "Games", "Accuracy", "Flips", "Min", "Mean", "Max").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			}
			return numberStyle
		})

	for _, s := range summaries {
		t.Row(
			s.PolicyName,
			strconv.Itoa(s.Games),
			formatFloat(s.Accuracy),
			formatFloat(s.MeanFlips),
			formatFloat(s.NetFundChange.Min),
			formatFloat(s.NetFundChange.Mean),
			formatFloat(s.NetFundChange.Max),
		)
	}
	return t.Render()
}

// verdictSymbol is the single-character cell used in sheets
func verdictSymbol(v domain.Verdict) string {
	switch v {
	case domain.VerdictFair:
		return "F"
	case domain.VerdictCheat:
		return "C"
	}
	return "."
}

// RenderSheet renders flips as rows and heads as columns. "." means keep
// flipping; states with heads > flips are blank.
func RenderSheet(sheet *cheatsheet.Sheet) string {
	headers := make([]string, sheet.MaxFlips+2)
	headers[0] = "flips\\heads"
	for h := 0; h <= sheet.MaxFlips; h++ {
		headers[h+1] = strconv.Itoa(h)
	}

	t := newTable().Headers(headers...)
	for flips, row := range sheet.Verdicts {
		cells := make([]string, sheet.MaxFlips+2)
		cells[0] = strconv.Itoa(flips)
		for heads, v := range row {
			cells[heads+1] = verdictSymbol(v)
		}
		t.Row(cells...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 0 {
			return numberStyle
		}
		v, ok := sheet.At(row-firstDataRow, col-1)
		switch {
		case !ok:
			return cellStyle
		case v == domain.VerdictFair:
			return fairStyle
		case v == domain.VerdictCheat:
			return cheatStyle
		}
		return cellStyle
	})

	return titleStyle.Render(sheet.PolicyName) + "\n" + t.Render()
}

// RenderValues renders declare/continuation pairs as "declare/continuation"
func RenderValues(sheet *cheatsheet.ValueSheet) string {
	headers := make([]string, sheet.MaxFlips+2)
	headers[0] = "flips\\heads"
	for h := 0; h <= sheet.MaxFlips; h++ {
		headers[h+1] = strconv.Itoa(h)
	}

	t := newTable().Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return numberStyle
		})
	for flips := range sheet.Declare {
		cells := make([]string, sheet.MaxFlips+2)
		cells[0] = strconv.Itoa(flips)
		for heads := range sheet.Declare[flips] {
			cells[heads+1] = fmt.Sprintf("%.2f/%.2f", sheet.Declare[flips][heads], sheet.Continuation[flips][heads])
		}
		t.Row(cells...)
	}
	return titleStyle.Render(sheet.PolicyName) + "\n" + t.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Encode writes v as JSON or msgpack
func Encode(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("failed to encode msgpack: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s is not a binary or structured format", domain.ErrInvalidConfig, format)
}

// WriteReports writes reports in the requested format
func WriteReports(w io.Writer, format Format, reports []*simulation.Report) error {
	if format == FormatText {
		_, err := fmt.Fprintln(w, RenderReports(reports))
		return err
	}
	return Encode(w, format, reports)
}

// WriteSummaries writes game summaries in the requested format
func WriteSummaries(w io.Writer, format Format, summaries []simulation.GameSummary) error {
	if format == FormatText {
		_, err := fmt.Fprintln(w, RenderSummaries(summaries))
		return err
	}
	return Encode(w, format, summaries)
}

// WriteSheets writes decision sheets in the requested format
func WriteSheets(w io.Writer, format Format, sheets []*cheatsheet.Sheet) error {
	if format != FormatText {
		return Encode(w, format, sheets)
	}
	for _, s := range sheets {
		if _, err := fmt.Fprintln(w, RenderSheet(s)); err != nil {
			return err
		}
	}
	return nil
}

// WriteValues writes value sheets in the requested format
func WriteValues(w io.Writer, format Format, sheets []*cheatsheet.ValueSheet) error {
	if format != FormatText {
		return Encode(w, format, sheets)
	}
	for _, s := range sheets {
		if _, err := fmt.Fprintln(w, RenderValues(s)); err != nil {
			return err
		}
	}
	return nil
}
