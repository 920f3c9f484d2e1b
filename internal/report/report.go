// Package report renders a stress run as Markdown, and as HTML through
// goldmark, for reviewers who do not read CSV.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rent-stress/internal/scenario"
	"rent-stress/internal/stress"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// FileName is the conventional report name for a preset.
func FileName(preset, ext string) string {
	return fmt.Sprintf("stress_report__%s.%s", preset, ext)
}

// Markdown builds the report body.
func Markdown(out *scenario.Outcome) string {
	t := out.Table
	s := out.Summary
	cal := out.Calibration

	var b strings.Builder
	fmt.Fprintf(&b, "# Stress report: %s\n\n", cal.Name)
	if cal.Preset.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", cal.Preset.Description)
	}

	b.WriteString("## Calibration\n\n")
	b.WriteString("| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Theta (rent / debt) | %.6f |\n", cal.Theta)
	fmt.Fprintf(&b, "| Theta source | %s |\n", cal.Encoding)
	fmt.Fprintf(&b, "| Gross annual rent | %.2f |\n", t.Cashflow.GrossAnnualRent)
	fmt.Fprintf(&b, "| Operating cost ratio | %.4f |\n", t.Cashflow.OperatingCostRatio)
	fmt.Fprintf(&b, "| Implied debt | %.2f |\n", t.Debt)
	fmt.Fprintf(&b, "| Base interest rate | %.4f%% |\n", out.BaseRate*100)
	fmt.Fprintf(&b, "| Grid | %d shocks × %d occupancy = %d cells |\n\n",
		len(t.RateShocksBP), len(t.Occupancy), s.Cells)

	b.WriteString("## Summary\n\n")
	if s.Base != nil {
		fmt.Fprintf(&b, "- Base cell (0bp, 100%% occupancy): DSCR %.3f, net cashflow %.2f\n", s.Base.DSCR, s.Base.NetCashflow)
	}
	fmt.Fprintf(&b, "- DSCR range: %.3f to %.3f\n", s.MinDSCR, s.MaxDSCR)
	fmt.Fprintf(&b, "- Worst cell: %+gbp at occupancy %g (DSCR %.3f, net cashflow %.2f)\n",
		s.Worst.RateShockBP, s.Worst.OccupancyMultiplier, s.Worst.DSCR, s.Worst.NetCashflow)
	fmt.Fprintf(&b, "- Cells below DSCR 1: %d of %d\n", s.CellsBelowBreakEven, s.Cells)
	fmt.Fprintf(&b, "- Cells with negative cashflow: %d of %d\n\n", s.NegativeCashflowCells, s.Cells)

	b.WriteString("## Break-even occupancy\n\n")
	b.WriteString("| Shock (bp) | Rate | Analytical | Swept |\n|---:|---:|---:|---:|\n")
	for _, p := range stress.BreakEvenCurve(t) {
		swept := "n/a"
		if p.HasNumeric {
			swept = fmt.Sprintf("%.4f", p.Numeric)
		}
		fmt.Fprintf(&b, "| %+g | %.4f%% | %.4f | %s |\n", p.RateShockBP, p.InterestRate*100, p.Analytical, swept)
	}
	return b.String()
}

// HTML converts Markdown output to a standalone HTML page.
func HTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Stress report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

// Write stores the Markdown report, and the HTML rendering when withHTML is
// set, under dir. It returns the paths written.
func Write(dir string, out *scenario.Outcome, withHTML bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	md := Markdown(out)
	mdPath := filepath.Join(dir, FileName(out.Calibration.Name, "md"))
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return nil, err
	}
	paths := []string{mdPath}
	if !withHTML {
		return paths, nil
	}
	html, err := HTML(md)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	htmlPath := filepath.Join(dir, FileName(out.Calibration.Name, "html"))
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, err
	}
	return append(paths, htmlPath), nil
}
