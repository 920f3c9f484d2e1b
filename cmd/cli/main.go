package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rent-stress/internal/calibration"
	"rent-stress/internal/config"
	"rent-stress/internal/report"
	"rent-stress/internal/scenario"
	"rent-stress/internal/store"
	"rent-stress/internal/stress"
)

const defaultConfig = "examples/assumptions.yaml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "presets":
		cmdPresets(os.Args[2:])
	case "breakeven":
		cmdBreakEven(os.Args[2:])
	case "report":
		cmdReport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --config examples/assumptions.yaml --preset uk_btl_typical --out results/stress.csv")
	fmt.Println("  cli presets --config examples/assumptions.yaml")
	fmt.Println("  cli breakeven --config examples/assumptions.yaml --preset high_leverage")
	fmt.Println("  cli report --config examples/assumptions.yaml --html")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run writes one CSV row per (rate shock, occupancy) cell")
	fmt.Println("  - --base-rate overrides financing.base_interest_rate_value")
	fmt.Println("  - --db archives the run in a SQLite file for the API to serve")
}

// scenarioFlags are shared by every subcommand that executes a sweep.
type scenarioFlags struct {
	config   *string
	preset   *string
	baseRate *string
}

func addScenarioFlags(fs *flag.FlagSet) scenarioFlags {
	return scenarioFlags{
		config:   fs.String("config", defaultConfig, "Path to assumptions file (.yaml, .json or .hjson)"),
		preset:   fs.String("preset", "", "Calibration preset (default: calibration.default_preset)"),
		baseRate: fs.String("base-rate", "", "Optional: override the base interest rate, e.g. 0.055"),
	}
}

func (f scenarioFlags) load() (*config.Config, scenario.Request) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		fail(err)
	}
	req := scenario.Request{Preset: *f.preset}
	if s := strings.TrimSpace(*f.baseRate); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil {
			fail(fmt.Errorf("--base-rate: %w", err))
		}
		req.BaseRate = &r
	}
	return cfg, req
}

func (f scenarioFlags) run() (*config.Config, *scenario.Outcome) {
	cfg, req := f.load()
	out, err := scenario.Run(cfg, req)
	if err != nil {
		fail(err)
	}
	return cfg, out
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	sf := addScenarioFlags(fs)
	outPath := fs.String("out", "", "Output CSV path (default: <results_dir>/stress_results__<preset>.csv)")
	dbPath := fs.String("db", "", "Optional: SQLite file to archive the run in")
	_ = fs.Parse(args)

	cfg, out := sf.run()

	path := *outPath
	if path == "" {
		path = filepath.Join(cfg.ResultsDir(), stress.ResultsFileName(out.Calibration.Name))
	}
	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fail(err)
	}
	if err := stress.WriteTableCSV(path, out.Table.Rows); err != nil {
		fail(err)
	}

	fmt.Printf("Preset %s: theta=%.6f (%s) debt=%.2f base rate=%.4f\n",
		out.Calibration.Name, out.Table.Theta, out.Calibration.Encoding, out.Table.Debt, out.BaseRate)
	fmt.Printf("Wrote %d rows to %s\n", len(out.Table.Rows), path)
	printSummary(out.Summary)

	if *dbPath != "" {
		s, err := store.Open(*dbPath)
		if err != nil {
			fail(err)
		}
		defer s.Close()
		id, err := s.Save(context.Background(), out)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Archived run %s in %s\n", id, *dbPath)
	}
}

func cmdPresets(args []string) {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfig, "Path to assumptions file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}

	cal := cfg.Calibration
	fmt.Printf("%-2s %-20s %-10s %-34s %s\n", "", "preset", "theta", "source", "description")
	for _, name := range cal.PresetNames() {
		p := cal.Presets[name]
		mark := ""
		if name == cal.DefaultPreset {
			mark = "*"
		}
		theta, source, err := calibration.Theta(p)
		if err != nil {
			fmt.Printf("%-2s %-20s %-10s %s\n", mark, name, "-", err)
			continue
		}
		fmt.Printf("%-2s %-20s %-10.6f %-34s %s\n", mark, name, theta, source, p.Description)
	}
}

func cmdBreakEven(args []string) {
	fs := flag.NewFlagSet("breakeven", flag.ExitOnError)
	sf := addScenarioFlags(fs)
	_ = fs.Parse(args)

	_, out := sf.run()

	fmt.Printf("Break-even occupancy for %s (base rate %.4f)\n", out.Calibration.Name, out.BaseRate)
	fmt.Printf("%-10s %-10s %-12s %-12s\n", "shock_bp", "rate", "analytical", "swept")
	for _, p := range stress.BreakEvenCurve(out.Table) {
		swept := "-"
		if p.HasNumeric {
			swept = fmt.Sprintf("%.6f", p.Numeric)
		}
		fmt.Printf("%-10.0f %-10.4f %-12.6f %-12s\n", p.RateShockBP, p.InterestRate, p.Analytical, swept)
	}
}

func cmdReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	sf := addScenarioFlags(fs)
	outDir := fs.String("out-dir", "", "Output directory (default: output.results_dir)")
	withHTML := fs.Bool("html", false, "Also render the report as HTML")
	_ = fs.Parse(args)

	cfg, out := sf.run()

	dir := *outDir
	if dir == "" {
		dir = cfg.ResultsDir()
	}
	paths, err := report.Write(dir, out, *withHTML)
	if err != nil {
		fail(err)
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
}

func printSummary(s stress.Summary) {
	fmt.Printf("DSCR min=%.4f max=%.4f; %d/%d cells below 1.0; %d with negative cashflow\n",
		s.MinDSCR, s.MaxDSCR, s.CellsBelowBreakEven, s.Cells, s.NegativeCashflowCells)
	fmt.Printf("Worst cell: shock=%gbp occupancy=%g dscr=%.4f\n",
		s.Worst.RateShockBP, s.Worst.OccupancyMultiplier, s.Worst.DSCR)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
