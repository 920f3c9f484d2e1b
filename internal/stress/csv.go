package stress

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Header is the CSV column order consumed by plotting and reporting.
var Header = []string{
	"interest_rate",
	"rate_shock_bp",
	"occupancy_multiplier",
	"net_cashflow",
	"dscr",
}

// ResultsFileName is the conventional CSV name for a preset's run.
func ResultsFileName(preset string) string {
	return fmt.Sprintf("stress_results__%s.csv", preset)
}

func WriteTableCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, rows []Row) error {
	w := csv.NewWriter(out)

	if err := w.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			fmtFloat(r.InterestRate),
			fmtFloat(r.RateShockBP),
			fmtFloat(r.OccupancyMultiplier),
			fmtFloat(r.NetCashflow),
			fmtFloat(r.DSCR),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
