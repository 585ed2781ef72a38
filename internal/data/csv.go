package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/logger"
)

// CSV loaders for previously fetched data files.
//
// Stock files carry at least Date, Open, High, Low, Close, Volume columns.
// Option chain files carry the fetcher's column set: strike, lastPrice,
// bid, ask, volume, openInterest, impliedVolatility, delta, gamma, theta,
// vega, expirationDate, lastTradeDate. Extra columns are ignored; rows that
// fail to parse are skipped with a debug log rather than aborting the load.

// csvFileProvider serves daily bars from a single stock CSV file.
type csvFileProvider struct {
	path string
}

// NewCSVProvider returns a Provider reading bars from path.
func NewCSVProvider(path string) Provider {
	return &csvFileProvider{path: path}
}

func (p *csvFileProvider) GetDailyBars(symbol string, from, to time.Time) ([]Bar, error) {
	bars, err := LoadBarsCSV(p.path)
	if err != nil {
		return nil, err
	}
	var out []Bar
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// LoadBarsCSV reads a daily bar series from a stock CSV file.
func LoadBarsCSV(path string) ([]Bar, error) {
	rows, idx, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	required := []string{"date", "open", "high", "low", "close", "volume"}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("bars csv %s: missing column %q", path, col)
		}
	}

	var out []Bar
	for _, row := range rows {
		date, err := parseDate(row[idx["date"]])
		if err != nil {
			logger.Debugf("bars csv: skipping row with bad date %q", row[idx["date"]])
			continue
		}
		b := Bar{Date: date}
		if b.Open, err = strconv.ParseFloat(row[idx["open"]], 64); err != nil {
			continue
		}
		if b.High, err = strconv.ParseFloat(row[idx["high"]], 64); err != nil {
			continue
		}
		if b.Low, err = strconv.ParseFloat(row[idx["low"]], 64); err != nil {
			continue
		}
		if b.Close, err = strconv.ParseFloat(row[idx["close"]], 64); err != nil {
			continue
		}
		b.Volume, _ = strconv.ParseFloat(row[idx["volume"]], 64)
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bars csv %s: no parsable rows", path)
	}
	return out, nil
}

// LoadChainCSV reads one day's option chain snapshot. The as-of date and
// right are taken from the file contents (lastTradeDate column and the
// optional Option_Type column); when the file has no Option_Type column
// the caller-supplied right applies to every row.
func LoadChainCSV(path, underlying string, right Right) ([]PricedOption, error) {
	rows, idx, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	for _, col := range []string{"strike", "lastprice", "expirationdate", "lasttradedate"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("chain csv %s: missing column %q", path, col)
		}
	}

	var out []PricedOption
	for _, row := range rows {
		strike, err := strconv.ParseFloat(row[idx["strike"]], 64)
		if err != nil || strike <= 0 {
			continue
		}
		expiry, err := parseDate(row[idx["expirationdate"]])
		if err != nil {
			continue
		}
		asOf, err := parseDate(row[idx["lasttradedate"]])
		if err != nil {
			continue
		}
		r := right
		if j, ok := idx["option_type"]; ok {
			if parsed, err := ParseRight(row[j]); err == nil {
				r = parsed
			}
		}

		po := PricedOption{
			OptionContract: OptionContract{
				Underlying: underlying,
				Strike:     strike,
				Expiry:     expiry,
				Right:      r,
				AsOf:       asOf,
			},
		}
		po.Theoretical, _ = strconv.ParseFloat(row[idx["lastprice"]], 64)
		po.Bid = floatCol(row, idx, "bid")
		po.Ask = floatCol(row, idx, "ask")
		po.ImpliedVol = floatCol(row, idx, "impliedvolatility")
		po.Delta = floatCol(row, idx, "delta")
		po.Gamma = floatCol(row, idx, "gamma")
		po.Theta = floatCol(row, idx, "theta")
		po.Vega = floatCol(row, idx, "vega")
		po.TradeVolume = int64(floatCol(row, idx, "volume"))
		po.OpenInterest = int64(floatCol(row, idx, "openinterest"))
		if po.Bid == 0 && po.Ask == 0 {
			po.Bid = po.Theoretical
			po.Ask = po.Theoretical
		}
		out = append(out, po)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chain csv %s: no parsable rows", path)
	}
	return out, nil
}

func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("csv %s: no data rows", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return records[1:], idx, nil
}

func floatCol(row []string, idx map[string]int, name string) float64 {
	j, ok := idx[name]
	if !ok || j >= len(row) {
		return 0
	}
	v, _ := strconv.ParseFloat(row[j], 64)
	return v
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
