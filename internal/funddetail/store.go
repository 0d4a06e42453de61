// Package funddetail is the Fund-Detail Store: one text file per fund on
// disk, five ordered sections, tolerant of two section-header styles and
// two holdings column layouts (spec §4.3, §6).
package funddetail

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/gocarina/gocsv"
)

const staleAfter = 30 * 24 * time.Hour

// sectionHeaders maps the canonical section name to both accepted spellings.
var sectionHeaders = map[string][2]string{
	"metadata": {"# ETF Metadata", "METADATA"},
	"country":  {"# Country Allocation (%)", "COUNTRY_ALLOCATION"},
	"sector":   {"# Sector Allocation (%)", "SECTOR_ALLOCATION"},
	"currency": {"# Currency Allocation (%) - auto-derived from countries", "CURRENCY_ALLOCATION"},
	"holdings": {"# Top Holdings", "TOP_HOLDINGS"},
}

// Store reads and writes FundDetail files under a directory. The sibling
// identifier->symbol index file is handled separately by Index.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Summary is one row of Enumerate's output: a FundDetail header plus
// freshness derived from LastUpdated (spec §4.3: stale? = days-old > 30).
type Summary struct {
	Symbol      string
	DisplayName string
	DaysOld     int
	Stale       bool
	Manual      bool
}

func (s *Store) path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+".csv")
}

// Get reads one fund's detail file. ok is false when no file exists for
// the symbol — not an error, per the store's get(symbol) -> FundDetail|none
// contract.
func (s *Store) Get(symbol string) (model.FundDetail, bool, error) {
	f, err := os.Open(s.path(symbol))
	if os.IsNotExist(err) {
		return model.FundDetail{}, false, nil
	}
	if err != nil {
		return model.FundDetail{}, false, err
	}
	defer f.Close()

	detail, err := parseFundDetail(f)
	if err != nil {
		return model.FundDetail{}, false, err
	}
	return detail, true, nil
}

// Put writes a fund's detail file via a write-temp-then-rename atomic
// replace (spec §5).
func (s *Store) Put(symbol string, detail model.FundDetail) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+symbol+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeFundDetail(tmp, symbol, detail); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(symbol))
}

// Enumerate lists every stored fund with freshness.
func (s *Store) Enumerate() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summaries []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		symbol := strings.TrimSuffix(e.Name(), ".csv")
		detail, ok, err := s.Get(symbol)
		if err != nil || !ok {
			continue
		}
		age := time.Since(detail.LastUpdated)
		summaries = append(summaries, Summary{
			Symbol:      symbol,
			DisplayName: detail.DisplayName,
			DaysOld:     int(age.Hours() / 24),
			Stale:       age > staleAfter,
			Manual:      detail.IsManual(),
		})
	}
	return summaries, nil
}

func parseFundDetail(f *os.File) (model.FundDetail, error) {
	sections, err := splitSections(f)
	if err != nil {
		return model.FundDetail{}, err
	}

	detail := model.FundDetail{}
	if meta, ok := sections["metadata"]; ok {
		parseMetadata(meta, &detail)
	}
	if country, ok := sections["country"]; ok {
		detail.CountryAlloc, _ = parseAllocations(country, "Country")
	}
	if sec, ok := sections["sector"]; ok {
		detail.SectorAlloc, _ = parseAllocations(sec, "Sector")
	}
	if currency, ok := sections["currency"]; ok {
		detail.CurrencyAlloc, _ = parseAllocations(currency, "Currency")
	}
	if holdings, ok := sections["holdings"]; ok {
		detail.TopHoldings, _ = parseHoldings(holdings)
	}
	return detail, nil
}

// splitSections scans the file line-by-line and groups lines under their
// owning section, recognising either accepted header style.
func splitSections(f *os.File) (map[string][]string, error) {
	headerToKey := map[string]string{}
	for key, styles := range sectionHeaders {
		headerToKey[styles[0]] = key
		headerToKey[styles[1]] = key
	}

	sections := map[string][]string{}
	var current string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if key, ok := headerToKey[strings.TrimSpace(line)]; ok {
			current = key
			continue
		}
		if current == "" || strings.TrimSpace(line) == "" {
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections, scanner.Err()
}

func parseMetadata(lines []string, detail *model.FundDetail) {
	for _, line := range lines {
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch key {
		case "ISIN":
			detail.Identifier = value
		case "Name":
			detail.DisplayName = value
		case "Type":
			detail.FundType = value
		case "Index":
			detail.IndexName = value
		case "Currency":
			detail.BaseCurrency = value
		case "TER":
			detail.ExpenseRatio, _ = strconv.ParseFloat(value, 64)
		case "Proxy ISIN":
			detail.ProxyIdentifier = value
		case "Last Updated":
			detail.LastUpdated, _ = time.Parse("2006-01-02", value)
		case "Source":
			detail.SourceTag = value
		}
	}
}

// parseAllocations reads a "<bucketHeader>,Weight" section body via gocsv,
// tolerating the column name varying by section (Country/Sector/Currency).
func parseAllocations(lines []string, bucketHeader string) ([]model.AllocationEntry, error) {
	type row struct {
		Bucket string  `csv:"Bucket"`
		Weight float64 `csv:"Weight"`
	}
	// The bucket column's header name varies per section (Country/Sector/
	// Currency); the body is rewritten with a fixed "Bucket" header so one
	// struct tag set covers all three.
	body := "Bucket,Weight\n"
	for _, line := range lines {
		if strings.HasPrefix(line, bucketHeader+",") || strings.HasPrefix(line, "Bucket,") {
			continue
		}
		body += line + "\n"
	}
	var rows []row
	if err := gocsv.UnmarshalString(body, &rows); err != nil {
		return nil, err
	}
	entries := make([]model.AllocationEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.AllocationEntry{Bucket: r.Bucket, Weight: r.Weight / 100})
	}
	return entries, nil
}

type holdingRow struct {
	Name       string  `csv:"Name"`
	Weight     float64 `csv:"Weight"`
	Currency   string  `csv:"Currency"`
	Sector     string  `csv:"Sector"`
	Country    string  `csv:"Country"`
	Identifier string  `csv:"ISIN"`
	Industry   string  `csv:"Industry"`
}

// parseHoldings accepts both accepted header layouts: {..., Sector, Country,
// ISIN} and {..., Sector, Industry, Country} (spec §4.3).
func parseHoldings(lines []string) ([]model.HoldingEntry, error) {
	header := "Name,Weight,Currency,Sector,Country,ISIN"
	if len(lines) > 0 && strings.Contains(lines[0], "Industry") {
		header = lines[0]
		lines = lines[1:]
	} else if len(lines) > 0 && (strings.HasPrefix(lines[0], "Name,") ) {
		header = lines[0]
		lines = lines[1:]
	}
	body := header + "\n" + strings.Join(lines, "\n") + "\n"

	var rows []holdingRow
	if err := gocsv.UnmarshalString(body, &rows); err != nil {
		return nil, err
	}
	entries := make([]model.HoldingEntry, 0, len(rows))
	for _, r := range rows {
		country := r.Country
		if country == "" {
			country = r.Industry
		}
		entries = append(entries, model.HoldingEntry{
			Name:       r.Name,
			Weight:     r.Weight / 100,
			Currency:   r.Currency,
			Sector:     r.Sector,
			Country:    country,
			Identifier: r.Identifier,
		})
	}
	return entries, nil
}

func writeFundDetail(f *os.File, symbol string, d model.FundDetail) error {
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "# ETF Metadata")
	fmt.Fprintf(w, "ISIN,%s\n", d.Identifier)
	fmt.Fprintf(w, "Name,%s\n", d.DisplayName)
	fmt.Fprintf(w, "Ticker,%s\n", symbol)
	fmt.Fprintf(w, "Type,%s\n", d.FundType)
	if d.IndexName != "" {
		fmt.Fprintf(w, "Index,%s\n", d.IndexName)
	}
	fmt.Fprintf(w, "Currency,%s\n", d.BaseCurrency)
	fmt.Fprintf(w, "TER,%.2f\n", d.ExpenseRatio)
	if d.ProxyIdentifier != "" {
		fmt.Fprintf(w, "Proxy ISIN,%s\n", d.ProxyIdentifier)
	}
	fmt.Fprintf(w, "Last Updated,%s\n", d.LastUpdated.Format("2006-01-02"))
	fmt.Fprintf(w, "Source,%s\n", d.SourceTag)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Country Allocation (%)")
	fmt.Fprintln(w, "Country,Weight")
	for _, a := range d.CountryAlloc {
		fmt.Fprintf(w, "%s,%.1f\n", a.Bucket, a.Weight*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Sector Allocation (%)")
	fmt.Fprintln(w, "Sector,Weight")
	for _, a := range d.SectorAlloc {
		fmt.Fprintf(w, "%s,%.1f\n", a.Bucket, a.Weight*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Currency Allocation (%) - auto-derived from countries")
	fmt.Fprintln(w, "Currency,Weight")
	for _, a := range d.CurrencyAlloc {
		fmt.Fprintf(w, "%s,%.1f\n", a.Bucket, a.Weight*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Top Holdings")
	holdingCSV, err := gocsv.MarshalString(toHoldingWriteRows(d.TopHoldings))
	if err != nil {
		return err
	}
	if _, err := w.WriteString(holdingCSV); err != nil {
		return err
	}

	return w.Flush()
}

// holdingWriteRow mirrors holdingRow's column order on write; Weight is
// pre-formatted to two decimals so gocsv's csv.Writer only has to handle
// quoting (a holding name with a comma, e.g. "Alphabet Inc, Class A", must
// round-trip through Get unchanged).
type holdingWriteRow struct {
	Name       string `csv:"Name"`
	Weight     string `csv:"Weight"`
	Currency   string `csv:"Currency"`
	Sector     string `csv:"Sector"`
	Country    string `csv:"Country"`
	Identifier string `csv:"ISIN"`
}

func toHoldingWriteRows(holdings []model.HoldingEntry) *[]holdingWriteRow {
	rows := make([]holdingWriteRow, len(holdings))
	for i, h := range holdings {
		rows[i] = holdingWriteRow{
			Name:       h.Name,
			Weight:     fmt.Sprintf("%.2f", h.Weight*100),
			Currency:   h.Currency,
			Sector:     h.Sector,
			Country:    h.Country,
			Identifier: h.Identifier,
		}
	}
	return &rows
}
