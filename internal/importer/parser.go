package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	enc "github.com/MrJamesThe3rd/budgetnest/internal/encoding"
)

const (
	minDescription = 3
	maxDescription = 100
)

// Row is one expense line read from a CSV file.
type Row struct {
	Line        int
	Date        time.Time
	Description string
	// Category is the raw cell; CategoryID is empty when it names no known category.
	Category   string
	CategoryID string
	Amount     decimal.Decimal
}

// Skipped is a data line that could not be turned into a Row.
type Skipped struct {
	Line   int
	Reason string
}

// Result is the outcome of parsing one file.
type Result struct {
	Charset enc.Charset
	Rows    []Row
	Skipped []Skipped
}

type column int

const (
	colDate column = iota
	colDesc
	colCategory
	colAmount
	// bank exports may split the amount into debit and credit columns
	colDebit
	colCredit
)

var headerAliases = map[string]column{
	"fecha":       colDate,
	"date":        colDate,
	"descripción": colDesc,
	"descripcion": colDesc,
	"concepto":    colDesc,
	"description": colDesc,
	"categoría":   colCategory,
	"categoria":   colCategory,
	"category":    colCategory,
	"importe":     colAmount,
	"cantidad":    colAmount,
	"amount":      colAmount,
	"cargo":       colDebit,
	"débito":      colDebit,
	"debito":      colDebit,
	"debit":       colDebit,
	"abono":       colCredit,
	"crédito":     colCredit,
	"credito":     colCredit,
	"credit":      colCredit,
}

var amountKeywords = []string{"importe", "amount", "cantidad", "cargo", "débito", "debito"}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006"}

// Parser reads expense CSV exports. The header row is located by its column
// names, so title lines before it are ignored.
type Parser struct {
	categories []budget.Category
}

func NewParser(categories []budget.Category) *Parser {
	return &Parser{categories: categories}
}

func (p *Parser) Parse(r io.Reader) (Result, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return Result{}, fmt.Errorf("detecting encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return Result{}, fmt.Errorf("reading input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, lines, err := readRecords(reader)
	if err != nil {
		return Result{}, err
	}

	res := Result{Charset: charset, Rows: []Row{}, Skipped: []Skipped{}}

	if len(records) == 0 {
		return res, nil
	}

	cols, headerIdx, ok := findHeader(records)
	if !ok {
		return Result{}, fmt.Errorf("%w: no header with Fecha and Importe columns found", budget.ErrValidation)
	}

	for i, record := range records[headerIdx+1:] {
		line := lines[headerIdx+1+i]

		if blank(record) {
			continue
		}

		row, reason := p.parseRow(cols, record)
		if reason != "" {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: reason})
			continue
		}

		row.Line = line
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}

func (p *Parser) parseRow(cols map[column]int, record []string) (Row, string) {
	var row Row

	date, ok := parseDate(cell(record, cols, colDate))
	if !ok {
		return row, "invalid date"
	}

	raw := cell(record, cols, colAmount)
	if _, single := cols[colAmount]; !single {
		raw = cell(record, cols, colDebit)
		if raw == "" && cell(record, cols, colCredit) != "" {
			return row, "income row"
		}
	}

	amount, err := budget.ParseAmount(raw)
	if err != nil {
		return row, fmt.Sprintf("invalid amount %q", raw)
	}

	// bank exports list spending as negative amounts
	amount = amount.Abs()
	if amount.IsZero() {
		return row, "zero amount"
	}

	// an empty description is recorded under the default label
	desc := strings.TrimSpace(cell(record, cols, colDesc))
	if n := utf8.RuneCountInString(desc); n > 0 && (n < minDescription || n > maxDescription) {
		return row, fmt.Sprintf("description must be %d-%d characters", minDescription, maxDescription)
	}

	row.Date = date
	row.Amount = amount
	row.Description = desc
	row.Category = cell(record, cols, colCategory)
	row.CategoryID = p.resolveCategory(row.Category)

	return row, ""
}

// resolveCategory matches a cell against category ids and names, ignoring case.
func (p *Parser) resolveCategory(s string) string {
	if s == "" {
		return ""
	}

	fold := cases.Fold()
	want := fold.String(s)

	for _, c := range p.categories {
		if fold.String(c.ID) == want || fold.String(c.Name) == want {
			return c.ID
		}
	}

	return ""
}

// findHeader returns the column positions of the first row naming at least a
// date column and either an amount or a debit column.
func findHeader(records [][]string) (map[column]int, int, bool) {
	fold := cases.Fold()

	for i, record := range records {
		cols := map[column]int{}

		for j, name := range record {
			if c, ok := headerAliases[fold.String(strings.TrimSpace(name))]; ok {
				if _, seen := cols[c]; !seen {
					cols[c] = j
				}
			}
		}

		_, hasDate := cols[colDate]
		_, hasAmount := cols[colAmount]
		_, hasDebit := cols[colDebit]

		if hasDate && (hasAmount || hasDebit) {
			return cols, i, true
		}
	}

	return nil, 0, false
}

// sniffDelimiter picks ';' or ',' from the first line mentioning an amount column.
func sniffDelimiter(data []byte) rune {
	fold := cases.Fold()

	for line := range bytes.Lines(data) {
		l := fold.String(string(line))
		if !slices.ContainsFunc(amountKeywords, func(k string) bool { return strings.Contains(l, k) }) {
			continue
		}

		if strings.Count(l, ";") >= strings.Count(l, ",") {
			return ';'
		}

		return ','
	}

	return ';'
}

// readRecords returns every record with the file line it starts on.
func readRecords(reader *csv.Reader) ([][]string, []int, error) {
	var (
		records [][]string
		lines   []int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, lines, nil
		}

		if err != nil {
			return nil, nil, fmt.Errorf("reading csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cell(record []string, cols map[column]int, c column) string {
	idx, ok := cols[c]
	if !ok || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
