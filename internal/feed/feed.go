// Package feed reads external statement files into the rows imported for
// matching. CSV and JSON statements are supported.
package feed

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

// Parser turns a statement into external transaction inputs. A malformed
// row fails the whole statement so an import is never partial.
type Parser interface {
	Parse(r io.Reader) ([]dto.ExternalTransactionInput, error)
}

// Format names a supported statement format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// dateLayouts are tried in order when reading a date cell.
var dateLayouts = []string{time.DateOnly, time.RFC3339, "02/01/2006", "2006/01/02"}

// ForFormat returns the parser for a format name such as "csv".
func ForFormat(format string) (Parser, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatCSV:
		return CSVParser{}, nil
	case FormatJSON:
		return JSONParser{}, nil
	default:
		return nil, apperrors.NewValidationError("unsupported feed format %q", format)
	}
}

// ForFile picks a parser from the file extension.
func ForFile(path string) (Parser, error) {
	return ForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// CSVParser reads a headed CSV statement. Required columns are date and
// amount; type (DEBIT/CREDIT) and reference are optional. Without a type
// column a negative amount is a CREDIT and a positive one a DEBIT.
type CSVParser struct{}

func (CSVParser) Parse(r io.Reader) ([]dto.ExternalTransactionInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewValidationError("statement is empty")
	}
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read header: %v", err)
	}
	columns := mapColumns(header)
	for _, required := range []string{"date", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.NewValidationError("missing required column %q", required)
		}
	}

	var rows []dto.ExternalTransactionInput
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewValidationError("line %d: %v", line, err)
		}
		if blank(record) {
			continue
		}
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		row, err := buildRow(cell("date"), cell("amount"), cell("type"), cell("reference"))
		if err != nil {
			return nil, apperrors.NewValidationError("line %d: %v", line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("statement has no rows")
	}
	return rows, nil
}

// JSONParser reads either a bare array of rows or an object with a
// "transactions" array, each row carrying date, amount, type and reference.
type JSONParser struct{}

type jsonRow struct {
	Date      string          `json:"date"`
	Amount    json.RawMessage `json:"amount"`
	Type      string          `json:"type"`
	Reference string          `json:"reference"`
}

func (JSONParser) Parse(r io.Reader) ([]dto.ExternalTransactionInput, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read statement", err)
	}

	var items []jsonRow
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Transactions []jsonRow `json:"transactions"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, apperrors.NewValidationError("invalid JSON statement: %v", err)
		}
		items = wrapped.Transactions
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperrors.NewValidationError("invalid JSON statement: %v", err)
	}
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("statement has no rows")
	}

	rows := make([]dto.ExternalTransactionInput, 0, len(items))
	for i, item := range items {
		row, err := buildRow(item.Date, strings.Trim(string(item.Amount), `"`), item.Type, item.Reference)
		if err != nil {
			return nil, apperrors.NewValidationError("row %d: %v", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildRow(dateCell, amountCell, typeCell, reference string) (dto.ExternalTransactionInput, error) {
	var row dto.ExternalTransactionInput

	date, err := parseDate(dateCell)
	if err != nil {
		return row, err
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(amountCell, ",", ""))
	if err != nil {
		return row, fmt.Errorf("invalid amount %q", amountCell)
	}

	side := domain.TransactionType(strings.ToUpper(typeCell))
	switch {
	case side == "" && amount.IsNegative():
		side = domain.Credit
	case side == "":
		side = domain.Debit
	case !side.IsValid():
		return row, fmt.Errorf("invalid type %q", typeCell)
	case amount.IsNegative():
		return row, fmt.Errorf("amount %s must not be negative when a type is given", amount)
	}

	amount = amount.Abs()
	if !amount.IsPositive() {
		return row, fmt.Errorf("amount must be positive")
	}

	row.Date = date
	row.Amount = amount
	row.Type = side
	row.Reference = reference
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return columns
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
