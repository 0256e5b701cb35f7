package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/recipient"
)

// Column headers of the obligations sheet. Headers are matched after
// trimming and upper-casing.
const (
	ColBusiness        = "EMPRESA"
	ColTaxID           = "NIT"
	ColObligation      = "NOMBRE_IMPUESTO"
	ColDueDate         = "FECHA"
	ColClientEmail     = "EMAIL_CLIENTE"
	ColClientPhone     = "TELEFONO_CLIENTE"
	ColAccountantEmail = "EMAIL_CONTADOR"
	ColAccountantPhone = "TELEFONO_CONTADOR"
)

var requiredColumns = []string{ColBusiness, ColTaxID, ColObligation, ColDueDate}

var dateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

// RowError describes one sheet row that was not stored. Row is the
// 1-based spreadsheet row number, the header being row 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type Result struct {
	Imported      int        `json:"imported"`
	ClearedEmails int        `json:"cleared_emails"`
	Failed        []RowError `json:"errors,omitempty"`
}

func (r *Result) Message() string {
	return fmt.Sprintf("imported %d obligations, %d rows failed", r.Imported, len(r.Failed))
}

// Service loads obligations from the first sheet of an xlsx workbook.
type Service struct {
	store domain.ObligationStore
	newID func() string
}

func NewService(store domain.ObligationStore) *Service {
	return &Service{
		store: store,
		newID: uuid.NewString,
	}
}

// Import stores every data row of the first sheet. A row that cannot be
// parsed or stored is reported in Result.Failed and does not stop the import.
// Emails that are not well formed are stored blank.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyWorkbook
	}

	columns, err := indexColumns(rows[0])
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	result := &Result{}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if isBlank(row) {
			continue
		}

		rowNum := i + 2
		obligation, cleared, reason := s.parseRow(columns, row, date1904)
		result.ClearedEmails += cleared
		if reason != "" {
			slog.WarnContext(ctx, "skipping spreadsheet row",
				slog.Int("row", rowNum),
				slog.String("reason", reason),
			)
			result.Failed = append(result.Failed, RowError{Row: rowNum, Reason: reason})
			continue
		}

		if err := s.store.Create(ctx, obligation); err != nil {
			result.Failed = append(result.Failed, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		result.Imported++
	}

	if result.Imported == 0 && len(result.Failed) == 0 {
		return nil, ErrEmptyWorkbook
	}

	slog.InfoContext(ctx, "spreadsheet import finished",
		slog.String("sheet", sheets[0]),
		slog.Int("imported", result.Imported),
		slog.Int("failed", len(result.Failed)),
		slog.Int("cleared_emails", result.ClearedEmails),
	)

	return result, nil
}

type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := columns[name]; name != "" && !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return columns, nil
}

func (c columnIndex) value(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *Service) parseRow(columns columnIndex, row []string, date1904 bool) (domain.TaxObligation, int, string) {
	taxID := columns.value(row, ColTaxID)
	if taxID == "" {
		return domain.TaxObligation{}, 0, "missing " + ColTaxID
	}

	rawDate := columns.value(row, ColDueDate)
	due, err := ParseDueDate(rawDate, date1904)
	if err != nil {
		return domain.TaxObligation{}, 0, fmt.Sprintf("invalid %s %q", ColDueDate, rawDate)
	}

	cleared := 0
	email := func(name string) string {
		v := columns.value(row, name)
		if v != "" && !recipient.IsValidEmail(v) {
			cleared++
			return ""
		}
		return v
	}

	obligation := domain.TaxObligation{
		ID:              s.newID(),
		BusinessName:    columns.value(row, ColBusiness),
		TaxID:           taxID,
		Name:            columns.value(row, ColObligation),
		DueDate:         due,
		ClientEmail:     email(ColClientEmail),
		ClientPhone:     columns.value(row, ColClientPhone),
		AccountantEmail: email(ColAccountantEmail),
		AccountantPhone: columns.value(row, ColAccountantPhone),
	}

	return obligation, cleared, ""
}

// ParseDueDate accepts an Excel serial day number or a date string in one
// of the ISO layouts. The time of day in a serial value is dropped.
func ParseDueDate(v string, date1904 bool) (civil.Date, error) {
	if v == "" {
		return civil.Date{}, errors.New("empty date")
	}

	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial < 1 {
			return civil.Date{}, fmt.Errorf("serial date %v out of range", serial)
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return civil.Date{}, err
		}
		return civil.DateOf(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), nil
		}
	}

	return civil.Date{}, fmt.Errorf("unrecognized date %q", v)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
