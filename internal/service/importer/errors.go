package importer

import "errors"

var (
	ErrUnreadableWorkbook = errors.New("workbook could not be read")
	ErrEmptyWorkbook      = errors.New("workbook has no data rows")
	ErrMissingColumns     = errors.New("workbook is missing required columns")
)
