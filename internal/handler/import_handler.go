package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-tax-reminder/internal/service/importer"
)

const importFormField = "file"

type Importer interface {
	Import(ctx context.Context, r io.Reader) (*importer.Result, error)
}

type ImportHandler struct {
	importer Importer
}

func NewImportHandler(imp Importer) *ImportHandler {
	return &ImportHandler{importer: imp}
}

type importResponse struct {
	Message string `json:"message"`
	*importer.Result
}

// HandleImport loads obligations from a multipart xlsx upload in the "file" field.
func (h *ImportHandler) HandleImport(c *gin.Context) {
	ctx := c.Request.Context()

	header, err := c.FormFile(importFormField)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "no file uploaded")
		return
	}

	file, err := header.Open()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open uploaded file",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to read uploaded file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	result, err := h.importer.Import(ctx, file)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrUnreadableWorkbook),
			errors.Is(err, importer.ErrEmptyWorkbook),
			errors.Is(err, importer.ErrMissingColumns):
			respondError(c, http.StatusBadRequest, "invalid_workbook", err.Error())
		default:
			slog.ErrorContext(ctx, "obligation import failed",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
		}
		return
	}

	slog.InfoContext(ctx, "obligations imported",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.Int("imported", result.Imported),
		slog.Int("failed", len(result.Failed)),
	)

	c.JSON(http.StatusOK, importResponse{Message: result.Message(), Result: result})
}
