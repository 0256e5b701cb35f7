package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/dispatch"
	"github.com/KasumiMercury/primind-tax-reminder/internal/service/report"
)

type Dispatcher interface {
	Run(ctx context.Context, req dispatch.RunRequest) (*dispatch.Result, error)
}

type DispatchHandler struct {
	dispatcher Dispatcher
}

func NewDispatchHandler(dispatcher Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher}
}

type dispatchRequest struct {
	Simulate      *bool   `json:"simulate"`
	Date          *string `json:"date"`
	LookaheadDays []int   `json:"lookahead_days" binding:"omitempty,dive,min=0"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// HeldSince and HeldForSeconds describe the run that holds the guard.
	HeldSince      *time.Time `json:"held_since,omitempty"`
	HeldForSeconds int64      `json:"held_for_seconds,omitempty"`
}

// HandleCron serves the scheduler trigger. Overrides come from the query string.
func (h *DispatchHandler) HandleCron(c *gin.Context) {
	var req dispatch.RunRequest

	if v := c.Query("simulate"); v != "" {
		simulate, err := strconv.ParseBool(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", "simulate must be a boolean")
			return
		}
		req.Simulate = &simulate
	}

	if v := c.Query("date"); v != "" {
		date, err := civil.ParseDate(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", "invalid date format, expected YYYY-MM-DD")
			return
		}
		req.Date = &date
	}

	if v := c.Query("days"); v != "" {
		days, err := parseDays(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		req.LookaheadDays = days
	}

	h.run(c, req)
}

// HandleDispatch serves manual runs. An empty body runs with the defaults.
func (h *DispatchHandler) HandleDispatch(c *gin.Context) {
	var body dispatchRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", bindErrorMessage(err))
		return
	}

	req := dispatch.RunRequest{
		Simulate:      body.Simulate,
		LookaheadDays: body.LookaheadDays,
	}
	if body.Date != nil && *body.Date != "" {
		date, err := civil.ParseDate(*body.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", "invalid date format, expected YYYY-MM-DD")
			return
		}
		req.Date = &date
	}

	h.run(c, req)
}

func (h *DispatchHandler) run(c *gin.Context, req dispatch.RunRequest) {
	ctx := c.Request.Context()

	result, err := h.dispatcher.Run(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLookahead):
			respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, domain.ErrRunInProgress):
			respondRunInProgress(c, err)
		default:
			slog.ErrorContext(ctx, "dispatch run failed",
				slog.String("error", err.Error()),
			)
			respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, report.BuildCallerResponse(result.Summary).WithReporting(result.ReportingError))
}

func parseDays(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid days value %q", p)
		}
		days = append(days, d)
	}
	return days, nil
}

func respondRunInProgress(c *gin.Context, err error) {
	resp := errorResponse{Error: "run_in_progress", Message: err.Error()}

	var inProgress *domain.RunInProgressError
	if errors.As(err, &inProgress) && !inProgress.HeldSince.IsZero() {
		heldSince := inProgress.HeldSince
		resp.HeldSince = &heldSince
		resp.HeldForSeconds = int64(time.Since(heldSince).Seconds())
	}

	c.JSON(http.StatusConflict, resp)
}

func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return "lookahead_days must contain non-negative integers"
	}
	return "invalid request body"
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Error: code, Message: message})
}
