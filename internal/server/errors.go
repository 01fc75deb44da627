package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetmetrics/printledger/internal/collector"
	devicedomain "github.com/fleetmetrics/printledger/internal/device/domain"
	ledgerdomain "github.com/fleetmetrics/printledger/internal/ledger/domain"
	"github.com/fleetmetrics/printledger/internal/probe"
	workcenterdomain "github.com/fleetmetrics/printledger/internal/workcenter/domain"
)

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// mapError translates domain sentinels into transport semantics.
func mapError(err error) (int, errorBody) {
	switch {
	case errors.Is(err, devicedomain.ErrNotFound):
		return http.StatusNotFound, errorBody{Type: "not_found", Code: "device_not_found", Message: err.Error()}
	case errors.Is(err, devicedomain.ErrInvalidMerge):
		return http.StatusBadRequest, errorBody{Type: "invalid_argument", Code: "invalid_merge", Message: err.Error()}
	case errors.Is(err, ledgerdomain.ErrInvalidEntry):
		return http.StatusBadRequest, errorBody{Type: "invalid_argument", Code: "invalid_ledger_entry", Message: err.Error()}
	case errors.Is(err, workcenterdomain.ErrInvalidInventory):
		return http.StatusBadRequest, errorBody{Type: "invalid_argument", Code: "invalid_inventory", Message: err.Error()}
	case errors.Is(err, probe.ErrProbeFailed):
		return http.StatusBadGateway, errorBody{Type: "upstream", Code: "probe_failed", Message: err.Error()}
	case errors.Is(err, collector.ErrRunInProgress):
		return http.StatusConflict, errorBody{Type: "conflict", Code: "run_in_progress", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Type: "internal", Code: "internal", Message: "internal error"}
	}
}

// ClassifyError feeds the request logger's error fields.
func ClassifyError(err error) (string, string) {
	_, body := mapError(err)
	return body.Type, body.Code
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := mapError(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
