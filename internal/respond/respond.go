// Package respond writes JSON responses and maps typed errors onto them.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
)

type ErrorResponse struct {
	Message       string `json:"message"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type ValidationErrorResponse struct {
	Message       string   `json:"message"`
	Errors        []string `json:"errors"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

const internalMessage = "Internal server error"

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes err using its apperr kind. Internal errors are logged and
// reported with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *logrus.Entry, err error) {
	status := apperr.HTTPStatus(err)
	body := ErrorResponse{CorrelationID: logging.CorrelationID(r.Context())}

	e, ok := apperr.As(err)
	if ok && e.Kind != apperr.KindInternal {
		body.Message = e.Message
		body.Error = e.Reason
	} else {
		body.Message = internalMessage
		logging.FromContext(r.Context(), log).WithError(err).Error("request failed")
	}

	JSON(w, status, body)
}

// Validation writes a 400 listing every failed rule.
func Validation(w http.ResponseWriter, r *http.Request, errs []string) {
	JSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Message:       "Validation error",
		Errors:        errs,
		CorrelationID: logging.CorrelationID(r.Context()),
	})
}

// Status writes a bare message with the given status.
func Status(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, status, ErrorResponse{
		Message:       msg,
		CorrelationID: logging.CorrelationID(r.Context()),
	})
}
