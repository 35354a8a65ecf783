package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"legaleagle.app/api/internal/core"
	"legaleagle.app/api/internal/entitlement"
)

type errorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Status: "error", Detail: detail})
}

// errorStatus maps service errors to a status code and a client-facing
// detail. Unknown errors become 500 with the given fallback prefix.
func errorStatus(err error, fallback string) (int, string) {
	var (
		verr   *core.ValidationError
		denied *entitlement.DeniedError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.As(err, &denied):
		return http.StatusForbidden, denied.Error()
	case errors.Is(err, core.ErrChatNotFound):
		return http.StatusNotFound, "Chat not found"
	case errors.Is(err, core.ErrDocumentNotFound):
		return http.StatusNotFound, "Document not found"
	case errors.Is(err, core.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment order not found"
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusBadRequest, "Invalid payment signature"
	case errors.Is(err, core.ErrPaymentAlreadyProcessed):
		return http.StatusConflict, "Payment order already processed"
	}
	return http.StatusInternalServerError, fmt.Sprintf("%s: %v", fallback, err)
}

// validationDetail flattens validator errors into one sentence.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gte", "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "lte", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
