package handler

import (
	"net/http"

	t "github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	// Write the response using the writeJSON() helper. If this happens to return an
	// error then log it, and fall back to sending the client an empty response with a
	// 500 Internal Server Error status code.
	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// failedValidationResponse returns 422 UnprocessableEntity status.
// Why we choose 422 status?
// The HTTP 422 Unprocessable Content client error response status code indicates
// that the server understood the content type of the request content, and the
// syntax of the request content was correct, but it was unable to process the
// contained instructions.
// Clients that receive a 422 response should expect that repeating the request
// without modification will fail with the same error.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

func badRequestResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusBadRequest, message)
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}

// domainErrorResponse picks the status via GetCode and, for insufficient
// balance, attaches the amounts the mobile app needs to show a top-up prompt.
func domainErrorResponse(w http.ResponseWriter, err error) {
	if ib, ok := t.IsInsufficientBalance(err); ok {
		env := envelope{
			"error": "insufficient balance",
			"details": envelope{
				"required":           ib.Required,
				"available":          ib.Available,
				"shortfall":          ib.Shortfall(),
				"commission_percent": ib.CommissionPercent,
			},
		}
		if werr := writeJSON(w, http.StatusPaymentRequired, env, nil); werr != nil {
			w.WriteHeader(500)
		}
		return
	}

	errorResponse(w, GetCode(err), err.Error())
}
