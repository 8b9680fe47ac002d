package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	t "github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/validator"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// Use http.MaxBytesReader() to limit the size of the request body to 1MB.
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	// Decode the request body to the destination.
	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		// Add a new maxBytesError variable.
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		// If the JSON contains a field which cannot be mapped to the target destination
		// then Decode() will now return an error message in the format "json: unknown
		// field "<name>"". We check for this, extract the field name from the error,
		// and interpolate it into our custom error message. Note that there's an open
		// issue at https://github.com/golang/go/issues/29035 regarding turning this
		// into a distinct error type in the future.
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		// Use the errors.As() function to check whether the error has the type
		// *http.MaxBytesError. If it does, then it means the request body exceeded our
		// size limit of 1MB and we return a clear error message.
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	// Call Decode() again, using a pointer to an empty anonymous struct as the
	// destination. If the request body only contained a single JSON value this will
	// return an io.EOF error. So if we get anything else, we know that there is
	// additional data in the request body and we return our own custom error message.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// GetCode maps domain errors onto HTTP status codes.
func GetCode(err error) int {
	switch {
	case IsOneOf(err,
		t.ErrInvalidPhoneNumber,
		t.ErrInvalidOrderStatus,
		t.ErrInvalidAmount,
		t.ErrNoPhotosProvided,
		t.ErrRejectionReasonEmpty,
		t.ErrDriverNoLocation,
	):
		return http.StatusBadRequest
	case IsOneOf(err, t.ErrInvalidCredentials, t.ErrInvalidSMSCode):
		return http.StatusUnauthorized
	case IsOneOf(err, t.ErrDriverInactive, t.ErrTaxiparkInactive):
		return http.StatusForbidden
	case IsOneOf(err,
		t.ErrNotFound,
		t.ErrDriverNotFound,
		t.ErrClientNotFound,
		t.ErrOrderNotFound,
		t.ErrOrderDriverMismatch,
		t.ErrTaxiparkNotFound,
		t.ErrDispatcherNotFound,
		t.ErrVerificationNotFound,
		t.ErrNoDriverAvailable,
	):
		return http.StatusNotFound
	case IsOneOf(err,
		t.ErrDriverRegistered,
		t.ErrClientRegistered,
		t.ErrCarNumberExists,
		t.ErrTaxiparkExists,
		t.ErrDispatcherLoginExists,
		t.ErrOrderStatusConflict,
		t.ErrVerificationProcessed,
		t.ErrVerificationPending,
		t.ErrCommissionAlreadyCharged,
	):
		return http.StatusConflict
	default:
		if _, ok := t.IsInsufficientBalance(err); ok {
			return http.StatusPaymentRequired
		}
		return http.StatusInternalServerError
	}
}

func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// --- query string helpers ---

func readString(qs url.Values, key string, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return s
}

func readInt(qs url.Values, key string, defaultValue int, v *validator.Validator) int {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}

	return i
}

// readStatuses parses a comma-separated "status" query parameter into
// order statuses, validating each against the known vocabulary.
func readStatuses(qs url.Values, v *validator.Validator) []t.OrderStatus {
	raw := qs.Get("status")
	if raw == "" {
		return nil
	}

	var statuses []t.OrderStatus
	for _, part := range strings.Split(raw, ",") {
		s := t.OrderStatus(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		v.Check(validator.PermittedValue(s,
			t.OrderReceived, t.OrderAccepted, t.OrderNavigatingToA, t.OrderArrivedAtA,
			t.OrderNavigatingToB, t.OrderCompleted, t.OrderCancelled, t.OrderRejectedByDriver,
		), "status", fmt.Sprintf("unknown order status %q", s))
		statuses = append(statuses, s)
	}
	return statuses
}

// readID parses a positive int64 path segment.
func readID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}
