package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

const maxBodyBytes = 1_048_576

// ErrorResponse writes a standard JSON error envelope including the request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	ErrorResponseWithDetail(w, r, status, message, "")
}

// ErrorResponseWithDetail writes an error envelope that also carries the raw
// cause text in the "error" key when detail is not empty.
func ErrorResponseWithDetail(w http.ResponseWriter, r *http.Request, status int, message, detail string) {
	resp := map[string]any{
		"success":    false,
		"message":    message,
		"request_id": middleware.GetReqID(r.Context()),
	}
	if detail != "" {
		resp["error"] = detail
	}
	WriteJSONResponse(w, r, status, resp)
}

// StatusFromError maps an error class to its HTTP status.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage extracts the client-facing part of a classified error, that is
// the text after "<class>: ". Unclassified errors yield fallback.
func ClientMessage(err error, fallback string) string {
	for _, class := range []error{types.ErrValidation, types.ErrConflict, types.ErrUnauthenticated, types.ErrNotFound} {
		if !errors.Is(err, class) {
			continue
		}
		msg := err.Error()
		if i := strings.Index(msg, class.Error()+": "); i >= 0 {
			return msg[i+len(class.Error())+2:]
		}
		return fallback
	}
	return fallback
}

// WriteError classifies err and writes the matching envelope. Server errors
// are logged and answered with fallback only.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), fallback, slog.Any("error", err))
	}
	ErrorResponse(w, r, status, ClientMessage(err, fallback))
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely. Unknown keys are
// ignored, frontends send extra form state alongside the declared fields.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst)
}

// DecodeJSONDocument decodes a free-form JSON object, used for template content.
func DecodeJSONDocument(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var doc map[string]any
	if err := decode(w, r, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return doc, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBodyBytes))

	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}
