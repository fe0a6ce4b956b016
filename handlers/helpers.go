package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/chess-tournament/metrics"
	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

const (
	defaultPageSize = 20
	maxBodyBytes    = 1_048_576 // 1MB; PGN movetext fits comfortably
)

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBodyBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError
		var timeParseError *time.ParseError

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
		case errors.As(err, &timeParseError):
			return fmt.Errorf("body contains an invalid date or timestamp %q, expected YYYY-MM-DD or RFC 3339", timeParseError.Value)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// ErrorResponder turns service errors into JSON error responses. It logs
// server-side failures and counts rejected writes.
type ErrorResponder struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewErrorResponder(logger *slog.Logger, m *metrics.Metrics) *ErrorResponder {
	return &ErrorResponder{logger: logger, metrics: m}
}

func (e *ErrorResponder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		e.logger.Error("Failed to write error response",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (e *ErrorResponder) serverError(w http.ResponseWriter, r *http.Request, err error) {
	e.logger.Error("Request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	e.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (e *ErrorResponder) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	e.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (e *ErrorResponder) notFound(w http.ResponseWriter, r *http.Request) {
	e.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (e *ErrorResponder) unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	e.errorResponse(w, r, http.StatusUnauthorized, message)
}

// violation пишет нарушение целиком: kind, rule, field, message.
func (e *ErrorResponder) violation(w http.ResponseWriter, r *http.Request, v *models.ViolationError) {
	if e.metrics != nil {
		e.metrics.RejectedWrite(string(v.Kind), v.Rule)
	}
	status := http.StatusConflict
	if v.Kind == models.KindConstraint {
		status = http.StatusUnprocessableEntity
	}
	msg := v.Message
	if msg == "" {
		msg = v.Error()
	}
	e.errorResponse(w, r, status, &models.ViolationError{Kind: v.Kind, Rule: v.Rule, Field: v.Field, Message: msg})
}

// mapServiceError преобразует ошибки сервисного слоя в HTTP-ответы.
func (e *ErrorResponder) mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := models.AsViolation(err); ok {
		e.violation(w, r, v)
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		e.notFound(w, r)

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAuthenticationFailed):
		e.unauthorized(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation):
		e.errorResponse(w, r, http.StatusForbidden, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort):
		e.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrLastAdmin),
		errors.Is(err, services.ErrNothingToExport):
		e.errorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrArchiveDisabled):
		e.errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		e.serverError(w, r, err)
	}
}

func (e *ErrorResponder) respond(w http.ResponseWriter, r *http.Request, status int, data jsonResponse) {
	if err := writeJSON(w, status, data, nil); err != nil {
		e.serverError(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int64, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// queryInt returns nil when the parameter is absent.
func queryInt(r *http.Request, name string) (*int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s query parameter", name)
	}
	return &v, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("invalid %s query parameter", name)
	}
	return &v, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s query parameter", name)
	}
	return v, nil
}

// pagination reads limit and offset; limit defaults to defaultPageSize.
func pagination(r *http.Request) (limit, offset int, err error) {
	l, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	o, err := queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit = defaultPageSize
	if l != nil {
		if *l <= 0 {
			return 0, 0, errors.New("invalid limit query parameter")
		}
		limit = *l
	}
	if o != nil {
		if *o < 0 {
			return 0, 0, errors.New("invalid offset query parameter")
		}
		offset = *o
	}
	return limit, offset, nil
}
