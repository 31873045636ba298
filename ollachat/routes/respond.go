package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ollachat/ollachat/controllers"
	"ollachat/ollachat/middlewares"
	"ollachat/ollachat/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errorKinds = []struct {
	err      error
	status   int
	detailed bool
}{
	{controllers.ErrBadRequest, http.StatusBadRequest, false},
	{controllers.ErrUnsupportedFile, http.StatusBadRequest, false},
	{controllers.ErrChatNotFound, http.StatusNotFound, false},
	{controllers.ErrMessageNotFound, http.StatusNotFound, false},
	{controllers.ErrFileNotFound, http.StatusNotFound, false},
	{controllers.ErrFileNotProcessed, http.StatusNotFound, false},
	{controllers.ErrFunctionNotFound, http.StatusNotFound, false},
	{controllers.ErrFileTooLarge, http.StatusRequestEntityTooLarge, false},
	{controllers.ErrModelUnavailable, http.StatusServiceUnavailable, false},
	{controllers.ErrGenerationFailed, http.StatusServiceUnavailable, true},
	{controllers.ErrTranscriptionFail, http.StatusInternalServerError, true},
}

func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, status, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError turns controller errors into the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.err) {
			continue
		}
		body := errorResponse{Error: err.Error()}
		if k.detailed {
			body = errorResponse{Error: k.err.Error(), Details: err.Error()}
		}
		if k.status >= 500 {
			logging.ErrorLogger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("subject", middlewares.Subject(r.Context())),
				zap.Error(err),
			)
		}
		writeJSON(w, k.status, body)
		return
	}

	logging.ErrorLogger.Error("unexpected error",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("subject", middlewares.Subject(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
	})
}

// fieldErrors holds the validation message for body fields of the wrong type.
var fieldErrors = map[string]string{
	"messages": "Messages array is required",
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return controllers.ErrFileTooLarge
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := fieldErrors[typeErr.Field]; ok {
			return controllers.BadRequest(msg)
		}
		return controllers.BadRequest("Invalid value for " + typeErr.Field)
	}
	return controllers.BadRequest("Invalid JSON body: " + err.Error())
}

func urlID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, controllers.BadRequest("Invalid " + param)
	}
	return id, nil
}
