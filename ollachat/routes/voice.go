package routes

import (
	"net/http"

	"ollachat/ollachat/controllers"
	"ollachat/ollachat/services/voice"

	"github.com/go-chi/chi/v5"
)

func VoiceRoutes(ctrl *controllers.VoiceController) chi.Router {
	r := chi.NewRouter()
	r.Post("/transcribe", handleJSON(func(r *http.Request) (any, int, error) {
		var req voice.Request
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.Transcribe(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))
	r.Get("/status", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Status(r.Context()), http.StatusOK, nil
	}))
	return r
}
