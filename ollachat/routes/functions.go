package routes

import (
	"net/http"

	"ollachat/ollachat/controllers"
	"ollachat/ollachat/services/functions"

	"github.com/go-chi/chi/v5"
)

func FunctionRoutes(ctrl *controllers.FunctionsController) chi.Router {
	r := chi.NewRouter()

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		return map[string]any{"success": true, "functions": ctrl.Schemas()}, http.StatusOK, nil
	}))

	r.Post("/execute", handleJSON(func(r *http.Request) (any, int, error) {
		var call functions.Call
		if err := decodeJSON(r, &call); err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.Execute(r.Context(), call)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/parse", handleJSON(func(r *http.Request) (any, int, error) {
		var req struct {
			Text   string `json:"text"`
			ChatID string `json:"chatId"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.ParseAndExecute(r.Context(), req.Text, req.ChatID)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	return r
}
