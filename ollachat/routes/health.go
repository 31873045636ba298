package routes

import (
	"net/http"

	"ollachat/ollachat/controllers"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(ctrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Check(r.Context()), http.StatusOK, nil
	}))
	return r
}
