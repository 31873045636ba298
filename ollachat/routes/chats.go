package routes

import (
	"net/http"

	"ollachat/ollachat/controllers"

	"github.com/go-chi/chi/v5"
)

func ChatsRoutes(ctrl *controllers.ChatsController, files *controllers.FilesController) chi.Router {
	r := chi.NewRouter()

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		chats, err := ctrl.ListChats(r.Context())
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"chats": chats}, http.StatusOK, nil
	}))

	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		var req struct {
			Title string `json:"title"`
			Model string `json:"model"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		chat, err := ctrl.CreateChat(r.Context(), req.Title, req.Model)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"chat": chat}, http.StatusCreated, nil
	}))

	r.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.GetChat(r.Context(), id)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Put("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		var req struct {
			Title string `json:"title"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		chat, err := ctrl.UpdateChatTitle(r.Context(), id, req.Title)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"chat": chat}, http.StatusOK, nil
	}))

	r.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		if err := ctrl.DeleteChat(r.Context(), id); err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"message": "Chat deleted successfully"}, http.StatusOK, nil
	}))

	// files attached to a chat
	r.Get("/{id}/files", handleJSON(func(r *http.Request) (any, int, error) {
		chatID, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		list, err := files.ListFiles(r.Context(), chatID)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "files": list}, http.StatusOK, nil
	}))

	r.Get("/{id}/files/stats", handleJSON(func(r *http.Request) (any, int, error) {
		chatID, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		stats, err := files.Stats(r.Context(), chatID)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "stats": stats}, http.StatusOK, nil
	}))

	r.Post("/{id}/files/search", handleJSON(func(r *http.Request) (any, int, error) {
		chatID, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		var req struct {
			Query string `json:"query"`
			TopK  int    `json:"topK"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		results, err := files.SearchAll(r.Context(), chatID, req.Query, req.TopK)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "results": results, "query": req.Query}, http.StatusOK, nil
	}))

	return r
}
