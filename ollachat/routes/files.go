package routes

import (
	"errors"
	"net/http"

	"ollachat/ollachat/controllers"

	"github.com/go-chi/chi/v5"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

func FileRoutes(ctrl *controllers.FilesController, maxBytes int64) chi.Router {
	r := chi.NewRouter()

	r.With(limitBody(maxBytes+multipartOverhead)).Post("/upload", handleJSON(func(r *http.Request) (any, int, error) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, http.StatusRequestEntityTooLarge, controllers.ErrFileTooLarge
			}
			return nil, http.StatusBadRequest, controllers.BadRequest("No file uploaded")
		}
		defer r.MultipartForm.RemoveAll()

		f, header, err := r.FormFile("file")
		if err != nil {
			return nil, http.StatusBadRequest, controllers.BadRequest("No file uploaded")
		}
		defer f.Close()

		info, err := ctrl.Upload(r.Context(), controllers.UploadInput{
			ChatID:       r.FormValue("chatId"),
			OriginalName: header.Filename,
			MimeType:     header.Header.Get("Content-Type"),
			Size:         header.Size,
			Body:         f,
		})
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "file": info}, http.StatusOK, nil
	}))

	r.Post("/{id}/process", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.Process(r.Context(), id)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/{id}/search", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
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
		chunks, err := ctrl.Search(r.Context(), id, req.Query, req.TopK)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "chunks": chunks, "query": req.Query}, http.StatusOK, nil
	}))

	r.Put("/{id}/metadata", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		var req controllers.MetadataUpdate
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		file, err := ctrl.UpdateMetadata(r.Context(), id, req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "file": file}, http.StatusOK, nil
	}))

	r.Get("/{id}/content", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		content, err := ctrl.Content(r.Context(), id)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{
			"success":  true,
			"content":  content.Content,
			"chunks":   content.Chunks,
			"metadata": content.Metadata,
		}, http.StatusOK, nil
	}))

	r.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := urlID(r, "id")
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		if err := ctrl.DeleteFile(r.Context(), id); err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return map[string]any{"success": true, "message": "File deleted successfully"}, http.StatusOK, nil
	}))

	return r
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
