package routes

import (
	"context"
	"errors"
	"net/http"

	"ollachat/ollachat/controllers"
	"ollachat/ollachat/utils/logging"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatRoutes serves the one-shot chat endpoint.
func ChatRoutes(ctrl *controllers.MessagesController) chi.Router {
	r := chi.NewRouter()
	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		var req controllers.ChatRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		resp, err := ctrl.Chat(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return resp, http.StatusOK, nil
	}))
	return r
}

func StatusRoutes(ctrl *controllers.MessagesController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Status(r.Context()), http.StatusOK, nil
	}))
	return r
}

func MessageRoutes(ctrl *controllers.MessagesController, originPatterns []string) chi.Router {
	r := chi.NewRouter()

	// POST /messages/send : store the user's message
	r.Post("/send", handleJSON(func(r *http.Request) (any, int, error) {
		var req controllers.SendMessageRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		resp, err := ctrl.SendMessage(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return resp, http.StatusOK, nil
	}))

	// POST /messages/generate-response : answer the chat history
	r.Post("/generate-response", handleJSON(func(r *http.Request) (any, int, error) {
		var req controllers.GenerateRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		resp, err := ctrl.GenerateResponse(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return resp, http.StatusOK, nil
	}))

	// GET /messages/stream : websocket, first frame is the StreamRequest
	r.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		var req controllers.StreamRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			writeStreamError(ctx, conn, "invalid request")
			conn.Close(websocket.StatusUnsupportedData, "invalid request")
			return
		}

		msg, err := ctrl.StreamResponse(ctx, req, func(ev controllers.StreamEvent) error {
			return wsjson.Write(ctx, conn, ev)
		})
		if err != nil {
			logging.AppLogger.Warn("stream ended with error", zap.String("chat_id", req.ChatID), zap.Error(err))
			writeStreamError(ctx, conn, err.Error())
			status := websocket.StatusInternalError
			if errors.Is(err, controllers.ErrBadRequest) || errors.Is(err, controllers.ErrChatNotFound) {
				status = websocket.StatusPolicyViolation
			}
			conn.Close(status, "stream error")
			return
		}
		wsjson.Write(ctx, conn, controllers.StreamEvent{Type: "done", MessageID: msg.ID.String()})
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}

func writeStreamError(ctx context.Context, conn *websocket.Conn, msg string) {
	_ = wsjson.Write(ctx, conn, controllers.StreamEvent{Type: "error", Error: msg})
}
