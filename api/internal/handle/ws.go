package handle

import (
	"context"
	"log"
	"net/http"

	"smas/api/internal/stream"
	"smas/api/internal/types"
)

// GeminiWS — GET /api/gemini/ws: клиент шлёт один запрос, сервер сам собирает поток
// и присылает {"status":"receiving"} на каждый фрагмент, затем {"result":...} или {"error":...}.
func (h *Handle) GeminiWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	var req types.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(map[string]string{"error": "bad json: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	body, err := h.streamer.Stream(ctx, req)
	if err != nil {
		_, payload := errorStatus(err)
		_ = conn.WriteJSON(payload)
		return
	}
	defer body.Close()

	ra := &stream.Reassembler{
		MaxBytes: h.opts.MaxStreamBytes,
		OnChunk: func(n int) {
			_ = conn.WriteJSON(map[string]any{"status": "receiving", "chunks": n})
		},
	}
	res, err := ra.Read(ctx, body)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	_ = conn.WriteJSON(map[string]any{"result": res})
}
