package handle

import (
	"context"
	"io"
	"log"
	"net/http"
)

// Gemini — POST /api/gemini: тело провайдера уходит клиенту байт в байт, flush после каждого чтения.
func (h *Handle) Gemini(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	body, err := h.streamer.Stream(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, 32<<10)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				log.Printf("relay: client gone: %v", werr)
				return
			}
			_ = rc.Flush()
		}
		if rerr == io.EOF {
			return
		}
		if rerr != nil {
			// заголовки уже отправлены: остаётся только оборвать поток
			log.Printf("relay: upstream read: %v", rerr)
			return
		}
	}
}
