package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"smas/api/internal/gemini"
	"smas/api/internal/stream"
	"smas/api/internal/types"
)

// MissingKeyMessage — фиксированный ответ, когда на сервере нет GEMINI_API_KEY.
const MissingKeyMessage = "Server thiếu API Key. Hãy kiểm tra biến môi trường GEMINI_API_KEY."

// Streamer отдаёт сырое SSE-тело провайдера.
type Streamer interface {
	Stream(ctx context.Context, req types.Request) (io.ReadCloser, error)
}

// Generator ждёт полный ответ и возвращает только сгенерированный текст.
type Generator interface {
	Generate(ctx context.Context, req types.Request) (string, error)
}

type Options struct {
	Timeout        time.Duration
	MaxStreamBytes int
}

type Handle struct {
	streamer Streamer
	gen      Generator
	opts     Options
	upgrader websocket.Upgrader
}

func New(s Streamer, g Generator, opts Options) *Handle {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Handle{
		streamer: s,
		gen:      g,
		opts:     opts,
		// по умолчанию gorilla пускает только same-origin; NewRouter подменяет проверку на список ALLOWED_ORIGINS
		upgrader: websocket.Upgrader{},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// deadline: REQUEST_TIMEOUT, либо X-Request-Timeout / ?timeoutSec= в секундах.
func (h *Handle) deadline(r *http.Request) time.Duration {
	d := h.opts.Timeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			d = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			d = time.Duration(v) * time.Second
		}
	}
	return d
}

// decodeRequest пишет ответ об ошибке сам и возвращает false.
func decodeRequest(w http.ResponseWriter, r *http.Request) (types.Request, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return types.Request{}, false
	}
	var req types.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return types.Request{}, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json: " + err.Error()})
		return types.Request{}, false
	}
	return req, true
}

// errorStatus раскладывает ошибку по таксономии: конфигурация, провайдер, формат, остальное.
func errorStatus(err error) (int, map[string]string) {
	var up *gemini.UpstreamError
	switch {
	case errors.Is(err, gemini.ErrMissingAPIKey):
		return http.StatusInternalServerError, map[string]string{"error": MissingKeyMessage}
	case errors.As(err, &up):
		return up.Status, map[string]string{"error": "upstream error", "details": up.Body}
	case errors.Is(err, gemini.ErrBadImage):
		return http.StatusBadRequest, map[string]string{"error": "bad image"}
	case errors.Is(err, gemini.ErrEmptyResponse):
		return http.StatusInternalServerError, map[string]string{"error": "AI did not respond"}
	case errors.Is(err, stream.ErrInvalidFormat), errors.Is(err, stream.ErrTooLarge):
		return http.StatusBadGateway, map[string]string{"error": err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, map[string]string{"error": "upstream timeout", "message": err.Error()}
	}
	return http.StatusInternalServerError, map[string]string{"error": "internal server error", "message": err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	code, body := errorStatus(err)
	if code >= 500 {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, code, body)
}
