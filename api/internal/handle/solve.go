package handle

import (
	"context"
	"net/http"
)

// Solve — POST /api/gemini/solve: буферизованный вариант, отдаёт JSON-текст модели без ```-ограждений.
func (h *Handle) Solve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	text, err := h.gen.Generate(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
