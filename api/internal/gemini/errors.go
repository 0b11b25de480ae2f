package gemini

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is empty")
	ErrEmptyResponse = errors.New("gemini: empty response")
	ErrBadImage      = errors.New("gemini: bad image")
)

// UpstreamError — провайдер ответил не-2xx; статус и тело пробрасываются клиенту.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini %d: %s", e.Status, e.Body)
}
