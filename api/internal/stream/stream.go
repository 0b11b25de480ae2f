// Package stream собирает SSE-ответ Gemini в один JSON-документ.
//
// Отдельные data-строки могут не парситься (обрыв на границе чтения и т.п.) — такие строки
// молча пропускаются. Итоговый текст проверяется один раз, после конца потока.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"smas/api/internal/gemini"
	"smas/api/internal/types"
)

const DataPrefix = "data: "

// DefaultMaxBytes — предел накопленного текста.
const DefaultMaxBytes = 4 << 20

// lineSlack — запас на SSE-обёртку вокруг фрагмента; длиннее limit+lineSlack строка не бывает.
const lineSlack = 64 << 10

var (
	ErrInvalidFormat = errors.New("AI returned an invalid format")
	ErrTooLarge      = errors.New("AI response exceeds the size limit")
)

// Fragment extracts the incremental text carried by one SSE line.
func Fragment(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(line, DataPrefix))
	if raw == "" {
		return "", false
	}
	var c gemini.Chunk
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return "", false
	}
	return c.Text()
}

// Accumulate — толерантный аккумулятор в стиле append: возвращает buf с фрагментом строки,
// а битую или чужую строку пропускает, никогда не падая.
func Accumulate(buf []byte, line string) []byte {
	if frag, ok := Fragment(line); ok {
		return append(buf, frag...)
	}
	return buf
}

// Decode parses the full concatenated text as one result document.
func Decode(text string) (types.Result, error) {
	var doc types.Document
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return types.Result{}, ErrInvalidFormat
	}
	if doc.Solution == nil {
		return types.Result{}, ErrInvalidFormat
	}
	return doc.Result(), nil
}

type Reassembler struct {
	// MaxBytes ограничивает накопленный текст; <= 0 — DefaultMaxBytes.
	MaxBytes int
	// OnChunk вызывается после каждого принятого фрагмента (только счётчик, без текста).
	OnChunk func(n int)
}

// Read consumes r to EOF and decodes the accumulated text.
// No partial result is returned on any error.
func (ra *Reassembler) Read(ctx context.Context, r io.Reader) (types.Result, error) {
	text, err := ra.Collect(ctx, r)
	if err != nil {
		return types.Result{}, err
	}
	return Decode(text)
}

// Collect consumes r to EOF and returns the concatenated fragments without decoding them.
func (ra *Reassembler) Collect(ctx context.Context, r io.Reader) (string, error) {
	limit := ra.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	// Scanner сам склеивает строку, разорванную между чтениями, и не даёт ей расти без предела.
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), limit+lineSlack)

	var (
		buf []byte
		n   int
	)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		before := len(buf)
		if buf = Accumulate(buf, sc.Text()); len(buf) == before {
			continue
		}
		if len(buf) > limit {
			return "", ErrTooLarge
		}
		n++
		if ra.OnChunk != nil {
			ra.OnChunk(n)
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", ErrTooLarge
		}
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Read is a shorthand for a Reassembler with default limits.
func Read(ctx context.Context, r io.Reader) (types.Result, error) {
	return (&Reassembler{}).Read(ctx, r)
}
