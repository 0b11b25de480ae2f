package util

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var ErrEmptyPayload = errors.New("empty base64 payload")

// SniffMimeHTTP определяет MIME по сигнатуре; неизвестное — application/octet-stream.
func SniffMimeHTTP(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8:
		return "image/jpeg"
	case len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A:
		return "image/png"
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return "image/webp"
	case len(b) >= 6 && (string(b[0:6]) == "GIF87a" || string(b[0:6]) == "GIF89a"):
		return "image/gif"
	}
	return "application/octet-stream"
}

func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SplitDataURL returns the MIME hint and the base64 payload of a data URI.
// A bare base64 string comes back with an empty MIME.
func SplitDataURL(s string) (mime, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "data:") {
		return "", s
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", ""
	}
	meta := s[len("data:"):idx] // "<mime>;base64"
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		meta = meta[:semi]
	}
	return meta, s[idx+1:]
}

// DecodeBase64MaybeDataURL декодирует base64. Если это data:URI, вернёт MIME из префикса.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	hintMIME, payload := SplitDataURL(s)
	if payload == "" {
		return nil, "", ErrEmptyPayload
	}
	// стандартная база64, затем URL-safe и без паддинга
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(payload); err == nil {
			return b, hintMIME, nil
		}
	}
	_, err := base64.StdEncoding.DecodeString(payload)
	return nil, "", err
}

// PickMIME: явный MIME, затем из data:URI, затем по байтам, иначе image/jpeg.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		if m := SniffMimeHTTP(data); m != "application/octet-stream" {
			return m
		}
		if m := http.DetectContentType(data); strings.HasPrefix(m, "image/") {
			return m
		}
	}
	return "image/jpeg"
}
