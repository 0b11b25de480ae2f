package types

import (
	"encoding/json"
	"strings"
)

// Request is one analysis request (subject + optional image + optional text).
type Request struct {
	Subject Subject `json:"subject"`
	Image   string  `json:"image,omitempty"` // data URI or bare base64
	Text    string  `json:"voiceText,omitempty"`
}

// HasInput reports whether the request carries anything to solve.
func (r Request) HasInput() bool {
	return strings.TrimSpace(r.Image) != "" || strings.TrimSpace(r.Text) != ""
}

// UnmarshalJSON accepts both "voiceText" and the older "prompt" field.
func (r *Request) UnmarshalJSON(b []byte) error {
	var raw struct {
		Subject   string `json:"subject"`
		Image     string `json:"image"`
		VoiceText string `json:"voiceText"`
		Prompt    string `json:"prompt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Subject = Subject(strings.TrimSpace(raw.Subject))
	if sub, err := ParseSubject(raw.Subject); err == nil {
		r.Subject = sub
	}
	r.Image = raw.Image
	r.Text = raw.VoiceText
	if strings.TrimSpace(r.Text) == "" {
		r.Text = raw.Prompt
	}
	return nil
}
