package gemini

import (
	"strings"

	"smas/api/internal/types"
	"smas/api/internal/util"
)

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float32 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// Chunk — один элемент ответа generateContent / streamGenerateContent.
type Chunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Text returns candidates[0].content.parts[0].text.
func (c Chunk) Text() (string, bool) {
	if len(c.Candidates) == 0 || len(c.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	return c.Candidates[0].Content.Parts[0].Text, true
}

// decodeImage returns nil data when the request carries no image.
func decodeImage(image string) ([]byte, string, error) {
	if strings.TrimSpace(image) == "" {
		return nil, "", nil
	}
	data, hint, err := util.DecodeBase64MaybeDataURL(image)
	if err != nil || len(data) == 0 {
		return nil, "", ErrBadImage
	}
	return data, util.PickMIME("", hint, data), nil
}

func buildRequest(req types.Request) (generateRequest, error) {
	parts := []part{{Text: BuildPrompt(req.Subject, req.Text)}}

	img, mime, err := decodeImage(req.Image)
	if err != nil {
		return generateRequest{}, err
	}
	if img != nil {
		_, payload := util.SplitDataURL(req.Image)
		parts = append(parts, part{InlineData: &inlineData{MimeType: mime, Data: payload}})
	}

	return generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      Temperature,
		},
	}, nil
}
