package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"smas/api/internal/types"
	"smas/api/internal/util"
)

// Generator — буферизованный вариант через SDK: ждёт полный ответ и отдаёт только сгенерированный текст.
type Generator struct {
	APIKey string
	Model  string
	// BaseURL в том же виде, что у Client (с /v1beta); пусто — адрес SDK по умолчанию.
	BaseURL string
}

func NewGenerator(apiKey, model, baseURL string) *Generator {
	return &Generator{
		APIKey:  strings.TrimSpace(apiKey),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// clientOptions: REST-клиент SDK сам дописывает /v1beta к endpoint.
func (g *Generator) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithAPIKey(g.APIKey)}
	if g.BaseURL != "" && g.BaseURL != DefaultBaseURL {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(g.BaseURL, "/v1beta")))
	}
	return opts
}

func (g *Generator) Generate(ctx context.Context, req types.Request) (string, error) {
	if g.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	img, mime, err := decodeImage(req.Image)
	if err != nil {
		return "", err
	}

	cl, err := genai.NewClient(ctx, g.clientOptions()...)
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(Temperature),
		ResponseMIMEType: "application/json",
	}

	parts := []genai.Part{genai.Text(BuildPrompt(req.Subject, req.Text))}
	if img != nil {
		parts = append(parts, genai.Blob{MIMEType: mime, Data: img})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &UpstreamError{Status: gerr.Code, Body: gerr.Body}
		}
		return "", err
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", ErrEmptyResponse
	}
	return util.StripCodeFences(txt), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
