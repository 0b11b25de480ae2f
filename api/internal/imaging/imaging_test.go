package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"smas/api/internal/util"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodedSize(t *testing.T, dataURI string) (int, int) {
	t.Helper()
	if !strings.HasPrefix(dataURI, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix: %.40s", dataURI)
	}
	raw, _, err := util.DecodeBase64MaybeDataURL(dataURI)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestNormalizeWide(t *testing.T) {
	in := util.MakeDataURL("image/png", pngBytes(t, 2048, 1536))

	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != 1024 || h != 768 {
		t.Fatalf("size = %dx%d, want 1024x768", w, h)
	}
}

func TestNormalizeSmallKeepsSize(t *testing.T) {
	out, err := Normalize(util.MakeDataURL("image/png", pngBytes(t, 300, 200)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if w, h := decodedSize(t, out); w != 300 || h != 200 {
		t.Fatalf("size = %dx%d, want 300x200", w, h)
	}
}

func TestNormalizeBareBase64(t *testing.T) {
	raw := pngBytes(t, 1030, 10)
	out, err := Normalize(util.MakeDataURL("", raw)[len("data:;base64,"):])
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if w, h := decodedSize(t, out); w != 1024 || h != 10 {
		t.Fatalf("size = %dx%d", w, h)
	}
}

func TestNormalizeMalformed(t *testing.T) {
	cases := map[string]string{
		"not base64": "data:image/png;base64,@@@@",
		"not image":  util.MakeDataURL("image/png", []byte("definitely not a picture")),
		"empty":      "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Normalize(in); !errors.Is(err, ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
		})
	}
}

func TestTargetSize(t *testing.T) {
	tests := []struct{ w, h, ww, wh int }{
		{1024, 50, 1024, 50},
		{4000, 3000, 1024, 768},
		{3000, 1, 1024, 1},
		{800, 6000, 800, 6000},
	}
	for _, tt := range tests {
		if w, h := TargetSize(tt.w, tt.h); w != tt.ww || h != tt.wh {
			t.Errorf("TargetSize(%d,%d) = %d,%d want %d,%d", tt.w, tt.h, w, h, tt.ww, tt.wh)
		}
	}
}
