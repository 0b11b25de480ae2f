// Package imaging уменьшает фото перед отправкой в модель: ширина не больше MaxWidth, JPEG с качеством Quality.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"smas/api/internal/util"
)

const (
	MaxWidth = 1024
	Quality  = 60
)

var ErrDecode = errors.New("imaging: cannot decode image")

// Normalize принимает data:URI или голый base64 и возвращает data:image/jpeg;base64,...
func Normalize(dataURI string) (string, error) {
	raw, _, err := util.DecodeBase64MaybeDataURL(dataURI)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: bad base64", ErrDecode)
	}
	out, err := NormalizeBytes(raw)
	if err != nil {
		return "", err
	}
	return util.MakeDataURL("image/jpeg", out), nil
}

// NormalizeBytes декодирует JPEG/PNG/GIF/WebP, сжимает по ширине и кодирует в JPEG.
func NormalizeBytes(b []byte) ([]byte, error) {
	img, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	sb := img.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	w, h := TargetSize(sb.Dx(), sb.Dy())

	// JPEG без альфы: прозрачное кладём на белый фон
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), img, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// TargetSize: ширина ограничена MaxWidth, высота масштабируется пропорционально (минимум 1).
func TargetSize(w, h int) (int, int) {
	if w <= MaxWidth {
		return w, h
	}
	nh := int(math.Round(float64(h) * MaxWidth / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return MaxWidth, nh
}

func decode(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err == nil {
		return img, nil
	}
	// повтор по сигнатуре: image.Decode иногда не узнаёт формат
	switch util.SniffMimeHTTP(b) {
	case "image/jpeg":
		return jpeg.Decode(bytes.NewReader(b))
	case "image/png":
		return png.Decode(bytes.NewReader(b))
	}
	return nil, err
}
