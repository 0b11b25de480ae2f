package telegram

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smas/api/internal/imaging"
	"smas/api/internal/util"
)

const photoFailedText = "⚠️ Lỗi: không tải được ảnh, hãy gửi lại."

// maxPhotoBytes — больше Telegram и так не отдаёт ботам через getFile.
const maxPhotoBytes = 20 << 20

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	s := r.Sessions.Get(cid)

	ph := msg.Photo[len(msg.Photo)-1]
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		log.Printf("getFile chat=%d: %v", cid, r.redact(err))
		r.send(cid, photoFailedText)
		return
	}
	imgBytes, err := download(file.Link(r.Bot.Token))
	if err != nil {
		log.Printf("download photo chat=%d: %v", cid, r.redact(err))
		r.send(cid, photoFailedText)
		return
	}

	out, err := imaging.NormalizeBytes(imgBytes)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if err := s.SetImage(util.MakeDataURL("image/jpeg", out)); err != nil {
		r.send(cid, "Hãy chọn môn học trước: /start")
		return
	}
	if msg.Caption != "" {
		_ = s.SetText(msg.Caption)
	}
	r.show(cid, false)
}

// download: ссылка на файл содержит токен бота, поэтому в ошибку она не попадает.
func download(link string) ([]byte, error) {
	resp, err := httpClient().Get(link)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
