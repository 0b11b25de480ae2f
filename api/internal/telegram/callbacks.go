package telegram

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smas/api/internal/session"
	"smas/api/internal/types"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	data := cb.Data
	s := r.Sessions.Get(cid)
	// кнопки живут на последнем сообщении экрана
	s.SetMessageID(cb.Message.MessageID)

	ack := ""
	switch {
	case strings.HasPrefix(data, cbSubject):
		sub, err := types.ParseSubject(strings.TrimPrefix(data, cbSubject))
		if err != nil {
			break
		}
		s.SelectSubject(sub)

	case strings.HasPrefix(data, cbTab):
		if a, err := types.ParseAgent(strings.TrimPrefix(data, cbTab)); err == nil {
			s.SelectAgent(a)
		}

	case strings.HasPrefix(data, cbQuiz):
		i, err := strconv.Atoi(strings.TrimPrefix(data, cbQuiz))
		if err != nil {
			break
		}
		if ok, err := s.AnswerQuiz(i); err == nil {
			if ok {
				ack = "✅"
			} else {
				ack = "❌"
			}
		}

	case data == cbRun:
		ack = r.startAnalysis(cid, s)

	case data == cbSave:
		ack = r.save(cid, s)

	case data == cbBack, data == cbHome:
		s.Back()
	}

	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, ack)) // ack
	r.show(cid, true)
}

func (r *Router) save(chatID int64, s *session.Session) string {
	e, err := s.DiaryEntry(time.Now())
	if err != nil {
		return "Chưa có nội dung để lưu"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Diary.Diary(owner(chatID)).Append(ctx, e); err != nil {
		log.Printf("diary append chat=%d: %v", chatID, err)
		return "⚠️ Lỗi: " + err.Error()
	}
	return savedText
}

// startAnalysis возвращает текст подсказки для callback (пусто — всё в порядке).
func (r *Router) startAnalysis(chatID int64, s *session.Session) string {
	if _, busy := r.running.LoadOrStore(chatID, struct{}{}); busy {
		return "Đang phân tích, vui lòng đợi..."
	}
	req, err := s.Run()
	if err != nil {
		r.running.Delete(chatID)
		if errors.Is(err, session.ErrNoInput) {
			return session.NoInputMessage
		}
		return err.Error()
	}
	go r.runAnalysis(chatID, s, req)
	return ""
}
