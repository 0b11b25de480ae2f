package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smas/api/internal/diary"
	"smas/api/internal/session"
	"smas/api/internal/types"
)

// Solver — путь до прокси: запрос → собранный результат. onChunk получает только счётчик.
type Solver interface {
	Solve(ctx context.Context, req types.Request, onChunk func(n int)) (types.Result, error)
}

type Router struct {
	Bot      *tgbotapi.BotAPI
	Sessions *session.Manager
	Solver   Solver
	Diary    diary.Store

	// Timeout ограничивает один анализ целиком.
	Timeout time.Duration

	running sync.Map // chatID -> struct{}
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.Sessions.Reset(cid)
		r.show(cid, false)
	case "diary":
		r.Sessions.Get(cid).SelectSubject(types.SubjectDiary)
		r.show(cid, false)
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Lệnh không hợp lệ. Dùng /start")
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}

	// фото
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}

	// текст — это условие задачи
	if txt := strings.TrimSpace(upd.Message.Text); txt != "" {
		s := r.Sessions.Get(cid)
		if err := s.SetText(txt); err != nil {
			r.send(cid, "Hãy chọn môn học trước: /start")
			return
		}
		r.show(cid, false)
	}
}

// show рисует текущий экран: edit=true правит сообщение с клавиатурой, иначе шлёт новое.
func (r *Router) show(chatID int64, edit bool) {
	s := r.Sessions.Get(chatID)
	text, kb := r.screen(chatID, s)

	if edit {
		if id := s.MessageID(); id != 0 {
			e := tgbotapi.NewEditMessageTextAndMarkup(chatID, id, text, kb)
			e.ParseMode = tgbotapi.ModeMarkdown
			_, err := r.Bot.Send(e)
			if err == nil || isNotModified(err) {
				return
			}
			log.Printf("edit message %d: %v", id, err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	sent, err := r.Bot.Send(msg)
	if err != nil {
		// битая разметка: повтор без Markdown
		log.Printf("send markdown: %v", err)
		msg.ParseMode = ""
		if sent, err = r.Bot.Send(msg); err != nil {
			log.Printf("send: %v", err)
			return
		}
	}
	s.SetMessageID(sent.MessageID)
}

func (r *Router) screen(chatID int64, s *session.Session) (string, tgbotapi.InlineKeyboardMarkup) {
	v := s.View()
	switch v.Screen {
	case session.ScreenInput:
		return renderInput(v), inputKeyboard()
	case session.ScreenAnalysis:
		return renderAnalysis(v), analysisKeyboard(v)
	case session.ScreenDiary:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		entries, err := r.Diary.Diary(owner(chatID)).List(ctx)
		if err != nil {
			log.Printf("diary list chat=%d: %v", chatID, err)
			return "⚠️ Lỗi: " + esc(err.Error()), diaryKeyboard()
		}
		return renderDiary(entries), diaryKeyboard()
	}
	return renderHome(), homeKeyboard()
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("⚠️ Lỗi: %v", r.redact(err)))
}

// redact вырезает токен бота: ошибки tgbotapi и http содержат полный URL запроса.
func (r *Router) redact(err error) string {
	msg := err.Error()
	if r.Bot != nil && r.Bot.Token != "" {
		msg = strings.ReplaceAll(msg, r.Bot.Token, "<token>")
	}
	return msg
}

func owner(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
