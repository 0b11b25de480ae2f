package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smas/api/internal/session"
	"smas/api/internal/types"
)

// callback data
const (
	cbSubject = "subj:"
	cbTab     = "tab:"
	cbQuiz    = "quiz:"
	cbRun     = "run"
	cbBack    = "back"
	cbSave    = "save"
	cbHome    = "home"
)

var subjectIcons = map[types.Subject]string{
	types.SubjectMath:      "📐",
	types.SubjectPhysics:   "⚛️",
	types.SubjectChemistry: "🧪",
	types.SubjectDiary:     "📔",
}

var agentLabels = map[types.Agent]string{
	types.AgentSpeed:      "⚡ SPEED",
	types.AgentSocratic:   "❓ SOCRATIC",
	types.AgentPerplexity: "🔍 PERPLEXITY",
}

// Сетка предметов 2×2, как на главном экране.
func homeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, s := range types.Subjects {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(subjectIcons[s]+" "+string(s), cbSubject+string(s)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func inputKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚀 Phân tích", cbRun)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", cbBack)),
	)
}

func analysisKeyboard(v session.View) tgbotapi.InlineKeyboardMarkup {
	back := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", cbBack))
	if v.Loading {
		return tgbotapi.NewInlineKeyboardMarkup(back)
	}

	var tabs []tgbotapi.InlineKeyboardButton
	for _, a := range types.Agents {
		label := agentLabels[a]
		if a == v.Agent {
			label = "• " + label
		}
		tabs = append(tabs, tgbotapi.NewInlineKeyboardButtonData(label, cbTab+string(a)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{tabs}

	if v.Result != nil && v.Result.Quiz.Valid() {
		var opts []tgbotapi.InlineKeyboardButton
		for i := range v.Result.Quiz.Options {
			label := quizLetter(i)
			if v.QuizAnswer == i {
				if i == v.Result.Quiz.CorrectIndex {
					label = "✅ " + label
				} else {
					label = "❌ " + label
				}
			}
			opts = append(opts, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbQuiz, i)))
		}
		rows = append(rows, opts)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💾 Lưu", cbSave),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", cbBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func diaryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 SM-AS", cbHome)),
	)
}

// quizLetter: 0 → A, 1 → B ...
func quizLetter(i int) string {
	return string(rune('A' + i))
}

// лёгкое экранирование для Markdown
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}

// markdown переводит ответ модели в Telegram Markdown: заголовки "###" → жирный, остальное экранируется.
// Формулы LaTeX остаются как есть.
func markdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		if strings.HasPrefix(trimmed, "#") {
			title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if title != "" {
				lines[i] = "*" + esc(title) + "*"
				continue
			}
		}
		lines[i] = esc(ln)
	}
	return strings.Join(lines, "\n")
}
