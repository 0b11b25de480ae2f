package telegram

import (
	"strings"

	"smas/api/internal/diary"
	"smas/api/internal/session"
	"smas/api/internal/util"
)

const (
	maxMessage      = 3900
	diaryInputRunes = 50
	diaryShown      = 10
	diaryDateLayout = "15:04:05 2/1/2006"

	placeholderText = "Đang chuẩn bị nội dung..."
	waitingText     = "Đang chờ đề bài..."
	emptyDiaryText  = "Chưa có dữ liệu nhật ký"
	savedText       = "✅ Đã lưu"
)

func renderHome() string {
	return "*SM-AS*\nChọn môn học:"
}

func renderInput(v session.View) string {
	var b strings.Builder
	b.WriteString("*" + esc(string(v.Subject)) + "*\n")
	b.WriteString("Gửi ảnh đề bài hoặc nhập đề bài bằng tin nhắn, sau đó bấm 🚀.\n\n")
	switch {
	case v.HasImage && v.Text != "":
		b.WriteString("🖼️ Đã có ảnh\n✍️ " + esc(v.Text))
	case v.HasImage:
		b.WriteString("🖼️ Đã có ảnh")
	case v.Text != "":
		b.WriteString("✍️ " + esc(v.Text))
	default:
		b.WriteString(waitingText)
	}
	return b.String()
}

func renderAnalysis(v session.View) string {
	var b strings.Builder
	b.WriteString("*" + esc(string(v.Subject)) + "* · " + agentLabels[v.Agent] + "\n\n")

	if v.Loading {
		b.WriteString("⏳ " + v.Status)
		return b.String()
	}

	content := v.Content
	if strings.TrimSpace(content) == "" {
		content = placeholderText
	}
	b.WriteString(markdown(content))

	if v.CasioSteps != "" {
		b.WriteString("\n\n*Casio 580VN X:*\n")
		b.WriteString(esc(v.CasioSteps))
	}

	if v.Result != nil && v.Result.Quiz.Valid() {
		q := v.Result.Quiz
		b.WriteString("\n\n*Tự luyện tập:*\n")
		b.WriteString(esc(q.Question))
		for i, o := range q.Options {
			b.WriteString("\n" + quizLetter(i) + ". " + esc(o))
		}
		if v.QuizAnswer >= 0 {
			if v.QuizAnswer == q.CorrectIndex {
				b.WriteString("\n\n✅ Chính xác!")
			} else {
				b.WriteString("\n\n❌ Chưa đúng, đáp án: " + quizLetter(q.CorrectIndex))
			}
			b.WriteString("\n💡 Giải thích: " + esc(q.Explanation))
		}
	}
	return clip(b.String())
}

// renderDiary: сначала новые, не больше diaryShown записей.
func renderDiary(entries []diary.Entry) string {
	if len(entries) == 0 {
		return "*Nhật ký*\n\n" + emptyDiaryText
	}
	newest := diary.Newest(entries)
	if len(newest) > diaryShown {
		newest = newest[:diaryShown]
	}
	var b strings.Builder
	b.WriteString("*Nhật ký*")
	for _, e := range newest {
		b.WriteString("\n\n")
		b.WriteString("🗓 " + e.CreatedAt.Format(diaryDateLayout) + " - " + esc(string(e.Subject)) + "\n")
		b.WriteString("*Đề bài:* " + esc(util.Truncate(e.Input, diaryInputRunes)) + "\n")
		b.WriteString(markdown(e.ResultContent))
	}
	return clip(b.String())
}

func clip(s string) string {
	if r := []rune(s); len(r) > maxMessage {
		return string(r[:maxMessage]) + "…"
	}
	return s
}
