package gemini

import (
	"fmt"
	"strings"

	"smas/api/internal/types"
)

// Temperature — низкая, чтобы ответ стабильно укладывался в JSON.
const Temperature float32 = 0.1

const resultSchema = `{
  "solution": {
    "ans": "Đáp án cuối cùng ngắn gọn",
    "steps": ["Bước giải 1...", "Bước giải 2...", "Bước giải 3..."]
  },
  "quiz": {
    "q": "Câu hỏi trắc nghiệm tương tự để luyện tập",
    "opt": ["Lựa chọn A", "Lựa chọn B", "Lựa chọn C", "Lựa chọn D"],
    "correct": 0,
    "reason": "Giải thích ngắn gọn lý do chọn đáp án đó"
  }
}`

// NoTextFallback подставляется, когда пользователь прислал только фото.
const NoTextFallback = "Vui lòng xem trong hình ảnh đính kèm"

// BuildPrompt собирает единый текстовый промпт: инструкция + предмет + схема + текст пользователя.
func BuildPrompt(subject types.Subject, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoTextFallback
	}
	var b strings.Builder
	b.WriteString("Bạn là chuyên gia giải bài tập của hệ thống SM-AS.\n")
	fmt.Fprintf(&b, "Môn học: %s.\n", subject)
	b.WriteString("Yêu cầu: Giải chi tiết đề bài này và trả về kết quả dưới dạng JSON thuần túy.\n\n")
	b.WriteString("CẤU TRÚC JSON CẦN TRẢ VỀ:\n")
	b.WriteString(resultSchema)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Nội dung bổ sung từ người dùng: %s.", text)
	return b.String()
}
