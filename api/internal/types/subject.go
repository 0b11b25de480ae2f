package types

import (
	"fmt"
	"strings"
)

// Subject — учебный предмет, выбирается на экране HOME.
type Subject string

const (
	SubjectMath      Subject = "Toán"
	SubjectPhysics   Subject = "Vật lý"
	SubjectChemistry Subject = "Hóa học"
	// SubjectDiary is not a real subject: selecting it opens the diary.
	SubjectDiary Subject = "Nhật ký"
)

// Subjects in the order they appear on the home screen.
var Subjects = []Subject{SubjectMath, SubjectPhysics, SubjectChemistry, SubjectDiary}

var subjectAliases = map[string]Subject{
	"toán":      SubjectMath,
	"math":      SubjectMath,
	"vật lý":    SubjectPhysics,
	"physics":   SubjectPhysics,
	"hóa học":   SubjectChemistry,
	"chemistry": SubjectChemistry,
	"nhật ký":   SubjectDiary,
	"diary":     SubjectDiary,
}

// ParseSubject accepts the Vietnamese label or its English alias.
func ParseSubject(s string) (Subject, error) {
	if sub, ok := subjectAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sub, nil
	}
	return "", fmt.Errorf("unknown subject %q", s)
}

func (s Subject) IsDiary() bool { return s == SubjectDiary }

// Agent is a display tab over one result document.
type Agent string

const (
	AgentSpeed      Agent = "SPEED"
	AgentSocratic   Agent = "SOCRATIC"
	AgentPerplexity Agent = "PERPLEXITY"
)

var Agents = []Agent{AgentSpeed, AgentSocratic, AgentPerplexity}

func ParseAgent(s string) (Agent, error) {
	for _, a := range Agents {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown agent %q", s)
}
