// Package session — состояние одного чата: экран, ввод, результат, вкладка, ответ на тест.
// Ровно один экран активен в каждый момент.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"smas/api/internal/diary"
	"smas/api/internal/types"
)

type Screen string

const (
	ScreenHome     Screen = "HOME"
	ScreenInput    Screen = "INPUT"
	ScreenAnalysis Screen = "ANALYSIS"
	ScreenDiary    Screen = "DIARY"
)

// Статусы загрузки.
const (
	StatusCalling   = "Đang gọi tổ chuyên gia..."
	StatusReceiving = "Chuyên gia đang phân tích..."
)

const (
	SocraticHeader  = "### Phân tích mấu chốt:\n"
	PerplexityText  = "Hệ thống đã chuẩn bị bài tập tương tự bên dưới."
	ErrorPrefix     = "⚠️ Lỗi: "
	ImageOnlyInput  = "Hình ảnh"
	NoInputMessage  = "Vui lòng nhập đề bài hoặc chụp ảnh!"
	noQuizAnswerYet = -1
)

var (
	ErrNoInput       = errors.New("session: no image and no text")
	ErrNothingToSave = errors.New("session: active tab is empty")
	ErrWrongScreen   = errors.New("session: action not allowed on this screen")
	ErrBusy          = errors.New("session: analysis already running")
	ErrNoQuiz        = errors.New("session: no quiz to answer")
)

type Session struct {
	mu sync.Mutex

	screen  Screen
	subject types.Subject
	image   string
	text    string

	agent   types.Agent
	loading bool
	status  string
	result  *types.Result
	failure string
	answer  int

	// сообщение бота, которое редактируется при смене экрана
	messageID int
}

func New() *Session {
	return &Session{screen: ScreenHome, agent: types.AgentSpeed, answer: noQuizAnswerYet}
}

// View — снимок состояния для отрисовки.
type View struct {
	Screen     Screen
	Subject    types.Subject
	HasImage   bool
	Text       string
	Agent      types.Agent
	Loading    bool
	Status     string
	Result     *types.Result
	Failed     bool
	Content    string // текст активной вкладки
	CasioSteps string // только для SPEED
	QuizAnswer int    // -1, пока не ответили
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Screen:     s.screen,
		Subject:    s.subject,
		HasImage:   s.image != "",
		Text:       s.text,
		Agent:      s.agent,
		Loading:    s.loading,
		Status:     s.status,
		Failed:     s.failure != "",
		Content:    s.tabContent(s.agent),
		QuizAnswer: s.answer,
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
		if s.agent == types.AgentSpeed {
			v.CasioSteps = s.casioSteps()
		}
	}
	return v
}

func (s *Session) MessageID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageID
}

func (s *Session) SetMessageID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageID = id
}

func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// SelectSubject сбрасывает ввод и результат. Дневник открывает экран DIARY.
func (s *Session) SelectSubject(sub types.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subject = sub
	s.image, s.text = "", ""
	s.resetResult()
	s.agent = types.AgentSpeed
	if sub.IsDiary() {
		s.screen = ScreenDiary
		return
	}
	s.screen = ScreenInput
}

func (s *Session) SetImage(dataURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenInput {
		return ErrWrongScreen
	}
	s.image = dataURI
	return nil
}

func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenInput {
		return ErrWrongScreen
	}
	s.text = strings.TrimSpace(text)
	return nil
}

// Run переводит INPUT → ANALYSIS и возвращает запрос для прокси.
func (s *Session) Run() (types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return types.Request{}, ErrBusy
	}
	if s.screen != ScreenInput {
		return types.Request{}, ErrWrongScreen
	}
	req := types.Request{Subject: s.subject, Image: s.image, Text: s.text}
	if !req.HasInput() {
		return types.Request{}, ErrNoInput
	}
	s.resetResult()
	s.screen = ScreenAnalysis
	s.loading = true
	s.status = StatusCalling
	return req, nil
}

// Receiving отмечает, что из потока пришёл первый фрагмент.
func (s *Session) Receiving() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		s.status = StatusReceiving
	}
}

// Complete и Fail ничего не делают, если загрузка уже сброшена (пользователь ушёл с экрана).
func (s *Session) Complete(res types.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		return
	}
	s.loading = false
	s.status = ""
	s.failure = ""
	s.result = &res
}

func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		return
	}
	s.loading = false
	s.status = ""
	s.result = nil
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.failure = msg
}

func (s *Session) SelectAgent(a types.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = a
}

// AnswerQuiz запоминает выбор и сообщает, верен ли он.
func (s *Session) AnswerQuiz(i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || !s.result.Quiz.Valid() {
		return false, ErrNoQuiz
	}
	if i < 0 || i >= len(s.result.Quiz.Options) {
		return false, ErrNoQuiz
	}
	s.answer = i
	return i == s.result.Quiz.CorrectIndex, nil
}

// Back: ANALYSIS → INPUT, всё остальное → HOME.
// Незаконченный анализ при этом бросается: поздний Complete/Fail его уже не применит.
func (s *Session) Back() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == ScreenAnalysis {
		s.screen = ScreenInput
		s.loading = false
		s.status = ""
	} else {
		s.screen = ScreenHome
	}
	return s.screen
}

// TabContent — текст вкладки по текущему результату.
func (s *Session) TabContent(a types.Agent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabContent(a)
}

func (s *Session) tabContent(a types.Agent) string {
	if s.failure != "" {
		if a == types.AgentSpeed {
			return ErrorPrefix + s.failure
		}
		return ""
	}
	if s.result == nil {
		return ""
	}
	switch a {
	case types.AgentSpeed:
		return s.result.FinalAnswer
	case types.AgentSocratic:
		return SocraticHeader + strings.Join(s.result.Steps, "\n\n")
	case types.AgentPerplexity:
		return PerplexityText
	}
	return ""
}

func (s *Session) casioSteps() string {
	if s.result == nil {
		return ""
	}
	return strings.Join(s.result.Steps, "\n\n")
}

// DiaryEntry собирает запись из активной вкладки.
func (s *Session) DiaryEntry(now time.Time) (diary.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subject == "" || s.subject.IsDiary() {
		return diary.Entry{}, ErrNothingToSave
	}
	content := s.tabContent(s.agent)
	if s.loading || s.failure != "" || strings.TrimSpace(content) == "" {
		return diary.Entry{}, ErrNothingToSave
	}
	input := s.text
	if input == "" {
		input = ImageOnlyInput
	}
	return diary.Entry{
		CreatedAt:     now,
		Subject:       s.subject,
		Agent:         s.agent,
		Input:         input,
		Image:         s.image,
		ResultContent: content,
		Steps:         s.casioSteps(),
	}, nil
}

func (s *Session) resetResult() {
	s.loading = false
	s.status = ""
	s.result = nil
	s.failure = ""
	s.answer = noQuizAnswerYet
}

// Manager — сессии по chat id.
type Manager struct {
	m sync.Map // int64 -> *Session
}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Get(chatID int64) *Session {
	if v, ok := m.m.Load(chatID); ok {
		return v.(*Session)
	}
	v, _ := m.m.LoadOrStore(chatID, New())
	return v.(*Session)
}

func (m *Manager) Reset(chatID int64) {
	m.m.Delete(chatID)
}
