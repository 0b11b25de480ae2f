package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"smas/api/internal/types"
)

func mathResult() types.Result {
	return types.Result{
		FinalAnswer: "4",
		Steps:       []string{"Cộng 2 và 2", "Được 4"},
		Quiz: types.Quiz{
			Question:     "1+1?",
			Options:      []string{"1", "2", "3", "4"},
			CorrectIndex: 1,
			Explanation:  "basic",
		},
	}
}

func TestHappyPath(t *testing.T) {
	s := New()
	if s.Screen() != ScreenHome {
		t.Fatalf("initial screen = %s", s.Screen())
	}

	s.SelectSubject(types.SubjectMath)
	if s.Screen() != ScreenInput {
		t.Fatalf("screen = %s, want INPUT", s.Screen())
	}
	if err := s.SetText("2+2=?"); err != nil {
		t.Fatal(err)
	}

	req, err := s.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if req.Subject != types.SubjectMath || req.Text != "2+2=?" || req.Image != "" {
		t.Fatalf("req = %+v", req)
	}
	v := s.View()
	if v.Screen != ScreenAnalysis || !v.Loading || v.Status != StatusCalling {
		t.Fatalf("view = %+v", v)
	}

	s.Receiving()
	if v := s.View(); v.Status != StatusReceiving {
		t.Fatalf("status = %q", v.Status)
	}

	s.Complete(mathResult())
	v = s.View()
	if v.Loading || v.Content != "4" || v.Agent != types.AgentSpeed {
		t.Fatalf("view = %+v", v)
	}
	if v.CasioSteps != "Cộng 2 và 2\n\nĐược 4" {
		t.Fatalf("casio = %q", v.CasioSteps)
	}

	if got := s.TabContent(types.AgentSocratic); got != "### Phân tích mấu chốt:\nCộng 2 và 2\n\nĐược 4" {
		t.Fatalf("socratic = %q", got)
	}
	if got := s.TabContent(types.AgentPerplexity); got != PerplexityText {
		t.Fatalf("perplexity = %q", got)
	}

	ok, err := s.AnswerQuiz(1)
	if err != nil || !ok {
		t.Fatalf("answer 1: ok=%v err=%v", ok, err)
	}
	ok, _ = s.AnswerQuiz(3)
	if ok {
		t.Fatal("answer 3 must be wrong")
	}
	if v := s.View(); v.QuizAnswer != 3 {
		t.Fatalf("quiz answer = %d", v.QuizAnswer)
	}

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e, err := s.DiaryEntry(now)
	if err != nil {
		t.Fatalf("diary entry: %v", err)
	}
	if e.Subject != types.SubjectMath || e.Agent != types.AgentSpeed || e.Input != "2+2=?" ||
		e.ResultContent != "4" || !e.CreatedAt.Equal(now) || e.Steps == "" {
		t.Fatalf("entry = %+v", e)
	}

	s.SelectAgent(types.AgentSocratic)
	e, _ = s.DiaryEntry(now)
	if e.Agent != types.AgentSocratic || e.ResultContent != s.TabContent(types.AgentSocratic) {
		t.Fatalf("entry from socratic tab = %+v", e)
	}
	if v := s.View(); v.CasioSteps != "" {
		t.Fatal("casio block is SPEED-only")
	}
}

func TestRunWithoutInput(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectPhysics)
	if _, err := s.Run(); !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v", err)
	}
	if s.Screen() != ScreenInput {
		t.Fatalf("screen = %s", s.Screen())
	}
	_ = s.SetText("   ")
	if _, err := s.Run(); !errors.Is(err, ErrNoInput) {
		t.Fatalf("blank text: err = %v", err)
	}
	_ = s.SetImage("data:image/jpeg;base64,AAAA")
	req, err := s.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if req.Image == "" {
		t.Fatal("image lost")
	}
	if _, err := s.Run(); !errors.Is(err, ErrBusy) {
		t.Fatalf("second run: %v", err)
	}
}

func TestFailure(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectChemistry)
	_ = s.SetText("H2O?")
	_, _ = s.Run()
	s.Fail(errors.New("AI returned an invalid format"))

	v := s.View()
	if v.Loading || !v.Failed {
		t.Fatalf("view = %+v", v)
	}
	if got := s.TabContent(types.AgentSpeed); got != "⚠️ Lỗi: AI returned an invalid format" {
		t.Fatalf("speed = %q", got)
	}
	if got := s.TabContent(types.AgentSocratic); got != "" {
		t.Fatalf("socratic = %q", got)
	}
	if _, err := s.DiaryEntry(time.Now()); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("save after failure: %v", err)
	}
	if _, err := s.AnswerQuiz(0); !errors.Is(err, ErrNoQuiz) {
		t.Fatalf("quiz after failure: %v", err)
	}
}

func TestStaleCompletionIgnored(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectMath)
	_ = s.SetText("x")
	_, _ = s.Run()
	s.SelectSubject(types.SubjectPhysics)
	s.Complete(mathResult())
	if v := s.View(); v.Result != nil || v.Screen != ScreenInput {
		t.Fatalf("stale result applied: %+v", v)
	}
}

func TestBackDuringLoadingDropsCompletion(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectMath)
	_ = s.SetText("2+2")
	if _, err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if got := s.Back(); got != ScreenInput {
		t.Fatalf("back = %s", got)
	}
	s.Complete(mathResult())
	s.Fail(errors.New("late"))

	v := s.View()
	if v.Loading || v.Result != nil || v.Failed || v.Status != "" {
		t.Fatalf("late completion applied: %+v", v)
	}
	if v.Text != "2+2" {
		t.Fatalf("input lost: %q", v.Text)
	}
	if _, err := s.Run(); err != nil {
		t.Fatalf("rerun: %v", err)
	}
}

func TestImageOnlyEntry(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectMath)
	_ = s.SetImage("data:image/jpeg;base64,AAAA")
	_, _ = s.Run()
	s.Complete(mathResult())
	e, err := s.DiaryEntry(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if e.Input != ImageOnlyInput || e.Image == "" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestNavigation(t *testing.T) {
	s := New()
	if err := s.SetText("x"); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("SetText on HOME: %v", err)
	}

	s.SelectSubject(types.SubjectDiary)
	if s.Screen() != ScreenDiary {
		t.Fatalf("screen = %s", s.Screen())
	}
	if got := s.Back(); got != ScreenHome {
		t.Fatalf("back from diary = %s", got)
	}

	s.SelectSubject(types.SubjectMath)
	_ = s.SetText("1")
	_, _ = s.Run()
	if got := s.Back(); got != ScreenInput {
		t.Fatalf("back from analysis = %s", got)
	}
	if got := s.Back(); got != ScreenHome {
		t.Fatalf("back from input = %s", got)
	}
	if got := s.Back(); got != ScreenHome {
		t.Fatalf("back from home = %s", got)
	}
}

func TestSelectSubjectResets(t *testing.T) {
	s := New()
	s.SelectSubject(types.SubjectMath)
	_ = s.SetText("2+2")
	_, _ = s.Run()
	s.Complete(mathResult())
	s.SelectAgent(types.AgentPerplexity)

	s.SelectSubject(types.SubjectPhysics)
	v := s.View()
	if v.Text != "" || v.HasImage || v.Result != nil || v.Agent != types.AgentSpeed || v.QuizAnswer != -1 {
		t.Fatalf("not reset: %+v", v)
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	got := make([]*Session, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = m.Get(42)
		}(i)
	}
	wg.Wait()
	for _, s := range got[1:] {
		if s != got[0] {
			t.Fatal("one chat must map to one session")
		}
	}
	if m.Get(43) == got[0] {
		t.Fatal("different chats share a session")
	}
	m.Reset(42)
	if m.Get(42) == got[0] {
		t.Fatal("reset did not drop the session")
	}
}
