package telegram

import (
	"context"
	"log"
	"sync"
	"time"

	"smas/api/internal/session"
	"smas/api/internal/types"
)

const defaultAnalysisTimeout = 120 * time.Second

// runAnalysis выполняется в своей горутине; на чат — не больше одной (см. running).
func (r *Router) runAnalysis(chatID int64, s *session.Session, req types.Request) {
	defer r.running.Delete(chatID)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	var once sync.Once
	res, err := r.Solver.Solve(ctx, req, func(n int) {
		// статус меняется один раз, текст по кускам не показываем
		once.Do(func() {
			s.Receiving()
			r.show(chatID, true)
		})
	})
	if err != nil {
		log.Printf("analysis chat=%d subject=%s failed after %s: %v", chatID, req.Subject, time.Since(start), err)
		s.Fail(err)
	} else {
		log.Printf("analysis chat=%d subject=%s done in %s", chatID, req.Subject, time.Since(start))
		s.Complete(res)
	}
	r.show(chatID, true)
}
