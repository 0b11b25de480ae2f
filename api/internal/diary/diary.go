// Package diary хранит сохранённые пользователем разборы. Записи только добавляются.
package diary

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smas/api/internal/types"
)

// Entry — одна сохранённая запись дневника.
type Entry struct {
	ID            string
	CreatedAt     time.Time
	Subject       types.Subject
	Agent         types.Agent
	Input         string
	Image         string // data URI, может быть пустым
	ResultContent string
	Steps         string // шаги для калькулятора, может быть пустым
}

// Repository — дневник одного владельца. List возвращает записи в порядке добавления.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
}

// Store выдаёт дневник по владельцу (в боте — chat id).
type Store interface {
	Diary(owner string) Repository
	Close() error
}

// prepare проставляет ID и время, если их нет.
func prepare(e Entry) Entry {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return e
}

// Newest returns a copy of entries in reverse (newest first) order.
func Newest(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// ---------------- Memory ----------------

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Diary(owner string) Repository { return &memoryDiary{s: s, owner: owner} }
func (s *MemoryStore) Close() error                  { return nil }

type memoryDiary struct {
	s     *MemoryStore
	owner string
}

func (d *memoryDiary) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e = prepare(e)
	d.s.mu.Lock()
	d.s.entries[d.owner] = append(d.s.entries[d.owner], e)
	d.s.mu.Unlock()
	return nil
}

func (d *memoryDiary) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	src := d.s.entries[d.owner]
	out := make([]Entry, len(src))
	copy(out, src)
	return out, nil
}
