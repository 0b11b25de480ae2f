package diary

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"smas/api/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS diary_entries (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	owner          TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	subject        TEXT NOT NULL,
	agent          TEXT NOT NULL,
	input          TEXT NOT NULL,
	image          TEXT NOT NULL DEFAULT '',
	result_content TEXT NOT NULL,
	steps          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_diary_entries_owner ON diary_entries(owner, seq);
`

// SQLiteStore — локальный файл; используется, когда DATABASE_URL не задан.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite: один писатель
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Diary(owner string) Repository { return &sqliteDiary{db: s.DB, owner: owner} }
func (s *SQLiteStore) Close() error                  { return s.DB.Close() }

type sqliteDiary struct {
	db    *sql.DB
	owner string
}

func (d *sqliteDiary) Append(ctx context.Context, e Entry) error {
	e = prepare(e)
	const q = `
insert into diary_entries(id, owner, created_at, subject, agent, input, image, result_content, steps)
values (?,?,?,?,?,?,?,?,?)`
	_, err := d.db.ExecContext(ctx, q, e.ID, d.owner, e.CreatedAt.UnixNano(),
		string(e.Subject), string(e.Agent), e.Input, e.Image, e.ResultContent, e.Steps)
	return err
}

func (d *sqliteDiary) List(ctx context.Context) ([]Entry, error) {
	const q = `
select id, created_at, subject, agent, input, image, result_content, steps
from diary_entries
where owner = ?
order by seq`
	rows, err := d.db.QueryContext(ctx, q, d.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e              Entry
			ts             int64
			subject, agent string
		)
		if err := rows.Scan(&e.ID, &ts, &subject, &agent, &e.Input, &e.Image, &e.ResultContent, &e.Steps); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, ts)
		e.Subject = types.Subject(subject)
		e.Agent = types.Agent(agent)
		out = append(out, e)
	}
	return out, rows.Err()
}
