package diary

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"smas/api/internal/types"
)

const postgresSchema = `
create table if not exists diary_entries (
	seq            bigserial primary key,
	id             uuid not null unique,
	owner          text not null,
	created_at     timestamptz not null default now(),
	subject        text not null,
	agent          text not null,
	input          text not null,
	image          text not null default '',
	result_content text not null,
	steps          text not null default ''
);
create index if not exists idx_diary_entries_owner on diary_entries(owner, seq);
`

// PostgresStore — серверный вариант, когда задан DATABASE_URL.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) Diary(owner string) Repository { return &postgresDiary{db: s.DB, owner: owner} }
func (s *PostgresStore) Close() error                  { return s.DB.Close() }

type postgresDiary struct {
	db    *sql.DB
	owner string
}

func (d *postgresDiary) Append(ctx context.Context, e Entry) error {
	e = prepare(e)
	const q = `
insert into diary_entries(id, owner, created_at, subject, agent, input, image, result_content, steps)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := d.db.ExecContext(ctx, q, e.ID, d.owner, e.CreatedAt,
		string(e.Subject), string(e.Agent), e.Input, e.Image, e.ResultContent, e.Steps)
	return err
}

func (d *postgresDiary) List(ctx context.Context) ([]Entry, error) {
	const q = `
select id::text, created_at, subject, agent, input, image, result_content, steps
from diary_entries
where owner = $1
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
			subject, agent string
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &subject, &agent, &e.Input, &e.Image, &e.ResultContent, &e.Steps); err != nil {
			return nil, err
		}
		e.Subject = types.Subject(subject)
		e.Agent = types.Agent(agent)
		out = append(out, e)
	}
	return out, rows.Err()
}
