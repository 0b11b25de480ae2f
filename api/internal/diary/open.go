package diary

import (
	"context"
	"log"
	"strings"
)

// Open выбирает хранилище: Postgres при непустом databaseURL, иначе файл SQLite.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if dsn := strings.TrimSpace(databaseURL); dsn != "" {
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Printf("diary: postgres")
		return s, nil
	}
	s, err := NewSQLiteStore(sqlitePath)
	if err != nil {
		return nil, err
	}
	log.Printf("diary: sqlite %s", sqlitePath)
	return s, nil
}
