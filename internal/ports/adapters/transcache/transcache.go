package transcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/vmasub/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	lang       TEXT NOT NULL,
	model      TEXT NOT NULL,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (lang, model, source)
)`

// Store persists translated lines so re-running a video does not pay for
// the same translations twice.
type Store struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns cached translations for the given sources. Misses are
// absent from the map.
func (s *Store) Lookup(ctx context.Context, lang, model string, sources []string) (map[string]string, error) {
	out := make(map[string]string, len(sources))
	stmt, err := s.db.PrepareContext(ctx, "SELECT target FROM translations WHERE lang = ? AND model = ? AND source = ?")
	if err != nil {
		return nil, fmt.Errorf("prepare lookup: %w", err)
	}
	defer stmt.Close()

	for _, src := range sources {
		if _, seen := out[src]; seen {
			continue
		}
		var target string
		err := stmt.QueryRowContext(ctx, lang, model, src).Scan(&target)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup translation: %w", err)
		}
		out[src] = target
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, lang, model string, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO translations (lang, model, source, target) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT (lang, model, source) DO UPDATE SET target = excluded.target")
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for src, dst := range pairs {
		if _, err := stmt.ExecContext(ctx, lang, model, src, dst); err != nil {
			return fmt.Errorf("save translation: %w", err)
		}
	}
	return tx.Commit()
}

// Translator serves lines from the store and forwards only misses to next.
// Empty translations are not stored so they are retried on the next run.
type Translator struct {
	next  ports.Translator
	store *Store
	lang  string
	model string
	logf  func(format string, args ...any)
}

func Wrap(next ports.Translator, store *Store, lang, model string, logf func(string, ...any)) *Translator {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Translator{next: next, store: store, lang: lang, model: model, logf: logf}
}

func (t *Translator) Translate(ctx context.Context, texts []string) ([]string, error) {
	keys := make([]string, len(texts))
	for i, s := range texts {
		keys[i] = strings.TrimSpace(s)
	}

	hits, err := t.store.Lookup(ctx, t.lang, t.model, keys)
	if err != nil {
		return nil, err
	}

	var misses []string
	queued := make(map[string]struct{})
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := hits[k]; ok {
			continue
		}
		if _, ok := queued[k]; ok {
			continue
		}
		queued[k] = struct{}{}
		misses = append(misses, k)
	}
	t.logf("translation cache: %d cached, %d to translate", len(hits), len(misses))

	if len(misses) > 0 {
		got, err := t.next.Translate(ctx, misses)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]string, len(misses))
		for i, src := range misses {
			if i < len(got) && strings.TrimSpace(got[i]) != "" {
				fresh[src] = got[i]
				hits[src] = got[i]
			}
		}
		if err := t.store.Save(ctx, t.lang, t.model, fresh); err != nil {
			return nil, err
		}
	}

	out := make([]string, len(texts))
	for i, k := range keys {
		out[i] = hits[k]
	}
	return out, nil
}
