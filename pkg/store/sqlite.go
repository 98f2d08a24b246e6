package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

const schema = `
create table if not exists memes(
	id          text primary key,
	prompt      text not null default '',
	news_url    text not null default '',
	news_title  text not null default '',
	news_source text not null default '',
	template    text not null default '',
	caption     text not null default '{}',
	image_url   text not null default '',
	width       integer not null default 0,
	height      integer not null default 0,
	trends      text not null default '[]',
	votes       integer not null default 0,
	created_at  integer not null
);
create index if not exists memes_created_ix on memes (created_at desc);
create index if not exists memes_votes_ix on memes (votes desc, created_at desc);`

const columns = `id, prompt, news_url, news_title, news_source, template, caption,
	image_url, width, height, trends, votes, created_at`

// SQLiteStore keeps memes in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open sqlite %s", path)
	}
	// One connection: every :memory: connection would be its own database,
	// and SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)
	if err := NewSQLiteStore(db).init(); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an open database. Call [OpenSQLite] to also create
// the schema.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create schema")
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, m *Meme) error {
	if err := prepare(m); err != nil {
		return err
	}
	caption, _ := json.Marshal(m.Caption)
	trends, _ := json.Marshal(m.Trends)
	_, err := s.db.ExecContext(ctx, `insert into memes(`+columns+`)
		values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Prompt, m.NewsURL, m.NewsTitle, m.NewsSource, m.Template, string(caption),
		m.ImageURL, m.Width, m.Height, string(trends), m.Votes, m.CreatedAt.UnixNano())
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save meme")
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Meme, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	order := "created_at desc, id"
	if opts.Sort == SortTop {
		order = "votes desc, created_at desc, id"
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+columns+` from memes order by `+order+` limit ? offset ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list memes")
	}
	defer rows.Close()

	out := make([]Meme, 0)
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list memes")
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Meme, error) {
	row := s.db.QueryRowContext(ctx, `select `+columns+` from memes where id = ?`, id)
	m, err := scanMeme(row)
	if errors.Is(err, errors.ErrCodeMemeNotFound) {
		return nil, notFound(id)
	}
	return m, err
}

func (s *SQLiteStore) Vote(ctx context.Context, id string, delta int) (int, error) {
	var votes int
	err := s.db.QueryRowContext(ctx,
		`update memes set votes = votes + ? where id = ? returning votes`, delta, id).Scan(&votes)
	if err == sql.ErrNoRows {
		return 0, notFound(id)
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "vote")
	}
	return votes, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(*) from memes`).Scan(&n); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "count memes")
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeme(r scanner) (*Meme, error) {
	var (
		m               Meme
		caption, trends string
		created         int64
	)
	err := r.Scan(&m.ID, &m.Prompt, &m.NewsURL, &m.NewsTitle, &m.NewsSource, &m.Template,
		&caption, &m.ImageURL, &m.Width, &m.Height, &trends, &m.Votes, &created)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeMemeNotFound, "meme not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan meme")
	}
	_ = json.Unmarshal([]byte(caption), &m.Caption)
	_ = json.Unmarshal([]byte(trends), &m.Trends)
	m.CreatedAt = time.Unix(0, created).UTC()
	return &m, nil
}
