package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"notetaker/internal/types"
)

type sqlDialect struct {
	name     string
	driver   string
	numbered bool
}

var (
	dialectSQLite   = sqlDialect{name: RepositoryBackendSQLite, driver: "sqlite3"}
	dialectPostgres = sqlDialect{name: RepositoryBackendPostgres, driver: "pgx", numbered: true}
)

// rebind rewrites ? placeholders into $n for dialects that number them.
func (d sqlDialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var sqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notes_record_idx ON notes (record_id)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		size BIGINT NOT NULL DEFAULT 0,
		checksum TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attachments_record_idx ON attachments (record_id)`,
}

type sqlRepository struct {
	db          *sql.DB
	dialect     sqlDialect
	notes       NoteStore
	attachments AttachmentStore
}

func NewSQLiteRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(dialectSQLite.driver, path+"?_busy_timeout=2000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	return newSQLRepository(db, dialectSQLite)
}

func NewPostgresRepository(dsn string) (Repository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open(dialectPostgres.driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return newSQLRepository(db, dialectPostgres)
}

func newSQLRepository(db *sql.DB, dialect sqlDialect) (Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stmt := range sqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %s schema: %w", dialect.name, classifySQLError(err))
		}
	}
	return &sqlRepository{
		db:          db,
		dialect:     dialect,
		notes:       &sqlNoteStore{db: db, dialect: dialect},
		attachments: &sqlAttachmentStore{db: db, dialect: dialect},
	}, nil
}

func (r *sqlRepository) Notes() NoteStore {
	return r.notes
}

func (r *sqlRepository) Attachments() AttachmentStore {
	return r.attachments
}

func (r *sqlRepository) Backend() string {
	return r.dialect.name
}

func (r *sqlRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type sqlNoteStore struct {
	db      *sql.DB
	dialect sqlDialect
}

const noteColumns = `id, record_id, title, description, created_at, updated_at`

func (s *sqlNoteStore) List(ctx context.Context, filter NoteFilter) ([]*types.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes`
	args := []any{}
	if recordID := strings.TrimSpace(filter.RecordID); recordID != "" {
		query += ` WHERE record_id = ?`
		args = append(args, recordID)
	}
	query += ` ORDER BY updated_at DESC, created_at DESC`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, classifySQLError(err)
	}
	defer rows.Close()

	out := make([]*types.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLError(err)
	}
	return out, nil
}

func (s *sqlNoteStore) Get(ctx context.Context, id string) (*types.Note, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ?`), id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return note, true, nil
}

func (s *sqlNoteStore) Upsert(ctx context.Context, note *types.Note) (*types.Note, error) {
	if note == nil {
		return nil, errors.New("note is required")
	}
	var existing *types.Note
	if strings.TrimSpace(note.ID) != "" {
		current, ok, err := s.Get(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			existing = current
		}
	}
	normalized := normalizeNote(note, existing)
	query := `INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			record_id = excluded.record_id,
			title = excluded.title,
			description = excluded.description,
			updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		normalized.ID,
		normalized.RecordID,
		normalized.Title,
		normalized.Description,
		normalized.CreatedAt.UnixNano(),
		normalized.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, classifySQLError(err)
	}
	return normalized.Clone(), nil
}

func (s *sqlNoteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM notes WHERE id = ?`), id)
	if err != nil {
		return classifySQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classifySQLError(err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*types.Note, error) {
	var (
		note             types.Note
		created, updated int64
	)
	if err := row.Scan(&note.ID, &note.RecordID, &note.Title, &note.Description, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classifySQLError(err)
	}
	note.CreatedAt = time.Unix(0, created).UTC()
	note.UpdatedAt = time.Unix(0, updated).UTC()
	return &note, nil
}

type sqlAttachmentStore struct {
	db      *sql.DB
	dialect sqlDialect
}

const attachmentColumns = `id, record_id, filename, content_type, size, checksum, location, created_at`

func (s *sqlAttachmentStore) List(ctx context.Context, recordID string) ([]*types.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments`
	args := []any{}
	if recordID = strings.TrimSpace(recordID); recordID != "" {
		query += ` WHERE record_id = ?`
		args = append(args, recordID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, classifySQLError(err)
	}
	defer rows.Close()

	out := make([]*types.Attachment, 0)
	for rows.Next() {
		item, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLError(err)
	}
	return out, nil
}

func (s *sqlAttachmentStore) Get(ctx context.Context, id string) (*types.Attachment, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`), id)
	item, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *sqlAttachmentStore) Add(ctx context.Context, attachment *types.Attachment) (*types.Attachment, error) {
	if attachment == nil {
		return nil, errors.New("attachment is required")
	}
	normalized := normalizeAttachment(attachment)
	query := `INSERT INTO attachments (` + attachmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query),
		normalized.ID,
		normalized.RecordID,
		normalized.Filename,
		normalized.ContentType,
		normalized.Size,
		normalized.Checksum,
		normalized.Location,
		normalized.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, classifySQLError(err)
	}
	return normalized.Clone(), nil
}

func (s *sqlAttachmentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM attachments WHERE id = ?`), id)
	if err != nil {
		return classifySQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classifySQLError(err)
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

func scanAttachment(row rowScanner) (*types.Attachment, error) {
	var (
		item    types.Attachment
		created int64
	)
	err := row.Scan(&item.ID, &item.RecordID, &item.Filename, &item.ContentType, &item.Size, &item.Checksum, &item.Location, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classifySQLError(err)
	}
	item.CreatedAt = time.Unix(0, created).UTC()
	return &item, nil
}

// classifySQLError maps driver errors onto the store sentinels so callers
// can tell conflicts and outages apart from other failures.
func classifySQLError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow:
			return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return err
}
