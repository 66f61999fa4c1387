// Package snapshot keeps rendered API surfaces in a SQLite database so that
// later runs can diff against them.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	apierrors "apidump/internal/errors"
	"apidump/internal/slogutil"
)

// minPrefix is the shortest id prefix Get accepts.
const minPrefix = 4

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is one stored surface. Text is empty in List results.
type Snapshot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	Digest    string    `json:"digest"`
	Lines     int       `json:"lines"`
	Size      int       `json:"size"`
	Text      string    `json:"text,omitempty"`
}

// ShortID is the first eight characters of the id.
func (s *Snapshot) ShortID() string {
	if len(s.ID) > 8 {
		return s.ID[:8]
	}
	return s.ID
}

// Store saves and retrieves snapshots.
type Store struct {
	db     *DB
	logger *slog.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	now    func() time.Time
}

// Open opens the store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	db, err := OpenDB(path, logger)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, fmt.Sprintf("cannot open snapshot store %s", path), err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, apierrors.New(apierrors.InternalError, "zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, apierrors.New(apierrors.InternalError, "zstd decoder", err)
	}
	return &Store{db: db, logger: logger, enc: enc, dec: dec, now: time.Now}, nil
}

// Close releases the database and codecs.
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// Digest is the hex blake2b-256 of text.
func Digest(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func validLabel(label string) error {
	if label == "" {
		return apierrors.Newf(apierrors.InputInvalid, "snapshot label must not be empty")
	}
	if strings.ContainsAny(label, " \t\r\n") {
		return apierrors.Newf(apierrors.InputInvalid, "snapshot label %q must not contain whitespace", label)
	}
	return nil
}

// Save stores text under label and returns the new snapshot without its
// text.
func (s *Store) Save(ctx context.Context, label, text string) (*Snapshot, error) {
	if err := validLabel(label); err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: s.now().UTC(),
		Digest:    Digest(text),
		Lines:     countLines(text),
		Size:      len(text),
	}
	body := s.enc.EncodeAll([]byte(text), nil)

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (id, label, created_at, digest, lines, size, body) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, snap.Label, snap.CreatedAt.Format(timeLayout), snap.Digest, snap.Lines, snap.Size, body)
		return err
	})
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to save snapshot", err)
	}
	s.logger.Debug("Saved snapshot",
		"id", snap.ID,
		"label", label,
		"lines", snap.Lines,
		"bytes", snap.Size,
		"compressed", len(body))
	return snap, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner, withBody bool) (*Snapshot, []byte, error) {
	var snap Snapshot
	var created string
	var body []byte
	dest := []interface{}{&snap.ID, &snap.Label, &created, &snap.Digest, &snap.Lines, &snap.Size}
	if withBody {
		dest = append(dest, &body)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: bad timestamp %q: %w", snap.ID, created, err)
	}
	snap.CreatedAt = t
	return &snap, body, nil
}

const columns = `id, label, created_at, digest, lines, size`

// Get resolves ref as an exact id, then a label (newest wins), then a
// unique id prefix, and returns the snapshot with its text.
func (s *Store) Get(ctx context.Context, ref string) (*Snapshot, error) {
	snap, body, err := s.resolve(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	data, err := s.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, fmt.Sprintf("snapshot %s body is corrupt", snap.ID), err)
	}
	snap.Text = string(data)
	if Digest(snap.Text) != snap.Digest {
		return nil, apierrors.Newf(apierrors.StorageError, "snapshot %s does not match its digest", snap.ID)
	}
	return snap, nil
}

func (s *Store) resolve(ctx context.Context, ref string, withBody bool) (*Snapshot, []byte, error) {
	if ref == "" {
		return nil, nil, apierrors.Newf(apierrors.InputInvalid, "empty snapshot reference")
	}
	cols := columns
	if withBody {
		cols += ", body"
	}

	queries := []string{
		`SELECT ` + cols + ` FROM snapshots WHERE id = ?`,
		`SELECT ` + cols + ` FROM snapshots WHERE label = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	}
	for _, q := range queries {
		snap, body, err := scanSnapshot(s.db.conn.QueryRowContext(ctx, q, ref), withBody)
		if err == nil {
			return snap, body, nil
		}
		if err != sql.ErrNoRows {
			return nil, nil, apierrors.New(apierrors.StorageError, "failed to query snapshots", err)
		}
	}

	if len(ref) >= minPrefix && isHexPrefix(ref) {
		rows, err := s.db.conn.QueryContext(ctx,
			`SELECT `+cols+` FROM snapshots WHERE id LIKE ? LIMIT 2`, strings.ToLower(ref)+"%")
		if err != nil {
			return nil, nil, apierrors.New(apierrors.StorageError, "failed to query snapshots", err)
		}
		defer rows.Close()
		var found *Snapshot
		var foundBody []byte
		for rows.Next() {
			snap, body, err := scanSnapshot(rows, withBody)
			if err != nil {
				return nil, nil, apierrors.New(apierrors.StorageError, "failed to read snapshot", err)
			}
			if found != nil {
				return nil, nil, apierrors.Newf(apierrors.InputInvalid, "snapshot prefix %q is ambiguous", ref)
			}
			found, foundBody = snap, body
		}
		if err := rows.Err(); err != nil {
			return nil, nil, apierrors.New(apierrors.StorageError, "failed to query snapshots", err)
		}
		if found != nil {
			return found, foundBody, nil
		}
	}
	return nil, nil, apierrors.Newf(apierrors.SnapshotNotFound, "no snapshot matches %q", ref).
		WithDetails(map[string]string{"ref": ref})
}

func isHexPrefix(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == '-') {
			return false
		}
	}
	return true
}

// List returns every snapshot, newest first, without text.
func (s *Store) List(ctx context.Context) ([]*Snapshot, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+columns+` FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to list snapshots", err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		snap, _, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, apierrors.New(apierrors.StorageError, "failed to read snapshot", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to list snapshots", err)
	}
	return out, nil
}

// Delete removes the snapshot ref resolves to and returns it.
func (s *Store) Delete(ctx context.Context, ref string) (*Snapshot, error) {
	snap, _, err := s.resolve(ctx, ref, false)
	if err != nil {
		return nil, err
	}
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID)
		return err
	})
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to delete snapshot", err)
	}
	s.logger.Debug("Deleted snapshot", "id", snap.ID, "label", snap.Label)
	return snap, nil
}
