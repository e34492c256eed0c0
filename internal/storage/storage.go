package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

// Backend is the persistence medium behind a Store.
// Implementations need not be safe for concurrent use; the Store serializes access,
// across processes too, through the file at LockPath.
// Append and Replace must be all-or-nothing.
type Backend interface {
	Load(ctx context.Context) ([]models.Response, error)
	// Newest returns the latest stored submitted_at, zero when nothing is stored
	Newest(ctx context.Context) (time.Time, error)
	Append(ctx context.Context, records []models.Response) error
	Replace(ctx context.Context, records []models.Response) error
	Check(ctx context.Context) error
	// LockPath names the advisory lock file shared by every writer of this data
	LockPath() string
	Close() error
}

// DefaultLockTimeout bounds lock waits when Options.LockTimeout is zero
const DefaultLockTimeout = 5 * time.Second

// Options configures a Store
type Options struct {
	// LockTimeout bounds the wait for the store lock, in-process and across processes.
	// Zero means DefaultLockTimeout; the caller's context can only shorten the wait.
	LockTimeout time.Duration
	// TolerateCorrupt makes reads of malformed data return an empty set instead of an error.
	TolerateCorrupt bool
	Logger          zerolog.Logger
	// Now stamps records that arrive without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a full read of the store plus a token identifying its content
type Snapshot struct {
	Records []models.Response
	Token   string
}

// Store is the shared response collection
type Store struct {
	backend Backend
	lock    *rwLock
	opts    Options
	log     zerolog.Logger
}

// NewStore wraps a backend with locking, schema checks and timestamp stamping
func NewStore(backend Backend, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	return &Store{
		backend: backend,
		lock:    newRWLock(opts.LockTimeout, backend.LockPath()),
		opts:    opts,
		log:     opts.Logger.With().Str("component", "store").Logger(),
	}
}

// Open selects a backend by name and opens it inside dataDir
func Open(kind, dataDir string, opts Options) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(kind) {
	case "", "csv":
		backend, err = NewCSVBackend(filepath.Join(dataDir, "responses.csv"))
	case "sqlite":
		backend, err = OpenSQLite(filepath.Join(dataDir, "responses.db"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
	if err != nil {
		return nil, classify("open", err)
	}
	return NewStore(backend, opts), nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Append adds records as one batch sharing a single timestamp.
// Either every record becomes visible or none does.
func (s *Store) Append(ctx context.Context, records []models.Response) error {
	_, err := s.AppendBatch(ctx, records)
	return err
}

// AppendBatch is Append returning the records exactly as stored, with their final timestamp
func (s *Store) AppendBatch(ctx context.Context, records []models.Response) ([]models.Response, error) {
	const op = "append"
	if len(records) == 0 {
		return nil, nil
	}
	if err := validateAll(op, records); err != nil {
		return nil, err
	}

	unlock, err := s.lock.lock(ctx, op)
	if err != nil {
		s.log.Warn().Err(err).Msg("Lock wait expired")
		return nil, err
	}
	defer unlock()

	// read under the lock so another process's latest batch counts
	newest, err := s.backend.Newest(ctx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	ts := records[0].SubmittedAt
	if ts.IsZero() {
		ts = s.opts.Now()
	}
	ts = ts.UTC().Truncate(time.Second)
	if ts.Before(newest) {
		ts = newest
	}

	batch := make([]models.Response, len(records))
	for i, r := range records {
		r.SubmittedAt = ts
		batch[i] = r
	}

	if err := s.backend.Append(ctx, batch); err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Debug().Int("records", len(batch)).Time("submitted_at", ts).Msg("Appended batch")
	return batch, nil
}

// ReadAll returns every stored record in insertion order
func (s *Store) ReadAll(ctx context.Context) ([]models.Response, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot reads every record and computes the content token used by ReplaceSnapshot
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	const op = "read"
	unlock, err := s.lock.rlock(ctx, op)
	if err != nil {
		s.log.Warn().Err(err).Msg("Lock wait expired")
		return Snapshot{}, err
	}
	defer unlock()

	records, err := s.load(ctx, op)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Records: records, Token: Token(records)}, nil
}

// ReplaceAll overwrites the stored set with records.
// Records absent from the set are deleted, including any appended since the caller last read.
func (s *Store) ReplaceAll(ctx context.Context, records []models.Response) error {
	return s.replace(ctx, nil, records)
}

// ReplaceSnapshot overwrites the stored set only if it still matches the snapshot token.
// It returns ErrStaleSnapshot when another write happened in between.
func (s *Store) ReplaceSnapshot(ctx context.Context, token string, records []models.Response) error {
	return s.replace(ctx, &token, records)
}

func (s *Store) replace(ctx context.Context, token *string, records []models.Response) error {
	const op = "replace"
	if err := validateAll(op, records); err != nil {
		return err
	}

	unlock, err := s.lock.lock(ctx, op)
	if err != nil {
		s.log.Warn().Err(err).Msg("Lock wait expired")
		return err
	}
	defer unlock()

	if token != nil {
		current, err := s.load(ctx, op)
		if err != nil {
			return err
		}
		if Token(current) != *token {
			return &Error{Op: op, Kind: ErrStaleSnapshot}
		}
	}

	batch := make([]models.Response, len(records))
	for i, r := range records {
		if !r.SubmittedAt.IsZero() {
			r.SubmittedAt = r.SubmittedAt.UTC().Truncate(time.Second)
		}
		batch[i] = r
	}

	if err := s.backend.Replace(ctx, batch); err != nil {
		return s.fail(op, err)
	}

	s.log.Info().Int("records", len(batch)).Msg("Replaced response set")
	return nil
}

// CheckWritable verifies the medium accepts writes. Call it before accepting traffic.
func (s *Store) CheckWritable(ctx context.Context) error {
	const op = "check"
	unlock, err := s.lock.lock(ctx, op)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.backend.Check(ctx); err != nil {
		return s.fail(op, err)
	}
	return nil
}

// load reads through the backend, applying the corruption tolerance. Caller holds a lock.
func (s *Store) load(ctx context.Context, op string) ([]models.Response, error) {
	records, err := s.backend.Load(ctx)
	if err == nil {
		if records == nil {
			records = []models.Response{}
		}
		return records, nil
	}

	err = classify(op, err)
	if errors.Is(err, ErrCorruptData) && s.opts.TolerateCorrupt {
		s.log.Warn().Err(err).Msg("Ignoring corrupt response data")
		return []models.Response{}, nil
	}
	s.log.Error().Err(err).Str("op", op).Msg("Store read failed")
	return nil, err
}

func (s *Store) fail(op string, err error) error {
	err = classify(op, err)
	s.log.Error().Err(err).Str("op", op).Msg("Store write failed")
	return err
}

func validateAll(op string, records []models.Response) error {
	var problems []string
	for i, r := range records {
		for _, p := range r.Validate() {
			problems = append(problems, fmt.Sprintf("record %d: %s", i+1, p))
		}
	}
	if len(problems) > 0 {
		return &Error{Op: op, Kind: ErrInvalidRecord, Err: errors.New(strings.Join(problems, "; "))}
	}
	return nil
}

// Token identifies a record set by content
func Token(records []models.Response) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(models.Columns)
	for _, r := range records {
		_ = w.Write(r.Row())
	}
	w.Flush()

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
