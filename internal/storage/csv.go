package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"wedding-rsvp/internal/models"
)

// CSVBackend keeps every response in one CSV file with a header row.
// Writes go to a temp file in the same directory which is then renamed over the original.
type CSVBackend struct {
	path string

	// wrap intercepts the temp file writer; tests use it to inject failures
	wrap func(io.Writer) io.Writer
}

// NewCSVBackend creates the backend, making the parent directory if needed
func NewCSVBackend(path string) (*CSVBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &CSVBackend{path: path}, nil
}

// Path returns the backing file path
func (b *CSVBackend) Path() string {
	return b.path
}

func (b *CSVBackend) Load(ctx context.Context) ([]models.Response, error) {
	const op = "load"
	if err := ctx.Err(); err != nil {
		return nil, ioError(op, err)
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Response{}, nil
	}
	if err != nil {
		return nil, ioError(op, fmt.Errorf("failed to read file: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Response{}, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, corruptError(op, err)
	}

	if !slices.Equal(rows[0], models.Columns) {
		return nil, corruptError(op, fmt.Errorf("unexpected header %v", rows[0]))
	}

	records := make([]models.Response, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := models.FromRow(row)
		if err != nil {
			return nil, corruptError(op, fmt.Errorf("line %d: %w", i+2, err))
		}
		records = append(records, rec)
	}
	return records, nil
}

// LockPath returns the lock file next to the data file
func (b *CSVBackend) LockPath() string {
	return b.path + ".lock"
}

func (b *CSVBackend) Newest(ctx context.Context) (time.Time, error) {
	records, err := b.Load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	var newest time.Time
	for _, r := range records {
		if r.SubmittedAt.After(newest) {
			newest = r.SubmittedAt
		}
	}
	return newest, nil
}

func (b *CSVBackend) Append(ctx context.Context, records []models.Response) error {
	existing, err := b.Load(ctx)
	if err != nil {
		return err
	}
	return b.write(ctx, append(existing, records...))
}

func (b *CSVBackend) Replace(ctx context.Context, records []models.Response) error {
	return b.write(ctx, records)
}

// Check confirms the directory accepts new files and an existing file is writable
func (b *CSVBackend) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ioError("check", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".check-*")
	if err != nil {
		return ioError("check", fmt.Errorf("directory not writable: %w", err))
	}
	tmp.Close()
	os.Remove(tmp.Name())

	f, err := os.OpenFile(b.path, os.O_WRONLY, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return ioError("check", fmt.Errorf("file not writable: %w", err))
	}
	return f.Close()
}

func (b *CSVBackend) Close() error {
	return nil
}

func (b *CSVBackend) write(ctx context.Context, records []models.Response) (err error) {
	const op = "write"
	if err := ctx.Err(); err != nil {
		return ioError(op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return ioError(op, fmt.Errorf("failed to create temp file: %w", err))
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var out io.Writer = tmp
	if b.wrap != nil {
		out = b.wrap(tmp)
	}

	w := csv.NewWriter(out)
	if err := w.Write(models.Columns); err != nil {
		return ioError(op, err)
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return ioError(op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ioError(op, fmt.Errorf("failed to write data: %w", err))
	}

	if err := tmp.Sync(); err != nil {
		return ioError(op, fmt.Errorf("failed to sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return ioError(op, fmt.Errorf("failed to close: %w", err))
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return ioError(op, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}
