package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sleepsun/internal/modules/archive/domain"
	archiveout "sleepsun/internal/modules/archive/port/out"
	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

// Stdio is the path that selects the store's reader or writer instead of a
// file.
const Stdio = "-"

type JSONSnapshotStore struct {
	in  io.Reader
	out io.Writer
}

func NewJSONSnapshotStore(in io.Reader, out io.Writer) archiveout.SnapshotStore {
	return &JSONSnapshotStore{in: in, out: out}
}

func (s *JSONSnapshotStore) Write(_ context.Context, path string, snapshot domain.Snapshot) error {
	if snapshot.SleepSessions == nil {
		snapshot.SleepSessions = []recorddomain.SleepSession{}
	}
	if snapshot.SunTimes == nil {
		snapshot.SunTimes = []recorddomain.SunTimes{}
	}
	if path == Stdio {
		return encode(s.out, snapshot)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := encode(tmp, snapshot); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *JSONSnapshotStore) Read(_ context.Context, path string) (domain.Snapshot, error) {
	if path == Stdio {
		return decode(s.in)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, fmt.Errorf("%w: snapshot %s", apperrors.ErrNotFound, path)
		}
		return domain.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decode(f)
}

func encode(w io.Writer, snapshot domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func decode(r io.Reader) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{}
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return domain.Snapshot{}, apperrors.Invalid("decode snapshot: %v", err)
	}
	return snapshot, nil
}
