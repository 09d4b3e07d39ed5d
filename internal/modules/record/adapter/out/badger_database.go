package out

import (
	"bytes"
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"sleepsun/internal/modules/record/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	apperrors "sleepsun/internal/platform/errors"
)

var (
	sleepPrefix    = []byte("sleep/")
	sleepEndPrefix = []byte("sleepend/")
	sunPrefix      = []byte("sun/")
)

// BadgerDatabase is the key-value backend. Sleep sessions live under
// sleep/<id> with a byEnd index under sleepend/<end>/<id>; sun times live
// under sun/<lat>_<lon>/<date> so a coordinate pair scans in date order.
type BadgerDatabase struct {
	path string

	mu sync.RWMutex
	db *badger.DB

	// writeMu serialises update transactions so badger never reports
	// ErrConflict to callers.
	writeMu sync.Mutex
}

type badgerTxKey struct{}

type badgerTx struct {
	owner *BadgerDatabase
	txn   *badger.Txn
}

func NewBadgerDatabase(path string) recordout.Database {
	return &BadgerDatabase{path: path}
}

func (b *BadgerDatabase) Init(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		return nil
	}
	opts := badger.DefaultOptions(b.path).WithLogger(nil)
	if b.path == MemoryPath {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if err := os.MkdirAll(b.path, 0o755); err != nil {
		return fmt.Errorf("create badger dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	b.db = db
	return nil
}

func (b *BadgerDatabase) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *BadgerDatabase) handle() (*badger.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, apperrors.ErrUninitialized
	}
	return b.db, nil
}

func (b *BadgerDatabase) current(ctx context.Context) *badger.Txn {
	if tx, ok := ctx.Value(badgerTxKey{}).(*badgerTx); ok && tx.owner == b {
		return tx.txn
	}
	return nil
}

func (b *BadgerDatabase) Within(ctx context.Context, fn func(context.Context) error) error {
	if b.current(ctx) != nil {
		return fn(ctx)
	}
	db, err := b.handle()
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	txn := db.NewTransaction(true)
	defer txn.Discard()
	if err := fn(context.WithValue(ctx, badgerTxKey{}, &badgerTx{owner: b, txn: txn})); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (b *BadgerDatabase) update(ctx context.Context, fn func(*badger.Txn) error) error {
	if txn := b.current(ctx); txn != nil {
		return fn(txn)
	}
	db, err := b.handle()
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return db.Update(fn)
}

func (b *BadgerDatabase) view(ctx context.Context, fn func(*badger.Txn) error) error {
	if txn := b.current(ctx); txn != nil {
		return fn(txn)
	}
	db, err := b.handle()
	if err != nil {
		return err
	}
	return db.View(fn)
}

func (b *BadgerDatabase) UpsertSleep(ctx context.Context, session domain.SleepSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal sleep session: %w", err)
	}
	err = b.update(ctx, func(txn *badger.Txn) error {
		previous, err := getSleep(txn, session.ID)
		switch {
		case err == nil:
			if err := txn.Delete(sleepEndKey(previous.End, previous.ID)); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(sleepKey(session.ID), payload); err != nil {
			return err
		}
		return txn.Set(sleepEndKey(session.End, session.ID), nil)
	})
	if err != nil {
		return wrapUnlessUninitialized("upsert sleep session", err)
	}
	return nil
}

func (b *BadgerDatabase) GetSleep(ctx context.Context, id string) (domain.SleepSession, error) {
	var session domain.SleepSession
	err := b.view(ctx, func(txn *badger.Txn) error {
		var err error
		session, err = getSleep(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.SleepSession{}, fmt.Errorf("%w: sleep session %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.SleepSession{}, wrapUnlessUninitialized("get sleep session", err)
	}
	return session, nil
}

func (b *BadgerDatabase) DeleteSleep(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := b.update(ctx, func(txn *badger.Txn) error {
		previous, err := getSleep(txn, id)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(sleepKey(id)); err != nil {
			return err
		}
		deleted = true
		return txn.Delete(sleepEndKey(previous.End, id))
	})
	if err != nil {
		return false, wrapUnlessUninitialized("delete sleep session", err)
	}
	return deleted, nil
}

// ListSleep walks the byEnd index from rangeStart: every match has
// end >= rangeStart under both modes.
func (b *BadgerDatabase) ListSleep(ctx context.Context, start, end int64, mode domain.MatchMode) ([]domain.SleepSession, error) {
	out := []domain.SleepSession{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: sleepEndPrefix})
		defer it.Close()
		for it.Seek(sleepEndSeek(start)); it.ValidForPrefix(sleepEndPrefix); it.Next() {
			sessionEnd, id := parseSleepEndKey(it.Item().KeyCopy(nil))
			if mode == domain.MatchContained && sessionEnd > end {
				break
			}
			session, err := getSleep(txn, id)
			if err != nil {
				return err
			}
			if session.Matches(start, end, mode) {
				out = append(out, session)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessUninitialized("list sleep sessions", err)
	}
	return out, nil
}

func (b *BadgerDatabase) AllSleep(ctx context.Context) ([]domain.SleepSession, error) {
	out := []domain.SleepSession{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: sleepEndPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			_, id := parseSleepEndKey(it.Item().KeyCopy(nil))
			session, err := getSleep(txn, id)
			if err != nil {
				return err
			}
			out = append(out, session)
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessUninitialized("list sleep sessions", err)
	}
	return out, nil
}

func (b *BadgerDatabase) CountSleep(ctx context.Context) (int, error) {
	n := 0
	err := b.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: sleepPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, wrapUnlessUninitialized("count sleep sessions", err)
	}
	return n, nil
}

func (b *BadgerDatabase) UpsertSun(ctx context.Context, sun domain.SunTimes) error {
	sun.Lat = domain.RoundCoordinate(sun.Lat)
	sun.Lon = domain.RoundCoordinate(sun.Lon)
	payload, err := json.Marshal(sun)
	if err != nil {
		return fmt.Errorf("marshal sun times: %w", err)
	}
	err = b.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(sunKey(sun.Key()), payload)
	})
	if err != nil {
		return wrapUnlessUninitialized("upsert sun times", err)
	}
	return nil
}

func (b *BadgerDatabase) GetSun(ctx context.Context, key domain.SunKey) (domain.SunTimes, error) {
	var sun domain.SunTimes
	err := b.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(sunKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sun)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.SunTimes{}, fmt.Errorf("%w: sun times %s", apperrors.ErrNotFound, key)
	}
	if err != nil {
		return domain.SunTimes{}, wrapUnlessUninitialized("get sun times", err)
	}
	return sun, nil
}

func (b *BadgerDatabase) ListSun(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]domain.SunTimes, error) {
	prefix := sunCoordinatePrefix(lat, lon)
	return b.scanSun(ctx, prefix, append(append([]byte{}, prefix...), dateStart...), func(date string) (keep, stop bool) {
		if date > dateEnd {
			return false, true
		}
		return true, false
	})
}

func (b *BadgerDatabase) AllSun(ctx context.Context) ([]domain.SunTimes, error) {
	out, err := b.scanSun(ctx, sunPrefix, sunPrefix, func(string) (bool, bool) { return true, false })
	if err != nil {
		return nil, err
	}
	sortSun(out)
	return out, nil
}

func (b *BadgerDatabase) scanSun(ctx context.Context, prefix, seek []byte, filter func(date string) (keep, stop bool)) ([]domain.SunTimes, error) {
	out := []domain.SunTimes{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 32})
		defer it.Close()
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			sun := domain.SunTimes{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sun)
			}); err != nil {
				return err
			}
			keep, stop := filter(sun.Date)
			if stop {
				break
			}
			if keep {
				out = append(out, sun)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessUninitialized("list sun times", err)
	}
	return out, nil
}

func (b *BadgerDatabase) ClearAll(ctx context.Context) error {
	return b.Within(ctx, func(ctx context.Context) error {
		txn := b.current(ctx)
		for _, prefix := range [][]byte{sleepPrefix, sleepEndPrefix, sunPrefix} {
			keys := [][]byte{}
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("clear records: %w", err)
				}
			}
		}
		return nil
	})
}

func getSleep(txn *badger.Txn, id string) (domain.SleepSession, error) {
	item, err := txn.Get(sleepKey(id))
	if err != nil {
		return domain.SleepSession{}, err
	}
	session := domain.SleepSession{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	})
	return session, err
}

func sleepKey(id string) []byte {
	return append(append([]byte{}, sleepPrefix...), id...)
}

// sleepEndKey encodes end as sign-flipped big-endian so byte order matches
// numeric order, negatives included.
func sleepEndKey(end int64, id string) []byte {
	key := sleepEndSeek(end)
	key = append(key, '/')
	return append(key, id...)
}

func sleepEndSeek(end int64) []byte {
	key := make([]byte, len(sleepEndPrefix)+8)
	copy(key, sleepEndPrefix)
	binary.BigEndian.PutUint64(key[len(sleepEndPrefix):], uint64(end)^(1<<63))
	return key
}

func parseSleepEndKey(key []byte) (int64, string) {
	rest := bytes.TrimPrefix(key, sleepEndPrefix)
	end := int64(binary.BigEndian.Uint64(rest[:8]) ^ (1 << 63))
	return end, string(rest[9:])
}

func sunCoordinatePrefix(lat, lon float64) []byte {
	return []byte(string(sunPrefix) + domain.FormatCoordinate(domain.RoundCoordinate(lat)) + "_" + domain.FormatCoordinate(domain.RoundCoordinate(lon)) + "/")
}

func sunKey(key domain.SunKey) []byte {
	return append(sunCoordinatePrefix(key.Lat, key.Lon), key.Date...)
}

func sortSun(records []domain.SunTimes) {
	slices.SortFunc(records, func(a, b domain.SunTimes) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Lat, b.Lat); c != 0 {
			return c
		}
		return cmp.Compare(a.Lon, b.Lon)
	})
}

func wrapUnlessUninitialized(op string, err error) error {
	if errors.Is(err, apperrors.ErrUninitialized) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
