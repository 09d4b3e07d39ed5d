package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	recordadapter "sleepsun/internal/modules/record/adapter/out"
	"sleepsun/internal/modules/record/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	apperrors "sleepsun/internal/platform/errors"
)

type backendFactory func(t *testing.T) recordout.Database

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"sqlite": func(t *testing.T) recordout.Database {
			return recordadapter.NewSQLiteDatabase(filepath.Join(t.TempDir(), "nested", "sleepsun.db"))
		},
		"sqlite-memory": func(*testing.T) recordout.Database {
			return recordadapter.NewSQLiteDatabase(recordadapter.MemoryPath)
		},
		"badger": func(t *testing.T) recordout.Database {
			return recordadapter.NewBadgerDatabase(filepath.Join(t.TempDir(), "badger"))
		},
		"badger-memory": func(*testing.T) recordout.Database {
			return recordadapter.NewBadgerDatabase(recordadapter.MemoryPath)
		},
	}
}

func openDB(t *testing.T, factory backendFactory) recordout.Database {
	t.Helper()
	db := factory(t)
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("second init must be a no-op: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ptr(v float64) *float64 { return &v }

func sessionFixtures() []domain.SleepSession {
	return []domain.SleepSession{
		{ID: "a", Start: 100, End: 200, Lat: ptr(52.52), Lon: ptr(13.4), CreatedAt: 1},
		{ID: "b", Start: 150, End: 400, CreatedAt: 1},
		{ID: "c", Start: 300, End: 350, CreatedAt: 1},
		{ID: "d", Start: 500, End: 900, CreatedAt: 1},
		{ID: "e", Start: -50, End: 20, CreatedAt: 1},
	}
}

func ids(sessions []domain.SleepSession) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUninitializedDatabaseFailsClosed(t *testing.T) {
	t.Parallel()
	for name, factory := range backends() {
		db := factory(t)
		ctx := context.Background()
		if _, err := db.GetSleep(ctx, "x"); !errors.Is(err, apperrors.ErrUninitialized) {
			t.Fatalf("%s: expected uninitialized on get, got %v", name, err)
		}
		if err := db.UpsertSun(ctx, domain.SunTimes{Date: "2024-01-01"}); !errors.Is(err, apperrors.ErrUninitialized) {
			t.Fatalf("%s: expected uninitialized on upsert, got %v", name, err)
		}
		if err := db.Within(ctx, func(context.Context) error { return nil }); !errors.Is(err, apperrors.ErrUninitialized) {
			t.Fatalf("%s: expected uninitialized on transaction, got %v", name, err)
		}
		if err := db.ClearAll(ctx); !errors.Is(err, apperrors.ErrUninitialized) {
			t.Fatalf("%s: expected uninitialized on clear, got %v", name, err)
		}
	}
}

func TestSleepCRUDAndRangeQueriesMatchAcrossBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	results := map[string][][]string{}
	for name, factory := range backends() {
		db := openDB(t, factory)
		for _, s := range sessionFixtures() {
			if err := db.UpsertSleep(ctx, s); err != nil {
				t.Fatalf("%s: upsert %s: %v", name, s.ID, err)
			}
		}

		got, err := db.GetSleep(ctx, "a")
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		if got.Lat == nil || *got.Lat != 52.52 || got.UpdatedAt != nil {
			t.Fatalf("%s: unexpected record %+v", name, got)
		}
		if got, _ := db.GetSleep(ctx, "b"); got.Lat != nil || got.Lon != nil {
			t.Fatalf("%s: expected nil coordinates, got %+v", name, got)
		}
		if _, err := db.GetSleep(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}

		overlapping, err := db.ListSleep(ctx, 180, 320, domain.MatchOverlapping)
		if err != nil {
			t.Fatalf("%s: list overlapping: %v", name, err)
		}
		contained, err := db.ListSleep(ctx, 100, 400, domain.MatchContained)
		if err != nil {
			t.Fatalf("%s: list contained: %v", name, err)
		}
		if want := []string{"a", "c", "b"}; !equalIDs(ids(overlapping), want) {
			t.Fatalf("%s: overlapping expected %v, got %v", name, want, ids(overlapping))
		}
		if want := []string{"a", "c", "b"}; !equalIDs(ids(contained), want) {
			t.Fatalf("%s: contained expected %v, got %v", name, want, ids(contained))
		}
		narrow, err := db.ListSleep(ctx, 160, 380, domain.MatchContained)
		if err != nil {
			t.Fatalf("%s: list narrow: %v", name, err)
		}
		if want := []string{"c"}; !equalIDs(ids(narrow), want) {
			t.Fatalf("%s: narrow contained expected %v, got %v", name, want, ids(narrow))
		}

		moved := sessionFixtures()[3]
		moved.End = 120
		moved.Start = 110
		if err := db.UpsertSleep(ctx, moved); err != nil {
			t.Fatalf("%s: re-upsert: %v", name, err)
		}
		all, err := db.AllSleep(ctx)
		if err != nil {
			t.Fatalf("%s: all: %v", name, err)
		}
		if want := []string{"e", "d", "a", "c", "b"}; !equalIDs(ids(all), want) {
			t.Fatalf("%s: expected reindexed order %v, got %v", name, want, ids(all))
		}

		deleted, err := db.DeleteSleep(ctx, "c")
		if err != nil || !deleted {
			t.Fatalf("%s: first delete expected true, got %v (%v)", name, deleted, err)
		}
		deleted, err = db.DeleteSleep(ctx, "c")
		if err != nil || deleted {
			t.Fatalf("%s: second delete expected false, got %v (%v)", name, deleted, err)
		}
		count, err := db.CountSleep(ctx)
		if err != nil || count != 4 {
			t.Fatalf("%s: expected 4 sessions, got %d (%v)", name, count, err)
		}
		results[name] = [][]string{ids(overlapping), ids(contained), ids(narrow)}
	}
	base := results["sqlite"]
	for name, got := range results {
		for i := range base {
			if !equalIDs(base[i], got[i]) {
				t.Fatalf("%s diverges from sqlite on query %d: %v vs %v", name, i, got[i], base[i])
			}
		}
	}
}

func TestSunTimesCompositeKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, factory := range backends() {
		db := openDB(t, factory)
		updated := int64(10)
		records := []domain.SunTimes{
			{Date: "2024-01-02", Lat: 52.52, Lon: 13.4, Sunrise: 1000, Sunset: 2000},
			{Date: "2024-01-01", Lat: 52.52, Lon: 13.4, Sunrise: 900, Sunset: 1900, Daylength: 1000},
			{Date: "2024-01-03", Lat: 52.52, Lon: 13.4, Sunrise: 1100, Sunset: 2100},
			{Date: "2024-01-02", Lat: 48.86, Lon: 2.35, Sunrise: 1200, Sunset: 2200},
			{Date: "2024-01-02", Lat: 52.52, Lon: 13.4, Sunrise: 1001, Sunset: 2001, UpdatedAt: &updated},
		}
		for _, r := range records {
			if err := db.UpsertSun(ctx, r); err != nil {
				t.Fatalf("%s: upsert sun: %v", name, err)
			}
		}
		key, err := domain.NewSunKey("2024-01-02", 52.5201, 13.4049)
		if err != nil {
			t.Fatalf("%s: key: %v", name, err)
		}
		got, err := db.GetSun(ctx, key)
		if err != nil {
			t.Fatalf("%s: get sun: %v", name, err)
		}
		if got.Sunrise != 1001 || got.UpdatedAt == nil || *got.UpdatedAt != 10 {
			t.Fatalf("%s: expected overwritten record, got %+v", name, got)
		}
		if _, err := db.GetSun(ctx, domain.SunKey{Date: "2024-02-01", Lat: 52.52, Lon: 13.4}); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}

		list, err := db.ListSun(ctx, 52.52, 13.4, "2024-01-01", "2024-01-02")
		if err != nil {
			t.Fatalf("%s: list sun: %v", name, err)
		}
		if len(list) != 2 || list[0].Date != "2024-01-01" || list[1].Date != "2024-01-02" {
			t.Fatalf("%s: expected two ordered records, got %+v", name, list)
		}
		if list[0].DayLength() != 1000 || list[1].DayLength() != 1000 {
			t.Fatalf("%s: unexpected day lengths %+v", name, list)
		}
		all, err := db.AllSun(ctx)
		if err != nil || len(all) != 4 {
			t.Fatalf("%s: expected 4 sun records, got %d (%v)", name, len(all), err)
		}
	}
}

func TestTransactionsRollbackAndReuse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")
	for name, factory := range backends() {
		db := openDB(t, factory)

		err := db.Within(ctx, func(ctx context.Context) error {
			if err := db.UpsertSleep(ctx, domain.SleepSession{ID: "x", Start: 1, End: 2}); err != nil {
				return err
			}
			if _, err := db.GetSleep(ctx, "x"); err != nil {
				t.Fatalf("%s: write must be visible inside the transaction: %v", name, err)
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("%s: expected callback error, got %v", name, err)
		}
		if _, err := db.GetSleep(ctx, "x"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: rolled back write must be gone, got %v", name, err)
		}

		err = db.Within(ctx, func(ctx context.Context) error {
			if err := db.UpsertSleep(ctx, domain.SleepSession{ID: "outer", Start: 1, End: 2}); err != nil {
				return err
			}
			return db.Within(ctx, func(ctx context.Context) error {
				return db.UpsertSun(ctx, domain.SunTimes{Date: "2024-01-01", Lat: 1, Lon: 2, Sunrise: 1, Sunset: 2})
			})
		})
		if err != nil {
			t.Fatalf("%s: nested transaction: %v", name, err)
		}
		if _, err := db.GetSleep(ctx, "outer"); err != nil {
			t.Fatalf("%s: committed write missing: %v", name, err)
		}

		err = db.Within(ctx, func(ctx context.Context) error {
			if err := db.Within(ctx, func(ctx context.Context) error {
				return db.UpsertSleep(ctx, domain.SleepSession{ID: "inner", Start: 1, End: 2})
			}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("%s: expected outer error, got %v", name, err)
		}
		if _, err := db.GetSleep(ctx, "inner"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: inner write must roll back with the outer transaction, got %v", name, err)
		}

		if err := db.ClearAll(ctx); err != nil {
			t.Fatalf("%s: clear: %v", name, err)
		}
		sessions, _ := db.AllSleep(ctx)
		suns, _ := db.AllSun(ctx)
		if len(sessions) != 0 || len(suns) != 0 {
			t.Fatalf("%s: expected empty database after clear, got %d/%d", name, len(sessions), len(suns))
		}
	}
}
