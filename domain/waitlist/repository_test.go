package waitlist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akeren/go-waitlist/internal/models"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// SQLite serializes writers; one connection avoids "database is locked".
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))
	return db
}

func newEntry(email, name string) *models.WaitlistEntry {
	return ToWaitlistEntryModel(&SubmitWaitlistRequest{Email: email, Name: name}, time.Now())
}

func TestWaitlistRepository_AppendAssignsSequentialPositions(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	first, err := repo.Append(ctx, newEntry("a@x.com", "A"))
	require.NoError(t, err)
	second, err := repo.Append(ctx, newEntry("b@x.com", ""))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Position)
	assert.Equal(t, int64(2), second.Position)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	entries, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@x.com", entries[0].Email)
	assert.Equal(t, "b@x.com", entries[1].Email)
}

func TestWaitlistRepository_KeepsNameAsSubmitted(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	name := " Ann " + strings.Repeat("é", 400)

	_, err := repo.Append(ctx, newEntry("a@x.com", name))
	require.NoError(t, err)

	entries, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, name, entries[0].Name)
}

func TestWaitlistRepository_AppendWithoutInitialize(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")

	entry, err := repo.Append(context.Background(), newEntry("a@x.com", ""))

	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.Position)
}

func TestWaitlistRepository_InitializeIsIdempotent(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()

	require.NoError(t, repo.Initialize(ctx))
	_, err := repo.Append(ctx, newEntry("a@x.com", ""))
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(ctx))

	entry, err := repo.Append(ctx, newEntry("b@x.com", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Position)
}

func TestWaitlistRepository_RejectsDuplicates(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	_, err := repo.Append(ctx, newEntry("a@x.com", ""))
	require.NoError(t, err)

	for _, email := range []string{"a@x.com", "A@X.COM", "  a@x.com  "} {
		entry := newEntry(email, "")
		created, err := repo.Append(ctx, entry)

		assert.Nil(t, created, email)
		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.GetErrorType(err), email)
		assert.Zero(t, entry.Position, email)
	}

	next, err := repo.Append(ctx, newEntry("b@x.com", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Position)
}

func TestWaitlistRepository_ConcurrentAppendsArePermutation(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	const writers = 25
	positions := make([]int64, writers)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := repo.Append(ctx, newEntry(fmt.Sprintf("user%d@x.com", i), ""))
			errs[i] = err
			if err == nil {
				positions[i] = entry.Position
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(positions, func(a, b int) bool { return positions[a] < positions[b] })
	for i, position := range positions {
		assert.Equal(t, int64(i+1), position)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), count)
}

func TestWaitlistRepository_ConcurrentDuplicateOnlyOneWins(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	const writers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, newEntry("same@x.com", ""))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, conflicts)
}

func TestWaitlistRepository_SaveReplacesCollection(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()
	require.NoError(t, repo.Initialize(ctx))

	_, err := repo.Append(ctx, newEntry("old@x.com", ""))
	require.NoError(t, err)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	err = repo.Save(ctx, []*models.WaitlistEntry{
		{Email: "a@x.com", Name: "A", Timestamp: ts, Position: 1},
		{Email: "B@x.com", Timestamp: ts, Position: 2},
	})
	require.NoError(t, err)

	entries, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@x.com", entries[0].Email)
	assert.Equal(t, "b@x.com", entries[1].EmailKey)
	assert.True(t, ts.Equal(entries[0].Timestamp))

	// The counter follows the imported positions.
	next, err := repo.Append(ctx, newEntry("c@x.com", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.Position)

	_, err = repo.Append(ctx, newEntry("b@X.com", ""))
	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.GetErrorType(err))
}

func TestWaitlistRepository_SaveRejectsDuplicateEmails(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")

	err := repo.Save(context.Background(), []*models.WaitlistEntry{
		{Email: "a@x.com", Position: 1, Timestamp: time.Now()},
		{Email: "A@x.com", Position: 2, Timestamp: time.Now()},
	})

	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.GetErrorType(err))
}

func TestWaitlistRepository_SaveSkipsNilEntries(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []*models.WaitlistEntry{
		nil,
		{Email: "a@x.com", Position: 1, Timestamp: time.Now()},
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestWaitlistRepository_LoadEmpty(t *testing.T) {
	repo := NewWaitlistRepository(newSQLiteDB(t), "waitlist")

	entries, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWaitlistRepository_Ping(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewWaitlistRepository(db, "waitlist")

	assert.NoError(t, repo.Ping(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.Equal(t, apperrors.ErrorTypeDatabaseError, apperrors.GetErrorType(repo.Ping(context.Background())))
}
