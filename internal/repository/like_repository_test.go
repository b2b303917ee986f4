package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/repository"
)

// testClock hands out strictly increasing UTC timestamps so ordering by
// updated_at is deterministic.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	clock := newTestClock()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := db.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                clock.Now,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func seedUsers(t *testing.T, gdb *gorm.DB, coins int64, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		u := db.User{
			ID:            id,
			Username:      fmt.Sprintf("user%d", id),
			Email:         fmt.Sprintf("u%d@test.com", id),
			PasswordHash:  "x",
			AccountStatus: db.AccountActive,
			Coins:         coins,
		}
		require.NoError(t, gdb.Create(&u).Error)
	}
}

func TestLikeCreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	// insert like
	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 2, db.SwipeLike))

	// overwrite with dislike
	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 2, db.SwipeDislike))

	var likes []db.Like
	require.NoError(t, dbase.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.Equal(t, db.SwipeDislike, likes[0].Type)
}

func TestLikeCreate_DuplicatePairIsDuplicatedKey(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.Create(ctx, &db.Like{LikerID: 1, LikedID: 2, Type: db.SwipeLike}))
	err := repo.Create(ctx, &db.Like{LikerID: 1, LikedID: 2, Type: db.SwipeSuperlike})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestLikeHasPositive(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 2, db.SwipeReact))
	require.NoError(t, repo.CreateOrUpdate(ctx, 3, 2, db.SwipeDislike))

	ok, err := repo.HasPositive(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPositive(ctx, 3, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasPositive(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeLatestDeleteAndDeleteByType(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 2, db.SwipeDislike))
	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 3, db.SwipeLike))
	require.NoError(t, repo.CreateOrUpdate(ctx, 1, 4, db.SwipeDislike))

	latest, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), latest.LikedID)

	// updating an older record makes it the latest
	existing, err := repo.Find(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateType(ctx, existing.ID, db.SwipeSuperlike, "hi"))
	latest, err = repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.LikedID)
	assert.Equal(t, "hi", latest.Message)

	require.NoError(t, repo.Delete(ctx, latest.ID))
	_, err = repo.Find(ctx, 1, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := repo.DeleteByType(ctx, 1, db.SwipeDislike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, err := repo.SwipedIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{3}, ids)

	_, err = repo.Latest(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetLikersExcludesAlreadySwipedAndBlocked(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)
	social := repository.NewSocialRepository(dbase)

	// 1, 2, 3, 4 liked 99
	for _, id := range []uint64{1, 2, 3, 4} {
		require.NoError(t, repo.CreateOrUpdate(ctx, id, 99, db.SwipeLike))
	}
	// 5 disliked 99 → never a liker
	require.NoError(t, repo.CreateOrUpdate(ctx, 5, 99, db.SwipeDislike))
	// 99 already answered 2 (like) and 3 (dislike)
	require.NoError(t, repo.CreateOrUpdate(ctx, 99, 2, db.SwipeLike))
	require.NoError(t, repo.CreateOrUpdate(ctx, 99, 3, db.SwipeDislike))
	// 4 blocked 99
	require.NoError(t, social.Block(ctx, 4, 99))

	likes, next, err := repo.GetLikers(ctx, 99, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likes, 1)
	assert.Equal(t, uint64(1), likes[0].LikerID)

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetLikersPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	for id := uint64(1); id <= 5; id++ {
		require.NoError(t, repo.CreateOrUpdate(ctx, id, 99, db.SwipeLike))
	}

	page1, next, err := repo.GetLikers(ctx, 99, nil, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, uint64(5), page1[0].LikerID)
	assert.Equal(t, uint64(4), page1[1].LikerID)

	page2, next, err := repo.GetLikers(ctx, 99, next, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page2, 2)
	assert.Equal(t, uint64(3), page2[0].LikerID)
	assert.Equal(t, uint64(2), page2[1].LikerID)

	page3, next, err := repo.GetLikers(ctx, 99, next, 2)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page3, 1)
	assert.Equal(t, uint64(1), page3[0].LikerID)

	bad := "garbage!"
	_, _, err = repo.GetLikers(ctx, 99, &bad, 2)
	assert.Error(t, err)
}
