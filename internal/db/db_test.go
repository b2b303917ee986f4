package db_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := db.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, database.Create(&db.Like{LikerID: 1, LikedID: 2, Type: db.SwipeLike}).Error)
	err := database.Create(&db.Like{LikerID: 1, LikedID: 2, Type: db.SwipeDislike}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestUserJSONColumnsRoundTrip(t *testing.T) {
	database := openTestDB(t)

	u := db.User{
		Username:      "ann",
		Email:         "ann@example.com",
		PasswordHash:  "x",
		AccountStatus: db.AccountActive,
		Interests:     []string{"music", "travel"},
	}
	require.NoError(t, database.Create(&u).Error)

	var got db.User
	require.NoError(t, database.First(&got, u.ID).Error)
	assert.Equal(t, []string{"music", "travel"}, []string(got.Interests))
}

func TestUserLocationPrefersTravelOverride(t *testing.T) {
	u := db.User{Latitude: 1, Longitude: 2}
	lat, lng := u.Location()
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lng)

	tlat, tlng := 48.85, 2.35
	u.TravelLatitude, u.TravelLongitude = &tlat, &tlng
	lat, lng = u.Location()
	assert.Equal(t, 48.85, lat)
	assert.Equal(t, 2.35, lng)
}

func TestSwipeClassification(t *testing.T) {
	for _, a := range []string{db.SwipeLike, db.SwipeSuperlike, db.SwipeReact, db.SwipeInstant} {
		assert.True(t, db.IsPositiveSwipe(a), a)
		assert.True(t, db.IsValidSwipe(a), a)
	}
	assert.False(t, db.IsPositiveSwipe(db.SwipeDislike))
	assert.True(t, db.IsValidSwipe(db.SwipeDislike))
	assert.False(t, db.IsValidSwipe("poke"))
}

func TestSeedTestData(t *testing.T) {
	database := openTestDB(t)

	users, err := db.SeedTestData(database, 1000)
	require.NoError(t, err)
	require.Len(t, users, 20)

	for _, u := range users {
		assert.Equal(t, int64(1000), u.Coins)
		assert.Equal(t, db.AccountActive, u.AccountStatus)
	}

	// every match row has its mirror
	var matches []db.Match
	require.NoError(t, database.Find(&matches).Error)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		var mirror int64
		database.Model(&db.Match{}).
			Where("user_id = ? AND matched_user_id = ?", m.MatchedUserID, m.UserID).
			Count(&mirror)
		assert.Equal(t, int64(1), mirror)
	}
}

func TestUserAgeAndZodiac(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var u db.User
	_, ok := u.Age(now)
	assert.False(t, ok)
	assert.Empty(t, u.ZodiacSign())

	birth := time.Date(1990, 5, 2, 0, 0, 0, 0, time.UTC)
	u.BirthDate = &birth
	age, ok := u.Age(now)
	require.True(t, ok)
	assert.Equal(t, 33, age, "birthday not reached yet")
	assert.Equal(t, "taurus", u.ZodiacSign())

	birth = time.Date(1990, 12, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "capricorn", u.ZodiacSign())
	birth = time.Date(1990, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "capricorn", u.ZodiacSign())
	birth = time.Date(1990, 3, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "aries", u.ZodiacSign())
}
