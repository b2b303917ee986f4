package users_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/swipe-server/internal/mission"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/users"
	"github.com/oggyb/swipe-server/internal/testutil"
)

func setupService(t *testing.T) (*users.Service, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)

	alice := testutil.User(1)
	alice.FullName = "Alice Smith"
	birth := time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC)
	alice.BirthDate = &birth
	alice.Interests = []string{"music"}

	bob := testutil.User(2)
	bob.FullName = "Bob Stone"
	carol := testutil.User(3)
	carol.FullName = "Carol Smith"

	env.SeedUsers(t, alice, bob, carol)
	return users.NewUserService(env.App), env
}

func mux(env *testutil.Env) http.Handler {
	m := http.NewServeMux()
	users.NewRegistrar(env.App).RegisterRoutes(m)
	return m
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)
	require.NoError(t, env.App.RedisCache.SetOnline(ctx, 1))

	me, err := svc.Me(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", me.FullName)
	assert.Equal(t, "1995-06-01", me.BirthDate)
	require.NotNil(t, me.Age)
	assert.Equal(t, 28, *me.Age)
	assert.Equal(t, int64(1000), me.Coins)
	assert.True(t, me.IsOnline)
	assert.Equal(t, []string{"music"}, me.Interests)
}

func TestUpdateMe_AppliesFieldsAndTracksMission(t *testing.T) {
	ctx := context.Background()
	svc, env := setupService(t)

	bio := "hello"
	lat, lng := 41.3, 69.2
	interests := []string{"chess", "tea"}
	me, err := svc.UpdateMe(ctx, 1, users.UpdateProfileRequest{
		Bio:       &bio,
		Latitude:  &lat,
		Longitude: &lng,
		Interests: &interests,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", me.Bio)
	assert.Equal(t, 41.3, me.Location.Latitude)
	assert.Equal(t, interests, me.Interests)

	p, err := repository.NewMissionRepository(env.App.DB).Get(ctx, 1, mission.UpdateProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Count)
}

func TestUpdateMe_NormalizesGender(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	gender, interest := " Woman ", "Men"
	me, err := svc.UpdateMe(ctx, 1, users.UpdateProfileRequest{Gender: &gender, InterestedIn: &interest})
	require.NoError(t, err)
	assert.Equal(t, "female", me.Gender)
	assert.Equal(t, "male", me.InterestedIn)
}

func TestUpdateMe_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	bad := "01/02/1990"
	_, err := svc.UpdateMe(ctx, 1, users.UpdateProfileRequest{BirthDate: &bad})
	assert.Error(t, err)

	lat := 95.0
	_, err = svc.UpdateMe(ctx, 1, users.UpdateProfileRequest{Latitude: &lat})
	assert.Error(t, err, "latitude without longitude")

	height := 400
	_, err = svc.UpdateMe(ctx, 1, users.UpdateProfileRequest{Height: &height})
	assert.Error(t, err)
}

func TestBlockHidesUsersBothWays(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	require.NoError(t, svc.Follow(ctx, 2, 1))
	require.NoError(t, svc.Block(ctx, 1, 2))

	list, err := svc.List(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(3), list[0].ID)

	list, err = svc.List(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(3), list[0].ID)

	_, err = svc.Get(ctx, 2, 1)
	assert.Error(t, err)

	me, err := svc.Me(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, me.Followers, "block drops follow edges")

	assert.Error(t, svc.Follow(ctx, 2, 1))

	require.NoError(t, svc.Unblock(ctx, 1, 2))
	_, err = svc.Get(ctx, 2, 1)
	assert.NoError(t, err)
}

func TestSearchAndFollow(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	list, err := svc.List(ctx, 1, "smith")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carol Smith", list[0].FullName)

	require.NoError(t, svc.Follow(ctx, 1, 3))
	require.NoError(t, svc.Follow(ctx, 1, 3))
	detail, err := svc.Get(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, detail.IsFollowing)
	assert.Equal(t, int64(1), detail.Followers)

	assert.Error(t, svc.Follow(ctx, 1, 1))
	assert.Error(t, svc.Follow(ctx, 1, 99))
}

func TestHandlers(t *testing.T) {
	_, env := setupService(t)
	h := mux(env)

	var me users.Me
	rec := testutil.Do(t, h, http.MethodGet, "/api/users/me", 1, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user1", me.Username)

	rec = testutil.Do(t, h, http.MethodPut, "/api/users/me", 1, map[string]any{"height": 180}, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 180, me.Height)

	rec = testutil.Do(t, h, http.MethodPost, "/api/users/3/follow", 1, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var detail users.ProfileDetail
	rec = testutil.Do(t, h, http.MethodGet, "/api/users/3", 1, nil, &detail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, detail.IsFollowing)

	rec = testutil.Do(t, h, http.MethodPost, "/api/users/3/block", 1, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = testutil.Do(t, h, http.MethodGet, "/api/users/1", 3, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Do(t, h, http.MethodGet, "/api/users/abc", 1, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var list []users.Profile
	rec = testutil.Do(t, h, http.MethodGet, "/api/users?search=bob", 1, nil, &list)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(2), list[0].ID)
}
