// Package testutil wires an AppContext over in-memory SQLite and miniredis
// for service tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/cache"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/logger"
)

// Clock is a settable UTC clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now.UTC()} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now.UTC()
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// tickClock hands GORM strictly increasing timestamps so updated_at ordering
// is deterministic.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// Env is one isolated test environment.
type Env struct {
	App   *app.AppContext
	Clock *Clock
	Redis *miniredis.Miniredis
	Relay *Recorder
}

// Start is the default "now" of every Env: midday UTC.
var Start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// NewEnv builds an AppContext over a fresh in-memory SQLite database and a
// miniredis instance. Location is UTC and the relay records publishes.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	ticks := &tickClock{now: Start}
	database, err := db.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                ticks.Now,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.App.Timezone = "UTC"
	cfg.Auth.Secret = "test-secret"
	cfg.Pricing.Rewind = 50
	cfg.Pricing.ResetDislikes = 100
	cfg.Pricing.InstantMatch = 200
	cfg.Pricing.Rematch = 150
	cfg.Pricing.StartingCoins = 1000
	cfg.Discovery.Limit = 20
	cfg.Discovery.BoostLimit = 5
	cfg.Discovery.FallbackLimit = 20
	cfg.Discovery.DefaultDistance = 50
	cfg.Discovery.BoostDuration = 30 * time.Minute

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = redisCache.Close() })

	clock := NewClock(Start)
	recorder := &Recorder{}

	appCtx := app.New(cfg, database, redisCache, logger.Discard())
	appCtx.Now = clock.Now
	appCtx.Location = time.UTC
	appCtx.Relay = recorder

	return &Env{App: appCtx, Clock: clock, Redis: mr, Relay: recorder}
}

// User returns a minimal active user; callers tweak fields before SeedUsers.
func User(id uint64) db.User {
	return db.User{
		ID:            id,
		Username:      fmt.Sprintf("user%d", id),
		Email:         fmt.Sprintf("u%d@test.com", id),
		PasswordHash:  "x",
		AccountStatus: db.AccountActive,
		Coins:         1000,
	}
}

func (e *Env) SeedUsers(t *testing.T, users ...db.User) {
	t.Helper()
	for i := range users {
		require.NoError(t, e.App.DB.Create(&users[i]).Error)
	}
}

// Do serves one request against h as userID (0 = anonymous) and decodes the
// JSON reply into out when out is non-nil.
func Do(t *testing.T, h http.Handler, method, path string, userID uint64, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

// Published is one recorded relay event.
type Published struct {
	UserID  uint64
	Room    string
	Event   string
	Payload any
}

// Recorder is an app.Publisher that remembers every publish.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) PublishToUser(userID uint64, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{UserID: userID, Event: event, Payload: payload})
}

func (r *Recorder) PublishToRoom(room string, event string, payload any, _ uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Room: room, Event: event, Payload: payload})
}

// Events returns the recorded publishes named event.
func (r *Recorder) Events(event string) []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Published
	for _, p := range r.events {
		if p.Event == event {
			out = append(out, p)
		}
	}
	return out
}
