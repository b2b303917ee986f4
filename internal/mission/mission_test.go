package mission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/swipe-server/internal/errors"
)

func TestIsSameCalendarDay(t *testing.T) {
	tashkent := time.FixedZone("UTC+5", 5*60*60)

	tests := []struct {
		name string
		a, b time.Time
		loc  *time.Location
		want bool
	}{
		{
			name: "same instant",
			a:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: true,
		},
		{
			name: "start and end of day",
			a:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC),
			loc:  time.UTC,
			want: true,
		},
		{
			name: "midnight boundary",
			a:    time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC),
			b:    time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: false,
		},
		{
			name: "same UTC day splits in UTC+5",
			a:    time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), // 23:00 local
			b:    time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), // 01:00 next day local
			loc:  tashkent,
			want: false,
		},
		{
			name: "different UTC days join in UTC+5",
			a:    time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC),
			loc:  tashkent,
			want: true,
		},
		{
			name: "same day different year",
			a:    time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSameCalendarDay(tc.a, tc.b, tc.loc))
		})
	}
}

func TestLookup(t *testing.T) {
	def, ok := Lookup("swipe20Times")
	require.True(t, ok)
	assert.Equal(t, 20, def.Goal)
	assert.Equal(t, int64(75), def.Reward)

	_, ok = Lookup("sendGift")
	assert.False(t, ok)

	assert.Len(t, Catalogue(), 9)
}

func TestProgress_IncrementRollsOverOnNewDay(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	var p Progress
	p, changed := p.Increment(day1, time.UTC)
	require.True(t, changed)
	p, _ = p.Increment(day1.Add(time.Hour), time.UTC)
	assert.Equal(t, 2, p.Count)

	p, changed = p.Increment(day2, time.UTC)
	require.True(t, changed)
	assert.Equal(t, 1, p.Count)
}

func TestProgress_IncrementFrozenAfterClaim(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	def, _ := Lookup(string(SendSuperLike))

	p, _ := Progress{}.Increment(now, time.UTC)
	p, err := p.Claim(def, now, time.UTC)
	require.NoError(t, err)

	next, changed := p.Increment(now.Add(time.Minute), time.UTC)
	assert.False(t, changed)
	assert.Equal(t, p.Count, next.Count)
}

func TestProgress_ClaimTwiceSameDayThenNextDay(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	def, _ := Lookup(string(DailyLogin))

	p, err := Progress{}.Claim(def, day1, time.UTC)
	require.NoError(t, err)

	_, err = p.Claim(def, day1.Add(3*time.Hour), time.UTC)
	assert.ErrorIs(t, err, svcErr.ErrAlreadyClaimed)

	p, err = p.Claim(def, day2, time.UTC)
	require.NoError(t, err)
	assert.True(t, p.ClaimedToday(day2, time.UTC))
}

func TestProgress_ClaimRequiresGoal(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	def, _ := Lookup(string(JoinThreeRooms))

	p := Progress{}
	for i := 0; i < 2; i++ {
		p, _ = p.Increment(now, time.UTC)
	}
	_, err := p.Claim(def, now, time.UTC)
	assert.ErrorIs(t, err, svcErr.ErrMissionNotCompleted)

	p, _ = p.Increment(now, time.UTC)
	_, err = p.Claim(def, now, time.UTC)
	assert.NoError(t, err)
}

func TestProgress_YesterdaysCountDoesNotCompleteToday(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	def, _ := Lookup(string(SendSuperLike))

	p, _ := Progress{}.Increment(day1, time.UTC)

	_, err := p.Claim(def, day2, time.UTC)
	assert.ErrorIs(t, err, svcErr.ErrMissionNotCompleted)

	st := p.Status(def, day2, time.UTC)
	assert.False(t, st.Completed)
	assert.Equal(t, 0, st.Progress)
}

func TestProgress_Status(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	def, _ := Lookup(string(SendSuperLike))

	st := Progress{}.Status(def, now, time.UTC)
	assert.Equal(t, Status{Completed: false, Claimed: false, Progress: 0, Goal: 1, Reward: 30}, st)

	p, _ := Progress{}.Increment(now, time.UTC)
	st = p.Status(def, now, time.UTC)
	assert.True(t, st.Completed)

	p, err := p.Claim(def, now, time.UTC)
	require.NoError(t, err)
	st = p.Status(def, now, time.UTC)
	assert.False(t, st.Completed)
	assert.True(t, st.Claimed)
}
