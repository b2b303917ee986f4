// Package mission holds the daily mission catalogue and the rules for moving
// a user's progress through increment, claim and day rollover.
package mission

import (
	"time"

	svcErr "github.com/oggyb/swipe-server/internal/errors"
)

type Type string

const (
	DailyLogin      Type = "dailyLogin"
	SendTenMessages Type = "send10Messages"
	SwipeTwenty     Type = "swipe20Times"
	SendSuperLike   Type = "sendSuperLike"
	JoinThreeRooms  Type = "join3Rooms"
	SendRoomMessage Type = "sendRoomMessage"
	UpdateProfile   Type = "updateProfile"
	GetFirstLike    Type = "getFirstLike"
	ShareApp        Type = "shareApp"
)

// Definition is one catalogue entry. Goal 0 marks a simple daily action that
// can be claimed without any counted progress.
type Definition struct {
	Type   Type
	Goal   int
	Reward int64
}

var catalogue = []Definition{
	{Type: DailyLogin, Goal: 0, Reward: 50},
	{Type: SendTenMessages, Goal: 10, Reward: 100},
	{Type: SwipeTwenty, Goal: 20, Reward: 75},
	{Type: SendSuperLike, Goal: 1, Reward: 30},
	{Type: JoinThreeRooms, Goal: 3, Reward: 60},
	{Type: SendRoomMessage, Goal: 1, Reward: 25},
	{Type: UpdateProfile, Goal: 1, Reward: 50},
	{Type: GetFirstLike, Goal: 1, Reward: 30},
	{Type: ShareApp, Goal: 0, Reward: 250},
}

// Catalogue returns every mission definition in display order.
func Catalogue() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a definition by its wire name.
func Lookup(name string) (Definition, bool) {
	for _, d := range catalogue {
		if string(d.Type) == name {
			return d, true
		}
	}
	return Definition{}, false
}

// IsSameCalendarDay reports whether a and b fall on the same date in loc.
// A nil loc means time.Local.
func IsSameCalendarDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Progress is a user's state for one mission. Values are immutable; every
// transition returns a new Progress.
type Progress struct {
	Count       int
	CountedAt   *time.Time
	LastClaimAt *time.Time
}

// Status is the read model served by the status endpoint.
type Status struct {
	Completed bool  `json:"completed"`
	Claimed   bool  `json:"claimed"`
	Progress  int   `json:"progress"`
	Goal      int   `json:"goal"`
	Reward    int64 `json:"reward"`
}

// ClaimedToday reports whether the reward was already taken on now's date.
func (p Progress) ClaimedToday(now time.Time, loc *time.Location) bool {
	return p.LastClaimAt != nil && IsSameCalendarDay(*p.LastClaimAt, now, loc)
}

// Rollover drops a counter that belongs to an earlier day.
func (p Progress) Rollover(now time.Time, loc *time.Location) Progress {
	if p.CountedAt != nil && !IsSameCalendarDay(*p.CountedAt, now, loc) {
		p.Count = 0
		p.CountedAt = nil
	}
	return p
}

// Increment bumps today's counter. Once the mission is claimed for the day
// the counter freezes and changed is false.
func (p Progress) Increment(now time.Time, loc *time.Location) (next Progress, changed bool) {
	p = p.Rollover(now, loc)
	if p.ClaimedToday(now, loc) {
		return p, false
	}
	at := now
	p.Count++
	p.CountedAt = &at
	return p, true
}

// Claim stamps the claim for today. It fails if already claimed today or if
// a counted mission has not reached its goal.
func (p Progress) Claim(def Definition, now time.Time, loc *time.Location) (Progress, error) {
	p = p.Rollover(now, loc)
	if p.ClaimedToday(now, loc) {
		return p, svcErr.ErrAlreadyClaimed
	}
	if def.Goal > 0 && p.Count < def.Goal {
		return p, svcErr.ErrMissionNotCompleted
	}
	at := now
	p.LastClaimAt = &at
	return p, nil
}

// Status evaluates the mission after lazy rollover.
func (p Progress) Status(def Definition, now time.Time, loc *time.Location) Status {
	p = p.Rollover(now, loc)
	claimed := p.ClaimedToday(now, loc)
	return Status{
		Completed: p.Count >= def.Goal && !claimed,
		Claimed:   claimed,
		Progress:  p.Count,
		Goal:      def.Goal,
		Reward:    def.Reward,
	}
}
