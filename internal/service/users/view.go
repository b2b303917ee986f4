package users

import (
	"time"

	"github.com/oggyb/swipe-server/internal/db"
)

// Profile is the public view of a user.
type Profile struct {
	ID                 uint64   `json:"id"`
	Username           string   `json:"username"`
	FullName           string   `json:"fullName"`
	Bio                string   `json:"bio,omitempty"`
	Age                *int     `json:"age,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	Height             int      `json:"height,omitempty"`
	Education          string   `json:"education,omitempty"`
	Religion           string   `json:"religion,omitempty"`
	Smoking            string   `json:"smoking,omitempty"`
	RelationshipIntent string   `json:"relationshipIntent,omitempty"`
	Interests          []string `json:"interests"`
	Gallery            []string `json:"gallery"`
	SpotifyAnthem      string   `json:"spotifyAnthem,omitempty"`
	IsBoosted          bool     `json:"isBoosted"`
	IsOnline           bool     `json:"isOnline"`
}

// Summary builds the public view. Online state is filled in by callers that
// have presence at hand.
func Summary(u *db.User, now time.Time) Profile {
	p := Profile{
		ID:                 u.ID,
		Username:           u.Username,
		FullName:           u.FullName,
		Bio:                u.Bio,
		Gender:             u.Gender,
		Height:             u.Height,
		Education:          u.Education,
		Religion:           u.Religion,
		Smoking:            u.Smoking,
		RelationshipIntent: u.RelationshipIntent,
		Interests:          nonNil(u.Interests),
		Gallery:            nonNil(u.Gallery),
		SpotifyAnthem:      u.SpotifyAnthem,
		IsBoosted:          u.IsBoosted(now),
	}
	if age, ok := u.Age(now); ok {
		p.Age = &age
	}
	return p
}

// Summaries maps Summary over users.
func Summaries(list []db.User, now time.Time) []Profile {
	out := make([]Profile, 0, len(list))
	for i := range list {
		out = append(out, Summary(&list[i], now))
	}
	return out
}

// Point is a latitude/longitude pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Me is the owner's view of their own account.
type Me struct {
	Profile
	Email          string     `json:"email"`
	InterestedIn   string     `json:"interestedIn,omitempty"`
	BirthDate      string     `json:"birthDate,omitempty"`
	Coins          int64      `json:"coins"`
	Location       Point      `json:"location"`
	TravelLocation *Point     `json:"travelLocation,omitempty"`
	BoostExpiresAt *time.Time `json:"boostExpiresAt,omitempty"`
	AutoReply      string     `json:"autoReply,omitempty"`
	Followers      int64      `json:"followers"`
	Following      int64      `json:"following"`
}

// ProfileDetail is another user's profile as seen by the viewer.
type ProfileDetail struct {
	Profile
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"isFollowing"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
