package db

import (
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Account states. Only active users show up in discovery and search.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
)

// Canonical gender values. Profile writes store these; filters also accept
// the aliases below in any case so older rows still match.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

var genderAliases = map[string][]string{
	GenderMale:   {"male", "man", "men"},
	GenderFemale: {"female", "woman", "women"},
}

// NormalizeGender maps a gender or interest value to its canonical form:
// "Woman", "women" and "FEMALE" all become "female". Unknown values are
// lowercased.
func NormalizeGender(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for canonical, aliases := range genderAliases {
		if slices.Contains(aliases, v) {
			return canonical
		}
	}
	return v
}

// GenderValues lists the lowercased stored values that mean gender.
func GenderValues(gender string) []string {
	g := NormalizeGender(gender)
	if aliases, ok := genderAliases[g]; ok {
		return aliases
	}
	return []string{g}
}

// Swipe actions stored in Like.Type.
const (
	SwipeLike      = "like"
	SwipeDislike   = "dislike"
	SwipeSuperlike = "superlike"
	SwipeReact     = "react"
	SwipeInstant   = "instant"
)

// IsPositiveSwipe reports whether the action counts toward a mutual match.
func IsPositiveSwipe(action string) bool {
	switch action {
	case SwipeLike, SwipeSuperlike, SwipeReact, SwipeInstant:
		return true
	}
	return false
}

// IsValidSwipe reports whether the action is one of the known swipe types.
func IsValidSwipe(action string) bool {
	return action == SwipeDislike || IsPositiveSwipe(action)
}

// User table
type User struct {
	ID                 uint64 `gorm:"primaryKey;autoIncrement"`
	Username           string `gorm:"uniqueIndex;size:64;not null"`
	Email              string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash       string `gorm:"size:255;not null"`
	FullName           string `gorm:"size:128"`
	Bio                string `gorm:"size:1000"`
	AccountStatus      string `gorm:"size:16;not null;index"`
	BirthDate          *time.Time
	Gender             string `gorm:"size:16;index"`
	InterestedIn       string `gorm:"size:16"`
	Height             int
	Education          string `gorm:"size:64"`
	Religion           string `gorm:"size:64"`
	Smoking            string `gorm:"size:32"`
	RelationshipIntent string `gorm:"size:64"`

	Interests datatypes.JSONSlice[string]
	Gallery   datatypes.JSONSlice[string]

	Latitude        float64 `gorm:"index:idx_users_lat_lng,priority:1"`
	Longitude       float64 `gorm:"index:idx_users_lat_lng,priority:2"`
	TravelLatitude  *float64
	TravelLongitude *float64

	// Coins never goes below zero; debits go through a conditional UPDATE.
	Coins          int64 `gorm:"not null"`
	BoostExpiresAt *time.Time `gorm:"index"`
	AutoReply      string     `gorm:"size:500"`
	SpotifyAnthem  string     `gorm:"size:255"`

	LastLoginAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Location returns the point discovery measures from: the travel override
// when set, otherwise the live location.
func (u *User) Location() (lat, lng float64) {
	if u.TravelLatitude != nil && u.TravelLongitude != nil {
		return *u.TravelLatitude, *u.TravelLongitude
	}
	return u.Latitude, u.Longitude
}

// Age returns whole years at now; ok is false when no birth date is set.
func (u *User) Age(now time.Time) (age int, ok bool) {
	if u.BirthDate == nil {
		return 0, false
	}
	b := u.BirthDate.UTC()
	n := now.UTC()
	age = n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		age--
	}
	return age, true
}

// zodiacStarts holds the first day of each sign, starting with Capricorn's
// January tail.
var zodiacStarts = []struct {
	month time.Month
	day   int
	sign  string
}{
	{time.January, 1, "capricorn"},
	{time.January, 20, "aquarius"},
	{time.February, 19, "pisces"},
	{time.March, 21, "aries"},
	{time.April, 20, "taurus"},
	{time.May, 21, "gemini"},
	{time.June, 21, "cancer"},
	{time.July, 23, "leo"},
	{time.August, 23, "virgo"},
	{time.September, 23, "libra"},
	{time.October, 23, "scorpio"},
	{time.November, 22, "sagittarius"},
	{time.December, 22, "capricorn"},
}

// ZodiacSign derives the western zodiac sign from the birth date, or "".
func (u *User) ZodiacSign() string {
	if u.BirthDate == nil {
		return ""
	}
	m, d := u.BirthDate.UTC().Month(), u.BirthDate.UTC().Day()
	sign := ""
	for _, z := range zodiacStarts {
		if m > z.month || (m == z.month && d >= z.day) {
			sign = z.sign
		}
	}
	return sign
}

// IsBoosted reports whether the boost window is still open at now.
func (u *User) IsBoosted(now time.Time) bool {
	return u.BoostExpiresAt != nil && u.BoostExpiresAt.After(now)
}

// Like is one user's swipe on another.
//
// Unique (LikerID, LikedID): a repeat swipe updates Type in place.
//
// Indexes:
//   - idx_liked_type_updated(liked_id, type, updated_at DESC) serves "who liked me".
//   - idx_liker_updated(liker_id, updated_at DESC) serves rewind and exclusion lists.
type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	LikerID   uint64    `gorm:"not null;uniqueIndex:idx_liker_liked,priority:1;index:idx_liker_updated,priority:1"`
	LikedID   uint64    `gorm:"not null;uniqueIndex:idx_liker_liked,priority:2;index:idx_liked_type_updated,priority:1"`
	Type      string    `gorm:"size:16;not null;index:idx_liked_type_updated,priority:2"`
	Message   string    `gorm:"size:500"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_liked_type_updated,priority:3,sort:desc;index:idx_liker_updated,priority:2,sort:desc"`
}

// Match sources.
const (
	MatchMutual  = "mutual"
	MatchInstant = "instant"
	MatchRematch = "rematch"
)

// Match is one direction of the symmetric match relation. Every match is
// stored as two rows, (a, b) and (b, a), written in the same transaction.
type Match struct {
	UserID        uint64    `gorm:"primaryKey"`
	MatchedUserID uint64    `gorm:"primaryKey;index"`
	Source        string    `gorm:"size:16;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// Block is a directed block edge.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Follow is a directed follow edge.
type Follow struct {
	FollowerID uint64    `gorm:"primaryKey"`
	FolloweeID uint64    `gorm:"primaryKey;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Visit is an append-only profile visit log.
type Visit struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	VisitorID uint64    `gorm:"not null;index"`
	VisitedID uint64    `gorm:"not null;index:idx_visited_at,priority:1"`
	VisitedAt time.Time `gorm:"not null;index:idx_visited_at,priority:2,sort:desc"`
}

// MissionProgress stores one user's counter for one mission type.
// CountedAt is the moment of the last increment and tells which day Count
// belongs to.
type MissionProgress struct {
	UserID      uint64 `gorm:"primaryKey"`
	Mission     string `gorm:"primaryKey;size:32"`
	Count       int    `gorm:"not null"`
	CountedAt   *time.Time
	LastClaimAt *time.Time
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Message types.
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageFile  = "file"
	MessageVoice = "voice"
)

// Message is a direct message. It is stored either in SQL or in MongoDB,
// hence the bson tags.
type Message struct {
	ID         string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	SenderID   uint64     `gorm:"not null;index:idx_messages_pair,priority:1" bson:"sender_id" json:"senderId"`
	ReceiverID uint64     `gorm:"not null;index:idx_messages_pair,priority:2" bson:"receiver_id" json:"receiverId"`
	Body       string     `gorm:"type:text" bson:"body" json:"message"`
	Type       string     `gorm:"size:16;not null" bson:"type" json:"type"`
	FileKey    string     `gorm:"size:255" bson:"file_key,omitempty" json:"fileKey,omitempty"`
	FileName   string     `gorm:"size:255" bson:"file_name,omitempty" json:"fileName,omitempty"`
	FileSize   int64      `bson:"file_size,omitempty" json:"fileSize,omitempty"`
	MimeType   string     `gorm:"size:128" bson:"mime_type,omitempty" json:"mimeType,omitempty"`
	FileURL    string     `gorm:"-" bson:"-" json:"fileUrl,omitempty"`
	ReplyToID  string     `gorm:"size:36" bson:"reply_to,omitempty" json:"replyTo,omitempty"`
	IsRead     bool       `bson:"is_read" json:"isRead"`
	ReadAt     *time.Time `bson:"read_at,omitempty" json:"readAt,omitempty"`
	ExpireAt   *time.Time `gorm:"index" bson:"expire_at" json:"expireAt,omitempty"`
	CreatedAt  time.Time  `gorm:"index" bson:"created_at" json:"createdAt"`
}

// Room is a group chat room.
type Room struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"size:128;not null" json:"title"`
	Description     string    `gorm:"size:1000" json:"description"`
	Category        string    `gorm:"size:64;index" json:"category"`
	CreatorID       uint64    `gorm:"not null;index" json:"creatorId"`
	IsActive        bool      `gorm:"not null;index" json:"isActive"`
	MaxParticipants int       `json:"maxParticipants,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// RoomParticipant is room membership. The composite key gives set semantics.
type RoomParticipant struct {
	RoomID   uint64    `gorm:"primaryKey"`
	UserID   uint64    `gorm:"primaryKey;index"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// Room message types.
const (
	RoomMessageText   = "text"
	RoomMessageImage  = "image"
	RoomMessageSystem = "system"
)

// RoomMessage is a message posted to a room.
type RoomMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    uint64    `gorm:"not null;index:idx_room_messages_room_created,priority:1" json:"roomId"`
	SenderID  uint64    `gorm:"not null" json:"senderId"`
	Body      string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_room_messages_room_created,priority:2" json:"createdAt"`
}

// Models lists every table AutoMigrate manages.
func Models() []any {
	return []any{
		&User{},
		&Like{},
		&Match{},
		&Block{},
		&Follow{},
		&Visit{},
		&MissionProgress{},
		&Message{},
		&Room{},
		&RoomParticipant{},
		&RoomMessage{},
	}
}
