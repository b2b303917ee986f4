package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/logger"
)

var seedInterests = []string{
	"music", "travel", "hiking", "cooking", "movies", "books",
	"gaming", "yoga", "photography", "coffee", "art", "football",
}

var seedReligions = []string{"", "islam", "christianity", "none"}
var seedSmoking = []string{"", "never", "socially", "regularly"}

// seedCenter is the point demo users are scattered around (within ~30km).
const (
	seedCenterLat = 41.3111
	seedCenterLng = 69.2797
)

// SeedTestData resets the database and populates it with demo users, likes
// and the matches those likes imply. It returns the seeded users.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords and profiles.
//  3. Generates ~200 likes with ~70% positive; every 3rd pair is made mutual
//     and linked as a match.
//
// Compatible with both MySQL and SQLite (sequence reset differs per dialect).
func SeedTestData(db *gorm.DB, startingCoins int64) ([]User, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{
		"room_messages", "room_participants", "rooms", "messages",
		"mission_progresses", "visits", "follows", "blocks",
		"matches", "likes", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE likes AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('likes', 'users')")
	}

	logger.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, interestedIn := "male", "female"
		if i > 10 {
			gender, interestedIn = "female", "male"
		}

		birth := time.Now().AddDate(-(19 + r.Intn(20)), -r.Intn(12), -r.Intn(28))
		lastLogin := time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour)

		user := User{
			Username:      fmt.Sprintf("user%d", i),
			Email:         fmt.Sprintf("user%d@example.com", i),
			PasswordHash:  string(hash),
			FullName:      fmt.Sprintf("Demo User %d", i),
			AccountStatus: AccountActive,
			BirthDate:     &birth,
			Gender:        gender,
			InterestedIn:  interestedIn,
			Height:        155 + r.Intn(40),
			Religion:      seedReligions[r.Intn(len(seedReligions))],
			Smoking:       seedSmoking[r.Intn(len(seedSmoking))],
			Interests:     pickInterests(r, 3),
			Latitude:      seedCenterLat + (r.Float64()-0.5)*0.5,
			Longitude:     seedCenterLng + (r.Float64()-0.5)*0.5,
			Coins:         startingCoins,
			LastLoginAt:   &lastLogin,
		}
		if i%5 == 0 {
			user.AutoReply = "Hey! Thanks for the match, tell me about your day."
		}

		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	logger.Info("seeded users", "count", len(users))

	// --- Seed Likes (~200) ---
	counter := 0
	for _, actor := range users {
		for j := 0; j < 12; j++ { // each user swipes on ~12 others
			recipient := users[r.Intn(len(users))]
			if actor.ID == recipient.ID || actor.Gender == recipient.Gender {
				continue
			}

			action := SwipeDislike
			if r.Intn(100) < 70 {
				action = SwipeLike
			}

			// guarantee a mutual like every 3rd pair
			if counter%3 == 0 {
				action = SwipeLike
				if err := upsertSeedLike(db, recipient.ID, actor.ID, SwipeLike); err != nil {
					return nil, err
				}
				for _, m := range []Match{
					{UserID: actor.ID, MatchedUserID: recipient.ID, Source: MatchMutual},
					{UserID: recipient.ID, MatchedUserID: actor.ID, Source: MatchMutual},
				} {
					if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
						return nil, fmt.Errorf("failed to seed match: %w", err)
					}
				}
			}

			if err := upsertSeedLike(db, actor.ID, recipient.ID, action); err != nil {
				return nil, err
			}
			counter++
		}
	}
	logger.Info("seeded likes", "count", counter)

	return users, nil
}

func upsertSeedLike(db *gorm.DB, likerID, likedID uint64, action string) error {
	like := Like{LikerID: likerID, LikedID: likedID, Type: action}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(&like).Error
	if err != nil {
		return fmt.Errorf("failed to seed like: %w", err)
	}
	return nil
}

func pickInterests(r *rand.Rand, n int) []string {
	idx := r.Perm(len(seedInterests))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, seedInterests[i])
	}
	return out
}
