package match

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/service/users"
	"github.com/oggyb/swipe-server/internal/utils/geo"
)

const (
	defaultMinAge = 18
	defaultMaxAge = 99
	topPicksLimit = 10
	blindDatePool = 10
	scoreBase     = 50
	scoreInterest = 10
	scoreZodiac   = 5
	scoreReligion = 10
	scoreSmoking  = 10
	scoreMax      = 100
	scoreMin      = 0
)

// DiscoveryQuery carries the optional discovery filters. Zero values mean
// "not set".
type DiscoveryQuery struct {
	MinAge    int
	MaxAge    int
	Gender    string
	Distance  float64
	HeightMin int
	HeightMax int
	Education string
	Religion  string
	Smoking   string
	Global    bool
}

// Candidate is one discovery card.
type Candidate struct {
	users.Profile
	DistanceKm    *float64 `json:"distanceKm,omitempty"`
	Compatibility int      `json:"compatibility"`
}

// genderFilter resolves the gender to query: the explicit filter, else the
// user's interest, both in canonical form. "everyone" style values disable
// the filter.
func genderFilter(requested string, me *db.User) string {
	g := db.NormalizeGender(requested)
	if g == "" {
		g = db.NormalizeGender(me.InterestedIn)
	}
	switch g {
	case "everyone", "all", "both", "any":
		return ""
	}
	return g
}

// Discovery builds the swipe deck for userID.
//
// Behavior:
//   - Excludes self, everyone already swiped and blocks in both directions.
//   - With a non-zero location and Global off, restricts to Distance km
//     (bounding box in SQL, haversine in process) and keeps the nearest.
//   - Boosted users lead, capped at BoostLimit; regular users fill up to Limit.
//     Each pool is shuffled.
//   - An empty result falls back to up to FallbackLimit unfiltered users.
//   - Every card carries a compatibility score.
func (s *Service) Discovery(ctx context.Context, userID uint64, q DiscoveryQuery) ([]Candidate, error) {
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude, err := s.exclusions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if q.MinAge <= 0 {
		q.MinAge = defaultMinAge
	}
	if q.MaxAge <= 0 {
		q.MaxAge = defaultMaxAge
	}
	if q.MinAge > q.MaxAge {
		return nil, svcErr.InvalidArgument("minAge must not exceed maxAge")
	}
	if q.Distance <= 0 {
		q.Distance = s.appCtx.Config.Discovery.DefaultDistance
	}

	cq := repository.CandidateQuery{
		Exclude:   exclude,
		Gender:    genderFilter(q.Gender, me),
		HeightMin: q.HeightMin,
		HeightMax: q.HeightMax,
		Education: q.Education,
		Religion:  q.Religion,
		Smoking:   q.Smoking,
	}
	lat, lng := me.Location()
	useGeo := !q.Global && (lat != 0 || lng != 0)
	if useGeo {
		box := geo.BBoxFromPoint(lat, lng, q.Distance)
		cq.BBox = &box
	}

	rows, err := s.userRepo.Candidates(ctx, cq)
	if err != nil {
		return nil, err
	}

	now := s.appCtx.Now()
	widenedAge := q.MinAge <= defaultMinAge && q.MaxAge >= defaultMaxAge
	distances := make(map[uint64]float64, len(rows))
	kept := rows[:0]
	for _, u := range rows {
		age, known := u.Age(now)
		if known && (age < q.MinAge || age > q.MaxAge) {
			continue
		}
		if !known && !widenedAge {
			continue
		}
		if useGeo {
			ulat, ulng := u.Location()
			d := geo.HaversineKm(lat, lng, ulat, ulng)
			if d > q.Distance {
				continue
			}
			distances[u.ID] = d
		}
		kept = append(kept, u)
	}
	if useGeo {
		sort.SliceStable(kept, func(i, j int) bool { return distances[kept[i].ID] < distances[kept[j].ID] })
	}

	deck := s.pools(kept)
	if len(deck) == 0 {
		deck, err = s.userRepo.Candidates(ctx, repository.CandidateQuery{
			Exclude: exclude,
			Limit:   s.appCtx.Config.Discovery.FallbackLimit,
		})
		if err != nil {
			return nil, err
		}
		shuffle(deck)
	}

	out := make([]Candidate, 0, len(deck))
	for i := range deck {
		c := Candidate{
			Profile:       users.Summary(&deck[i], now),
			Compatibility: Compatibility(me, &deck[i]),
		}
		if d, ok := distances[deck[i].ID]; ok {
			c.DistanceKm = &d
		}
		out = append(out, c)
	}
	return out, nil
}

// pools splits ordered candidates into the boosted lead and the regular
// tail, truncates both and shuffles each.
func (s *Service) pools(ordered []db.User) []db.User {
	now := s.appCtx.Now()
	limit := s.appCtx.Config.Discovery.Limit
	boostLimit := min(s.appCtx.Config.Discovery.BoostLimit, limit)

	var boosted, regular []db.User
	for _, u := range ordered {
		if u.IsBoosted(now) && len(boosted) < boostLimit {
			boosted = append(boosted, u)
			continue
		}
		regular = append(regular, u)
	}
	if room := limit - len(boosted); len(regular) > room {
		regular = regular[:room]
	}

	shuffle(boosted)
	shuffle(regular)
	return append(boosted, regular...)
}

func shuffle(list []db.User) {
	rand.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
}

// Compatibility scores b for a: base 50, +10 per shared interest, +5 same
// zodiac sign, +10 same religion, +10 same smoking habit, clamped to 0..100.
func Compatibility(a, b *db.User) int {
	score := scoreBase

	mine := make(map[string]struct{}, len(a.Interests))
	for _, tag := range a.Interests {
		mine[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b.Interests))
	for _, tag := range b.Interests {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := mine[tag]; ok {
			score += scoreInterest
		}
	}

	if z := a.ZodiacSign(); z != "" && z == b.ZodiacSign() {
		score += scoreZodiac
	}
	if a.Religion != "" && strings.EqualFold(a.Religion, b.Religion) {
		score += scoreReligion
	}
	if a.Smoking != "" && strings.EqualFold(a.Smoking, b.Smoking) {
		score += scoreSmoking
	}
	return max(scoreMin, min(score, scoreMax))
}

// TopPicks returns up to ten non-excluded users with the best score.
func (s *Service) TopPicks(ctx context.Context, userID uint64) ([]Candidate, error) {
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude, err := s.exclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.userRepo.Candidates(ctx, repository.CandidateQuery{
		Exclude: exclude,
		Gender:  genderFilter("", me),
	})
	if err != nil {
		return nil, err
	}

	now := s.appCtx.Now()
	out := make([]Candidate, 0, len(rows))
	for i := range rows {
		out = append(out, Candidate{
			Profile:       users.Summary(&rows[i], now),
			Compatibility: Compatibility(me, &rows[i]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Compatibility > out[j].Compatibility })
	if len(out) > topPicksLimit {
		out = out[:topPicksLimit]
	}
	return out, nil
}

// BlindDate picks a random partner among up to ten non-excluded users.
func (s *Service) BlindDate(ctx context.Context, userID uint64) (*Candidate, error) {
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude, err := s.exclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.userRepo.Candidates(ctx, repository.CandidateQuery{
		Exclude: exclude,
		Gender:  genderFilter("", me),
		Limit:   blindDatePool,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, svcErr.NotFound("no blind date available")
	}

	pick := &rows[rand.IntN(len(rows))]
	return &Candidate{
		Profile:       users.Summary(pick, s.appCtx.Now()),
		Compatibility: Compatibility(me, pick),
	}, nil
}
