package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/swipe-server/internal/db"
	svcErr "github.com/oggyb/swipe-server/internal/errors"
	"github.com/oggyb/swipe-server/internal/utils/geo"
)

// candidateScanCap bounds how many rows a discovery query pulls before the
// in-process age and distance filters run.
const candidateScanCap = 1000

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Take(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActive loads a user that is allowed to appear to others.
func (r *UserRepository) GetActive(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND account_status = ?", id, db.AccountActive).
		Take(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads active users and returns them in the order of ids.
// Unknown or inactive ids are skipped.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint64) ([]db.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND account_status = ?", ids, db.AccountActive).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]db.User, len(rows))
	for _, u := range rows {
		byID[u.ID] = u
	}
	out := make([]db.User, 0, len(rows))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Balance returns the current coin balance.
func (r *UserRepository) Balance(ctx context.Context, id uint64) (int64, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Select("id", "coins").
		Take(&u, id).Error
	return u.Coins, err
}

// ChargeCoins debits amount only if the balance covers it and returns the
// new balance. A short balance yields svcErr.ErrInsufficientFunds and no write.
func (r *UserRepository) ChargeCoins(ctx context.Context, id uint64, amount int64) (int64, error) {
	if amount <= 0 {
		return r.Balance(ctx, id)
	}
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ? AND coins >= ?", id, amount).
		UpdateColumn("coins", gorm.Expr("coins - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Balance(ctx, id); err != nil {
			return 0, err
		}
		return 0, svcErr.ErrInsufficientFunds
	}
	return r.Balance(ctx, id)
}

// AddCoins credits amount and returns the new balance.
func (r *UserRepository) AddCoins(ctx context.Context, id uint64, amount int64) (int64, error) {
	if amount > 0 {
		err := r.db.WithContext(ctx).
			Model(&db.User{}).
			Where("id = ?", id).
			UpdateColumn("coins", gorm.Expr("coins + ?", amount)).Error
		if err != nil {
			return 0, err
		}
	}
	return r.Balance(ctx, id)
}

// UpdateFields applies a partial profile update. Keys are column names.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&db.User{ID: id}).Updates(fields).Error
}

func (r *UserRepository) SetBoost(ctx context.Context, id uint64, until time.Time) error {
	return r.UpdateFields(ctx, id, map[string]any{"boost_expires_at": until})
}

// SetTravel sets the travel override, or clears it when lat/lng are nil.
func (r *UserRepository) SetTravel(ctx context.Context, id uint64, lat, lng *float64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		Updates(map[string]any{"travel_latitude": lat, "travel_longitude": lng}).Error
}

func (r *UserRepository) TouchLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		UpdateColumn("last_login_at", at).Error
}

// CandidateQuery holds the SQL-side discovery filters. Age and exact distance
// are checked by the caller.
type CandidateQuery struct {
	Exclude   []uint64
	Gender    string
	HeightMin int
	HeightMax int
	Education string
	Religion  string
	Smoking   string
	BBox      *geo.BBox
	Limit     int
}

// Candidates returns active users matching q.
func (r *UserRepository) Candidates(ctx context.Context, q CandidateQuery) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("account_status = ?", db.AccountActive)

	if len(q.Exclude) > 0 {
		query = query.Where("id NOT IN ?", q.Exclude)
	}
	if q.Gender != "" {
		query = query.Where("LOWER(gender) IN ?", db.GenderValues(q.Gender))
	}
	if q.HeightMin > 0 {
		query = query.Where("height >= ?", q.HeightMin)
	}
	if q.HeightMax > 0 {
		query = query.Where("height <= ?", q.HeightMax)
	}
	if q.Education != "" {
		query = query.Where("education = ?", q.Education)
	}
	if q.Religion != "" {
		query = query.Where("religion = ?", q.Religion)
	}
	if q.Smoking != "" {
		query = query.Where("smoking = ?", q.Smoking)
	}
	if q.BBox != nil {
		query = query.Where("latitude BETWEEN ? AND ?", q.BBox.LatMin, q.BBox.LatMax)
		if q.BBox.CrossesAntimeridian() {
			query = query.Where("(longitude >= ? OR longitude <= ?)", q.BBox.LngMin, q.BBox.LngMax)
		} else {
			query = query.Where("longitude BETWEEN ? AND ?", q.BBox.LngMin, q.BBox.LngMax)
		}
		query = query.Order(nearestFirst(q.BBox))
	} else {
		query = query.Order("id")
	}

	limit := q.Limit
	if limit <= 0 || limit > candidateScanCap {
		limit = candidateScanCap
	}

	var users []db.User
	err := query.Limit(limit).Find(&users).Error
	return users, err
}

// lngDelta is the signed longitude difference to @lng, taken the short way
// around the antimeridian.
const lngDelta = "(CASE WHEN longitude - @lng > 180 THEN longitude - @lng - 360 " +
	"WHEN longitude - @lng < -180 THEN longitude - @lng + 360 " +
	"ELSE longitude - @lng END)"

// nearestFirst orders rows by planar distance to the box center, so the scan
// cap keeps the closest users rather than the oldest ids.
func nearestFirst(box *geo.BBox) clause.OrderBy {
	return clause.OrderBy{Expression: clause.NamedExpr{
		SQL: "(latitude - @lat) * (latitude - @lat) + " + lngDelta + " * " + lngDelta + " * @scale, id",
		Vars: []any{map[string]any{
			"lat":   box.Lat,
			"lng":   box.Lng,
			"scale": box.LngScale(),
		}},
	}}
}

// Search lists active users whose username or full name contains term.
func (r *UserRepository) Search(ctx context.Context, term string, exclude []uint64, limit int) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("account_status = ?", db.AccountActive)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("(LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?)", like, like)
	}

	var users []db.User
	err := query.Order("id").Limit(limit).Find(&users).Error
	return users, err
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
