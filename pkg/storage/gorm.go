package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrHaila/kantama/pkg/core"
)

// seedBatchSize bounds the row count of one bulk insert wave.
const seedBatchSize = 500

// GormStore implements core.Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying GORM handle.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates the necessary tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.Zone{},
		&core.RouteRecord{},
		&core.ProgressEntry{},
		&core.TimeBucket{},
		&core.ReachabilityScore{},
	)
}

// SaveZones upserts the given zones by ID.
func (s *GormStore) SaveZones(ctx context.Context, zones []core.Zone) error {
	if len(zones) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(zones, seedBatchSize).Error
}

// ListZones returns zones for a group, or all zones when groupKey is empty.
// Results are ordered by ID so iteration order is deterministic.
func (s *GormStore) ListZones(ctx context.Context, groupKey string) ([]core.Zone, error) {
	var zones []core.Zone
	q := s.db.WithContext(ctx).Order("id ASC")
	if groupKey != "" {
		q = q.Where("group_key = ?", groupKey)
	}
	err := q.Find(&zones).Error
	return zones, err
}

// GroupKeys returns the distinct zone group keys in ascending order.
func (s *GormStore) GroupKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&core.Zone{}).
		Distinct("group_key").
		Order("group_key ASC").
		Pluck("group_key", &keys).Error
	return keys, err
}

// SeedRoutes bulk-creates pending records covering every ordered pair of
// zones that share a group key, for every period and mode. Self-pairs are
// never generated; existing records are left untouched, so seeding is
// idempotent. Returns the number of newly created records.
func (s *GormStore) SeedRoutes(ctx context.Context, zones []core.Zone, periods []core.Period, modes []core.TravelMode) (int64, error) {
	if len(zones) == 0 {
		return 0, core.ErrNoZones
	}

	byGroup := make(map[string][]core.Zone)
	for _, z := range zones {
		byGroup[z.GroupKey] = append(byGroup[z.GroupKey], z)
	}

	var created int64
	for _, members := range byGroup {
		var batch []core.RouteRecord
		for _, from := range members {
			for _, to := range members {
				if from.ID == to.ID {
					continue
				}
				for _, p := range periods {
					for _, m := range modes {
						batch = append(batch, core.RouteRecord{
							FromID: from.ID,
							ToID:   to.ID,
							Period: p,
							Mode:   m,
							Status: core.StatusPending,
						})
					}
				}
			}
		}
		if len(batch) == 0 {
			continue
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(batch, seedBatchSize)
		if res.Error != nil {
			return created, fmt.Errorf("seed routes: %w", res.Error)
		}
		created += res.RowsAffected
	}
	return created, nil
}

// routeQuery applies a RouteFilter to a record query.
func (s *GormStore) routeQuery(ctx context.Context, f core.RouteFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&core.RouteRecord{})
	if len(f.GroupMembers) > 0 {
		q = q.Where("from_id IN ?", f.GroupMembers).Where("to_id IN ?", f.GroupMembers)
	}
	if f.Period != "" {
		q = q.Where("period = ?", f.Period)
	}
	if f.Mode != "" {
		q = q.Where("mode = ?", f.Mode)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// PendingRoutes bulk-reads the pairs matching the filter. When the filter
// carries no status it defaults to pending, which is the task-generation
// path; the retry-failed path passes StatusError instead.
func (s *GormStore) PendingRoutes(ctx context.Context, f core.RouteFilter) ([]core.RoutePair, error) {
	if f.Status == "" {
		f.Status = core.StatusPending
	}

	var records []core.RouteRecord
	err := s.routeQuery(ctx, f).
		Order("from_id ASC, to_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	pairs := make([]core.RoutePair, 0, len(records))
	for i := range records {
		pairs = append(pairs, records[i].Pair())
	}
	return pairs, nil
}

// SaveOutcome idempotently upserts one finished record, keyed by the
// (from, to, period, mode) tuple. Exactly one write per task, whatever
// the outcome.
func (s *GormStore) SaveOutcome(ctx context.Context, rec *core.RouteRecord) error {
	if rec.FromID == rec.ToID {
		return core.ErrSelfPair
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "from_id"}, {Name: "to_id"}, {Name: "period"}, {Name: "mode"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "duration", "transfers", "walk_distance", "legs", "updated_at",
			}),
		}).
		Create(rec).Error
}

// CountByStatus returns status-bucketed record counts for the filter.
// These counts, not the ledger, are the authoritative resume signal.
func (s *GormStore) CountByStatus(ctx context.Context, f core.RouteFilter) (core.StatusCounts, error) {
	f.Status = "" // count every status

	var rows []struct {
		Status core.RouteStatus
		N      int64
	}
	err := s.routeQuery(ctx, f).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return core.StatusCounts{}, err
	}

	var counts core.StatusCounts
	for _, r := range rows {
		counts.Total += r.N
		switch r.Status {
		case core.StatusPending:
			counts.Pending = r.N
		case core.StatusOK:
			counts.OK = r.N
		case core.StatusNoRoute:
			counts.NoRoute = r.N
		case core.StatusError:
			counts.Errors = r.N
		}
	}
	return counts, nil
}

// ResetRoutes is the explicit bulk reset: matching records revert to
// pending and all four outcome fields are cleared together.
func (s *GormStore) ResetRoutes(ctx context.Context, f core.RouteFilter) (int64, error) {
	// An empty filter is a legitimate full-matrix reset.
	res := s.routeQuery(ctx, f).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Updates(map[string]any{
		"status":        core.StatusPending,
		"duration":      nil,
		"transfers":     nil,
		"walk_distance": nil,
		"legs":          nil,
	})
	return res.RowsAffected, res.Error
}

// OKDurations returns the successful durations for a period and mode,
// sorted ascending.
func (s *GormStore) OKDurations(ctx context.Context, period core.Period, mode core.TravelMode) ([]int, error) {
	var durations []int
	err := s.db.WithContext(ctx).
		Model(&core.RouteRecord{}).
		Where("status = ?", core.StatusOK).
		Where("period = ?", period).
		Where("mode = ?", mode).
		Order("duration ASC").
		Pluck("duration", &durations).Error
	return durations, err
}

// RoutesByOrigin returns every non-pending record for a period and mode,
// grouped by origin zone.
func (s *GormStore) RoutesByOrigin(ctx context.Context, period core.Period, mode core.TravelMode) (map[string][]core.RouteRecord, error) {
	var records []core.RouteRecord
	err := s.db.WithContext(ctx).
		Where("status <> ?", core.StatusPending).
		Where("period = ?", period).
		Where("mode = ?", mode).
		Order("from_id ASC, to_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	byOrigin := make(map[string][]core.RouteRecord)
	for i := range records {
		byOrigin[records[i].FromID] = append(byOrigin[records[i].FromID], records[i])
	}
	return byOrigin, nil
}

// GetProgress retrieves a ledger entry, or nil if none exists.
func (s *GormStore) GetProgress(ctx context.Context, groupKey string, period core.Period) (*core.ProgressEntry, error) {
	var entry core.ProgressEntry
	err := s.db.WithContext(ctx).
		First(&entry, "group_key = ? AND period = ?", groupKey, period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutProgress upserts a ledger entry keyed by (group, period).
func (s *GormStore) PutProgress(ctx context.Context, entry *core.ProgressEntry) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_key"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "total", "last_update"}),
		}).
		Create(entry).Error
}

// SaveBuckets persists a full bucket set.
func (s *GormStore) SaveBuckets(ctx context.Context, buckets []core.TimeBucket) error {
	if len(buckets) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&buckets).Error
}

// GetBuckets returns the bucket set for a period and kind in ordinal order.
func (s *GormStore) GetBuckets(ctx context.Context, period core.Period, kind core.BucketKind) ([]core.TimeBucket, error) {
	var buckets []core.TimeBucket
	err := s.db.WithContext(ctx).
		Where("period = ? AND kind = ?", period, kind).
		Order("ordinal ASC").
		Find(&buckets).Error
	return buckets, err
}

// DeleteBuckets removes the bucket set for a period and kind.
func (s *GormStore) DeleteBuckets(ctx context.Context, period core.Period, kind core.BucketKind) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("period = ? AND kind = ?", period, kind).
		Delete(&core.TimeBucket{})
	return res.RowsAffected, res.Error
}

// SaveScores persists a full per-period score set.
func (s *GormStore) SaveScores(ctx context.Context, scores []core.ReachabilityScore) error {
	if len(scores) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(&scores, seedBatchSize).Error
}

// GetScores returns the score set for a period in rank order.
func (s *GormStore) GetScores(ctx context.Context, period core.Period) ([]core.ReachabilityScore, error) {
	var scores []core.ReachabilityScore
	err := s.db.WithContext(ctx).
		Where("period = ?", period).
		Order("rank ASC").
		Find(&scores).Error
	return scores, err
}

// DeleteScores removes the score set for a period.
func (s *GormStore) DeleteScores(ctx context.Context, period core.Period) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("period = ?", period).
		Delete(&core.ReachabilityScore{})
	return res.RowsAffected, res.Error
}
