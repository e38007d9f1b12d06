package kantama_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MrHaila/kantama"
)

// setupTestStore creates an in-memory SQLite store for use in tests.
func setupTestStore(t *testing.T) *kantama.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := kantama.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// gridClassifier answers every query with a duration derived from the
// pair, so read-models have a spread sample to work with.
type gridClassifier struct{}

func (gridClassifier) Plan(_ context.Context, from, to kantama.Zone, _ kantama.TravelMode, _, _ string) (*kantama.PlanResult, error) {
	duration := 300 + (int(from.Lat*100)+int(to.Lon*100))%3600
	return &kantama.PlanResult{
		Status:       kantama.StatusOK,
		Duration:     duration,
		Transfers:    1,
		WalkDistance: 300,
		Legs:         []kantama.Leg{{Mode: "BUS", Duration: duration, From: from.Name, To: to.Name}},
	}, nil
}

func testZones(n int) []kantama.Zone {
	zones := make([]kantama.Zone, 0, n)
	for i := 0; i < n; i++ {
		zones = append(zones, kantama.Zone{
			ID:       fmt.Sprintf("%05d", 100+i),
			GroupKey: "helsinki",
			Name:     fmt.Sprintf("District %d", i),
			Lat:      60.1 + float64(i)*0.037,
			Lon:      24.8 + float64(i)*0.053,
		})
	}
	return zones
}

func TestFacade_FullPipeline(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.SaveZones(ctx, testZones(5)))

	cfg := kantama.RunConfig{Periods: []kantama.Period{kantama.PeriodMorning}}
	sched := kantama.NewScheduler(store, gridClassifier{}, cfg)

	created, err := sched.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), created, "5 zones make 5*4 ordered pairs")

	summary, err := sched.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), summary.Processed)
	assert.Equal(t, int64(20), summary.OK)

	set, err := kantama.NewBucketizer(store).Compute(ctx, kantama.PeriodMorning, kantama.ModeTransit, kantama.BucketFixed, false)
	require.NoError(t, err)
	assert.Len(t, set, 6)

	deciles, err := kantama.NewBucketizer(store).Compute(ctx, kantama.PeriodMorning, kantama.ModeTransit, kantama.BucketDecile, false)
	require.NoError(t, err)
	assert.Len(t, deciles, 10)

	scores, err := kantama.NewScorer(store).ComputeAndStore(ctx, kantama.PeriodMorning, kantama.ModeTransit, false)
	require.NoError(t, err)
	require.Len(t, scores, 5)
	assert.Equal(t, 1, scores[0].Rank)
}

func TestFacade_EventsReachSubscribers(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.SaveZones(ctx, testZones(3)))

	emitter := kantama.NewEmitter()
	ch := emitter.Subscribe()
	defer emitter.Unsubscribe(ch)

	cfg := kantama.RunConfig{Periods: []kantama.Period{kantama.PeriodMorning}}
	sched := kantama.NewScheduler(store, gridClassifier{}, cfg,
		kantama.WithRunEmitter(emitter), kantama.WithRunMetrics(kantama.NewMetrics()))

	_, err := sched.Seed(ctx)
	require.NoError(t, err)
	_, err = sched.Run(ctx)
	require.NoError(t, err)

	var sawStarted, sawCompleted bool
	for len(ch) > 0 {
		switch (<-ch).(type) {
		case *kantama.RunStarted:
			sawStarted = true
		case *kantama.RunCompleted:
			sawCompleted = true
		}
	}
	assert.True(t, sawStarted)
	assert.True(t, sawCompleted)
}

func TestFacade_ServiceDayIsStrictlyFutureWednesday(t *testing.T) {
	wednesday := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	day := kantama.ServiceDay(wednesday)
	assert.Equal(t, time.Wednesday, day.Weekday())
	assert.True(t, day.After(wednesday))
}

func TestFacade_MissingAPIKeyRejected(t *testing.T) {
	_, err := kantama.NewRoutingClient(kantama.RoutingConfig{Endpoint: "https://api.example.test/plan"})
	assert.ErrorIs(t, err, kantama.ErrMissingAPIKey)
}
