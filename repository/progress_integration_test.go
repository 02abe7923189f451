package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"mondesavoir/cache"
	"mondesavoir/events"
	"mondesavoir/models"
	"mondesavoir/repository/testutil"
	"mondesavoir/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoring_ConcurrentDeltasAreNotLost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var scoreEvents atomic.Int64
	bus.Subscribe(events.EventTypeScoreChanged, func(ctx context.Context, e events.Event) {
		scoreEvents.Add(1)
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	scoring := service.NewScoringService(factory, cache.NoopUserCache{})

	user, err := NewUserRepository(testDB.DB).Create(ctx, "racer")
	require.NoError(t, err)

	const workers = 20
	deltas := make([]int64, workers)
	var want int64
	for i := range deltas {
		deltas[i] = int64(i%5) - 1 // mix of negative, zero and positive
		want += deltas[i]
	}

	var wg sync.WaitGroup
	for _, d := range deltas {
		wg.Add(1)
		go func(delta int64) {
			defer wg.Done()
			_, err := scoring.ApplyDelta(ctx, user.ID, delta, "capital")
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()
	bus.Wait()

	stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Score)
	assert.Equal(t, want, stored.CapitalScore)
	assert.Equal(t, int64(workers), scoreEvents.Load())
}

func TestScoring_BadgesNeverShrink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	scoring := service.NewScoringService(factory, cache.NoopUserCache{})

	user, err := NewUserRepository(testDB.DB).Create(ctx, "climber")
	require.NoError(t, err)

	result, err := scoring.ApplyDelta(ctx, user.ID, 40, "")
	require.NoError(t, err)
	assert.Equal(t, int64(40), result.Score)
	assert.Equal(t, models.Badges{"Novice", "Apprenti"}, result.Badges)
	assert.Nil(t, result.Category)

	result, err = scoring.ApplyDelta(ctx, user.ID, -100, "flag")
	require.NoError(t, err)
	assert.Equal(t, int64(-60), result.Score)
	assert.Equal(t, models.Badges{"Novice", "Apprenti"}, result.Badges)
	require.NotNil(t, result.CategoryScore)
	assert.Equal(t, int64(-100), *result.CategoryScore)

	stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-60), stored.Score)
	assert.Equal(t, int64(-100), stored.FlagsScore)
	assert.Equal(t, models.Badges{"Novice", "Apprenti"}, stored.Badges)
	bus.Wait()
}

func TestQuiz_CorrectAnswerPersists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var awarded []string
	var mu sync.Mutex
	bus.Subscribe(events.EventTypeBadgeAwarded, func(ctx context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		awarded = append(awarded, e.(events.BadgeAwardedEvent).Badge)
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	quiz := service.NewQuizService(factory, cache.NoopUserCache{})

	user, err := NewUserRepository(testDB.DB).Create(ctx, "traveller")
	require.NoError(t, err)

	result, err := quiz.SubmitAnswer(ctx, user.ID, "France", "Lyon")
	require.NoError(t, err)
	assert.False(t, result.Correct)

	result, err = quiz.SubmitAnswer(ctx, user.ID, "France", " paris ")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	require.NotNil(t, result.NewScore)
	assert.Equal(t, int64(1), *result.NewScore)
	assert.Equal(t, models.Badges{"France"}, result.NewBadges)

	// A repeated correct answer scores again but does not duplicate the badge
	result, err = quiz.SubmitAnswer(ctx, user.ID, "France", "Paris")
	require.NoError(t, err)
	assert.Equal(t, int64(2), *result.NewScore)
	assert.Equal(t, models.Badges{"France"}, result.NewBadges)

	_, err = quiz.SubmitAnswer(ctx, 999999, "France", "Paris")
	var authErr *service.AuthError
	assert.ErrorAs(t, err, &authErr)

	bus.Wait()
	mu.Lock()
	assert.Equal(t, []string{"France"}, awarded)
	mu.Unlock()

	stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Score)
	assert.Equal(t, models.Badges{"France"}, stored.Badges)
}
