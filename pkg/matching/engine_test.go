package matching

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
)

type fakeParticipantStore struct {
	participants map[string]*models.Participant
	listErr      error
}

func (f *fakeParticipantStore) Get(ctx context.Context, id string) (*models.Participant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "participant not found")
	}
	return p, nil
}

func (f *fakeParticipantStore) ListMatchable(ctx context.Context) ([]models.Participant, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Participant
	for _, p := range f.participants {
		if p.Matchable() {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakePropertyStore struct {
	properties map[string]*models.Property
}

func (f *fakePropertyStore) Get(ctx context.Context, id string) (*models.Property, error) {
	p, ok := f.properties[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "property not found")
	}
	return p, nil
}

func (f *fakePropertyStore) ListMatchable(ctx context.Context) ([]models.Property, error) {
	var out []models.Property
	for _, p := range f.properties {
		if p.Matchable() {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeMatchStore struct {
	upserted [][]*models.Match
	err      error
}

func (f *fakeMatchStore) UpsertBatch(ctx context.Context, matches []*models.Match) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, matches)
	return nil
}

type notification struct {
	participant models.Participant
	matches     []ExcellentMatch
}

type fakeNotifier struct {
	notifications []notification
	err           error
}

func (f *fakeNotifier) NotifyExcellentMatches(ctx context.Context, participant models.Participant, matches []ExcellentMatch) error {
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, notification{participant: participant, matches: matches})
	return nil
}

type fakeLock struct {
	released bool
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	lock     *fakeLock
	acquired int
	err      error
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	f.lock = &fakeLock{}
	return f.lock, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strongParticipant(id string) *models.Participant {
	budget := 1000.0
	sda := models.SDACategoryHighPhysicalSupport
	return &models.Participant{
		ID:                 id,
		Name:               "Sam",
		Email:              "sam@example.com",
		Status:             models.ParticipantStatusSearching,
		PreferredLocations: database.JSONB[[]string]{Data: []string{"Sydney"}},
		MaxWeeklyBudget:    &budget,
		MinBedrooms:        1,
		MinBathrooms:       1,
		SDACategory:        &sda,
	}
}

func strongProperty(id string) *models.Property {
	rent := 700.0
	sda := models.SDACategoryHighPhysicalSupport
	return &models.Property{
		ID:                       id,
		Address:                  "1 Pitt St, Sydney NSW 2000",
		WeeklyRent:               &rent,
		Bedrooms:                 2,
		Bathrooms:                2,
		SDACategory:              &sda,
		Status:                   models.PropertyStatusAvailable,
		VisibleOnParticipantSite: true,
	}
}

func weakProperty(id string) *models.Property {
	return &models.Property{
		ID:                       id,
		Address:                  "99 Far Rd, Nowhere WA 6000",
		Bedrooms:                 0,
		Bathrooms:                0,
		Status:                   models.PropertyStatusAvailable,
		VisibleOnParticipantSite: true,
	}
}

func newTestEngine(participants *fakeParticipantStore, properties *fakePropertyStore, matches *fakeMatchStore, notifier Notifier, locker Locker) *Engine {
	return NewEngine(testLogger(), participants, properties, matches, notifier, locker, DefaultConfig())
}

func TestEngine_RunForParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("persists matches at or above the minimum score", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
			"h2": weakProperty("h2"),
		}}
		matches := &fakeMatchStore{}
		notifier := &fakeNotifier{}

		engine := newTestEngine(participants, properties, matches, notifier, nil)
		summary, err := engine.RunForParticipant(ctx, "p1")
		require.NoError(t, err)

		assert.True(t, summary.Success)
		assert.Equal(t, 1, summary.MatchesCalculated)
		assert.Equal(t, 1, summary.ExcellentMatches)
		assert.Zero(t, summary.GoodMatches)

		require.Len(t, matches.upserted, 1)
		require.Len(t, matches.upserted[0], 1)
		persisted := matches.upserted[0][0]
		assert.Equal(t, "p1", persisted.ParticipantID)
		assert.Equal(t, "h1", persisted.PropertyID)
		assert.GreaterOrEqual(t, persisted.MatchScore, 80)
		assert.NotEmpty(t, persisted.MatchReasons.GetValue())
	})

	t.Run("notifies participant of excellent matches", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
		}}
		notifier := &fakeNotifier{}

		engine := newTestEngine(participants, properties, &fakeMatchStore{}, notifier, nil)
		_, err := engine.RunForParticipant(ctx, "p1")
		require.NoError(t, err)

		require.Len(t, notifier.notifications, 1)
		assert.Equal(t, "p1", notifier.notifications[0].participant.ID)
		require.Len(t, notifier.notifications[0].matches, 1)
		assert.Equal(t, "h1", notifier.notifications[0].matches[0].Property.ID)
	})

	t.Run("notification failure does not fail the run", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
		}}
		notifier := &fakeNotifier{err: errors.New("kafka down")}

		engine := newTestEngine(participants, properties, &fakeMatchStore{}, notifier, nil)
		summary, err := engine.RunForParticipant(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, summary.Success)
	})

	t.Run("unknown participant returns not found", func(t *testing.T) {
		engine := newTestEngine(
			&fakeParticipantStore{participants: map[string]*models.Participant{}},
			&fakePropertyStore{},
			&fakeMatchStore{},
			nil, nil,
		)

		_, err := engine.RunForParticipant(ctx, "missing")
		require.Error(t, err)
		require.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})

	t.Run("moved-in participant produces an empty run", func(t *testing.T) {
		p := strongParticipant("p1")
		p.Status = models.ParticipantStatusMovedIn
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{"p1": p}}
		matches := &fakeMatchStore{}

		engine := newTestEngine(participants, &fakePropertyStore{}, matches, nil, nil)
		summary, err := engine.RunForParticipant(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, summary.Success)
		assert.Zero(t, summary.MatchesCalculated)
		assert.Empty(t, matches.upserted)
	})
}

func TestEngine_RunForProperty(t *testing.T) {
	ctx := context.Background()

	t.Run("scores all matchable participants against the property", func(t *testing.T) {
		inactive := strongParticipant("p3")
		inactive.Status = models.ParticipantStatusInactive
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
			"p2": strongParticipant("p2"),
			"p3": inactive,
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
		}}
		matches := &fakeMatchStore{}

		engine := newTestEngine(participants, properties, matches, nil, nil)
		summary, err := engine.RunForProperty(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, 2, summary.MatchesCalculated)
	})

	t.Run("hidden property produces an empty run", func(t *testing.T) {
		p := strongProperty("h1")
		p.VisibleOnParticipantSite = false
		properties := &fakePropertyStore{properties: map[string]*models.Property{"h1": p}}
		matches := &fakeMatchStore{}

		engine := newTestEngine(&fakeParticipantStore{}, properties, matches, nil, nil)
		summary, err := engine.RunForProperty(ctx, "h1")
		require.NoError(t, err)
		assert.True(t, summary.Success)
		assert.Zero(t, summary.MatchesCalculated)
		assert.Empty(t, matches.upserted)
	})

	t.Run("leased property produces an empty run", func(t *testing.T) {
		p := strongProperty("h1")
		p.Status = models.PropertyStatusLeased
		properties := &fakePropertyStore{properties: map[string]*models.Property{"h1": p}}

		engine := newTestEngine(&fakeParticipantStore{}, properties, &fakeMatchStore{}, nil, nil)
		summary, err := engine.RunForProperty(ctx, "h1")
		require.NoError(t, err)
		assert.Zero(t, summary.MatchesCalculated)
	})
}

func TestEngine_RunFull(t *testing.T) {
	ctx := context.Background()

	t.Run("scores every matchable pair under the batch lock", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
			"p2": strongParticipant("p2"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
			"h2": strongProperty("h2"),
		}}
		matches := &fakeMatchStore{}
		locker := &fakeLocker{}

		engine := newTestEngine(participants, properties, matches, nil, locker)
		summary, err := engine.RunFull(ctx)
		require.NoError(t, err)

		assert.Equal(t, 4, summary.MatchesCalculated)
		assert.Equal(t, 1, locker.acquired)
		assert.True(t, locker.lock.released)

		// The whole run lands in a single batch write.
		require.Len(t, matches.upserted, 1)
		assert.Len(t, matches.upserted[0], 4)
	})

	t.Run("concurrent full run is rejected", func(t *testing.T) {
		locker := &fakeLocker{err: errors.New("lock not acquired")}
		engine := newTestEngine(&fakeParticipantStore{}, &fakePropertyStore{}, &fakeMatchStore{}, nil, locker)

		_, err := engine.RunFull(ctx)
		require.Error(t, err)
		require.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("persistence failure fails the run", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
		}}
		matches := &fakeMatchStore{err: errors.New("db down")}

		engine := newTestEngine(participants, properties, matches, nil, nil)
		_, err := engine.RunFull(ctx)
		require.Error(t, err)
	})
}

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects requests targeting both sides", func(t *testing.T) {
		engine := newTestEngine(&fakeParticipantStore{}, &fakePropertyStore{}, &fakeMatchStore{}, nil, nil)

		pid := "11111111-1111-4111-8111-111111111111"
		hid := "22222222-2222-4222-8222-222222222222"
		_, err := engine.Run(ctx, &models.CalculateMatchesRequest{ParticipantID: &pid, PropertyID: &hid})
		require.Error(t, err)
		require.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("empty request runs the full batch", func(t *testing.T) {
		participants := &fakeParticipantStore{participants: map[string]*models.Participant{
			"p1": strongParticipant("p1"),
		}}
		properties := &fakePropertyStore{properties: map[string]*models.Property{
			"h1": strongProperty("h1"),
		}}
		matches := &fakeMatchStore{}
		locker := &fakeLocker{}

		engine := newTestEngine(participants, properties, matches, nil, locker)
		summary, err := engine.Run(ctx, &models.CalculateMatchesRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.MatchesCalculated)
		assert.Equal(t, 1, locker.acquired)
	})
}
