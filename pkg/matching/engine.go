// Package matching implements the participant/property match engine.
package matching

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/metrics"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/scoring"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

// Run modes reported in logs and metrics
const (
	ModeParticipant = "participant"
	ModeProperty    = "property"
	ModeFull        = "full"
)

// batchLockKey guards full batch runs so only one runs at a time
const batchLockKey = "match:batch"

// ParticipantStore is the participant data the engine needs
type ParticipantStore interface {
	Get(ctx context.Context, id string) (*models.Participant, error)
	ListMatchable(ctx context.Context) ([]models.Participant, error)
}

// PropertyStore is the property data the engine needs
type PropertyStore interface {
	Get(ctx context.Context, id string) (*models.Property, error)
	ListMatchable(ctx context.Context) ([]models.Property, error)
}

// MatchStore persists match run results
type MatchStore interface {
	UpsertBatch(ctx context.Context, matches []*models.Match) error
}

// ExcellentMatch pairs a high-scoring match with its property for
// notification payloads
type ExcellentMatch struct {
	Property models.Property
	Match    *models.Match
}

// Notifier is told about excellent matches after they are persisted.
// Notification failures never fail the run.
type Notifier interface {
	NotifyExcellentMatches(ctx context.Context, participant models.Participant, matches []ExcellentMatch) error
}

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out distributed locks for batch runs
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Config contains configuration for the match engine
type Config struct {
	MinMatchScore  int           // Minimum score to persist a match (default: 40)
	GoodScore      int           // Lower bound of the good band (default: 60)
	ExcellentScore int           // Score at which participants are notified (default: 80)
	BatchLockTTL   time.Duration // TTL on the full batch run lock (default: 5m)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MinMatchScore:  40,
		GoodScore:      60,
		ExcellentScore: 80,
		BatchLockTTL:   5 * time.Minute,
	}
}

// Engine scores participants against properties and persists the results
type Engine struct {
	logger       ectologger.Logger
	participants ParticipantStore
	properties   PropertyStore
	matches      MatchStore
	notifier     Notifier
	locker       Locker
	scorer       *scoring.Scorer
	cfg          Config
}

// NewEngine creates a new match engine. The notifier and locker are optional;
// without a locker full batch runs are unguarded.
func NewEngine(
	logger ectologger.Logger,
	participants ParticipantStore,
	properties PropertyStore,
	matches MatchStore,
	notifier Notifier,
	locker Locker,
	cfg Config,
) *Engine {
	if cfg.MinMatchScore <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{
		logger:       logger,
		participants: participants,
		properties:   properties,
		matches:      matches,
		notifier:     notifier,
		locker:       locker,
		scorer:       scoring.NewScorer(),
		cfg:          cfg,
	}
}

// Run dispatches a match run based on the request. Exactly one of the
// participant or property ids selects a targeted run; neither selects a full
// batch run across all matchable pairs.
func (e *Engine) Run(ctx context.Context, req *models.CalculateMatchesRequest) (*models.MatchRunSummary, error) {
	if req.ParticipantID != nil && req.PropertyID != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "provide participant_id or property_id, not both")
	}

	switch {
	case req.ParticipantID != nil:
		return e.RunForParticipant(ctx, *req.ParticipantID)
	case req.PropertyID != nil:
		return e.RunForProperty(ctx, *req.PropertyID)
	default:
		return e.RunFull(ctx)
	}
}

// RunForParticipant recalculates one participant's matches against all
// matchable properties
func (e *Engine) RunForParticipant(ctx context.Context, participantID string) (*models.MatchRunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.RunForParticipant")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithFields(map[string]any{"participant_id": participantID})

	participant, err := e.participants.Get(ctx, participantID)
	if err != nil {
		metrics.RecordMatchRun(ModeParticipant, "error", time.Since(start).Seconds())
		return nil, err
	}

	if !participant.Matchable() {
		log.WithFields(map[string]any{"status": participant.Status}).Info("Participant not eligible for matching")
		metrics.RecordMatchRun(ModeParticipant, "skipped", time.Since(start).Seconds())
		return &models.MatchRunSummary{Success: true}, nil
	}

	properties, err := e.properties.ListMatchable(ctx)
	if err != nil {
		metrics.RecordMatchRun(ModeParticipant, "error", time.Since(start).Seconds())
		return nil, err
	}

	persisted, excellent, summary, err := e.scoreAndPersist(ctx, []models.Participant{*participant}, properties)
	if err != nil {
		metrics.RecordMatchRun(ModeParticipant, "error", time.Since(start).Seconds())
		return nil, err
	}

	e.notify(ctx, excellent)

	log.WithFields(map[string]any{
		"properties_considered": len(properties),
		"matches_persisted":     len(persisted),
	}).Info("Participant match run complete")
	metrics.RecordMatchRun(ModeParticipant, "success", time.Since(start).Seconds())

	return summary, nil
}

// RunForProperty recalculates one property's matches against all matchable
// participants
func (e *Engine) RunForProperty(ctx context.Context, propertyID string) (*models.MatchRunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.RunForProperty")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithFields(map[string]any{"property_id": propertyID})

	property, err := e.properties.Get(ctx, propertyID)
	if err != nil {
		metrics.RecordMatchRun(ModeProperty, "error", time.Since(start).Seconds())
		return nil, err
	}

	if !property.Matchable() {
		log.WithFields(map[string]any{"status": property.Status}).Info("Property not eligible for matching")
		metrics.RecordMatchRun(ModeProperty, "skipped", time.Since(start).Seconds())
		return &models.MatchRunSummary{Success: true}, nil
	}

	participants, err := e.participants.ListMatchable(ctx)
	if err != nil {
		metrics.RecordMatchRun(ModeProperty, "error", time.Since(start).Seconds())
		return nil, err
	}

	persisted, excellent, summary, err := e.scoreAndPersist(ctx, participants, []models.Property{*property})
	if err != nil {
		metrics.RecordMatchRun(ModeProperty, "error", time.Since(start).Seconds())
		return nil, err
	}

	e.notify(ctx, excellent)

	log.WithFields(map[string]any{
		"participants_considered": len(participants),
		"matches_persisted":       len(persisted),
	}).Info("Property match run complete")
	metrics.RecordMatchRun(ModeProperty, "success", time.Since(start).Seconds())

	return summary, nil
}

// RunFull recalculates every matchable participant against every matchable
// property. At most one full run executes at a time.
func (e *Engine) RunFull(ctx context.Context) (*models.MatchRunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.RunFull")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx)

	if e.locker != nil {
		lock, err := e.locker.Acquire(ctx, batchLockKey, e.cfg.BatchLockTTL)
		if err != nil {
			metrics.RecordMatchRun(ModeFull, "locked", time.Since(start).Seconds())
			return nil, httperror.NewHTTPError(http.StatusConflict, "a full match run is already in progress")
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.WithError(err).Warn("Failed to release batch run lock")
			}
		}()
	}

	participants, err := e.participants.ListMatchable(ctx)
	if err != nil {
		metrics.RecordMatchRun(ModeFull, "error", time.Since(start).Seconds())
		return nil, err
	}

	properties, err := e.properties.ListMatchable(ctx)
	if err != nil {
		metrics.RecordMatchRun(ModeFull, "error", time.Since(start).Seconds())
		return nil, err
	}

	persisted, excellent, summary, err := e.scoreAndPersist(ctx, participants, properties)
	if err != nil {
		metrics.RecordMatchRun(ModeFull, "error", time.Since(start).Seconds())
		return nil, err
	}

	e.notify(ctx, excellent)

	log.WithFields(map[string]any{
		"participants":      len(participants),
		"properties":        len(properties),
		"matches_persisted": len(persisted),
	}).Info("Full match run complete")
	metrics.RecordMatchRun(ModeFull, "success", time.Since(start).Seconds())

	return summary, nil
}

// participantMatches groups one participant's excellent matches for
// notification
type participantMatches struct {
	participant models.Participant
	matches     []ExcellentMatch
}

// scoreAndPersist scores every pair, persists matches at or above the
// minimum score in one batch, and returns the excellent matches grouped per
// participant
func (e *Engine) scoreAndPersist(ctx context.Context, participants []models.Participant, properties []models.Property) ([]*models.Match, []participantMatches, *models.MatchRunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.scoreAndPersist")
	defer span.End()

	summary := &models.MatchRunSummary{}
	persisted := make([]*models.Match, 0)
	excellentByParticipant := make(map[string][]ExcellentMatch)
	order := make([]string, 0)

	for pi := range participants {
		participant := &participants[pi]
		for hi := range properties {
			property := &properties[hi]
			metrics.PairsScored.Inc()

			score, reasons := e.scorer.Score(participant, property)
			if score < e.cfg.MinMatchScore {
				continue
			}

			match := &models.Match{
				ParticipantID: participant.ID,
				PropertyID:    property.ID,
				MatchScore:    score,
				MatchReasons:  database.JSONB[[]models.MatchReason]{Data: reasons},
			}
			persisted = append(persisted, match)
			summary.MatchesCalculated++

			switch {
			case score >= e.cfg.ExcellentScore:
				summary.ExcellentMatches++
				metrics.RecordMatchPersisted(metrics.BandExcellent)
				if _, seen := excellentByParticipant[participant.ID]; !seen {
					order = append(order, participant.ID)
				}
				excellentByParticipant[participant.ID] = append(excellentByParticipant[participant.ID], ExcellentMatch{
					Property: *property,
					Match:    match,
				})
			case score >= e.cfg.GoodScore:
				summary.GoodMatches++
				metrics.RecordMatchPersisted(metrics.BandGood)
			default:
				metrics.RecordMatchPersisted(metrics.BandFair)
			}
		}
	}

	if err := e.matches.UpsertBatch(ctx, persisted); err != nil {
		return nil, nil, nil, err
	}
	summary.Success = true

	grouped := make([]participantMatches, 0, len(order))
	participantsByID := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		participantsByID[p.ID] = p
	}
	for _, id := range order {
		grouped = append(grouped, participantMatches{
			participant: participantsByID[id],
			matches:     excellentByParticipant[id],
		})
	}

	return persisted, grouped, summary, nil
}

// notify tells the notifier about each participant's excellent matches.
// Failures are logged and counted, never returned.
func (e *Engine) notify(ctx context.Context, grouped []participantMatches) {
	if e.notifier == nil || len(grouped) == 0 {
		return
	}

	for _, group := range grouped {
		if err := e.notifier.NotifyExcellentMatches(ctx, group.participant, group.matches); err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"participant_id": group.participant.ID,
			}).Warn("Failed to notify participant of excellent matches")
			metrics.RecordNotification("error")
			continue
		}
		metrics.RecordNotification("sent")
	}
}
