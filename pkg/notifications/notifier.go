// Package notifications fans excellent matches out to downstream consumers.
package notifications

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/kafka"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

// ActivityStore records notification events on the participant's activity log
type ActivityStore interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
}

// Service publishes excellent match events and records them on the activity
// log. The Kafka producer is optional so the service degrades to log-only.
type Service struct {
	logger   ectologger.Logger
	producer *kafka.Producer
	activity ActivityStore
}

// NewService creates a new notification service
func NewService(logger ectologger.Logger, producer *kafka.Producer, activity ActivityStore) *Service {
	return &Service{
		logger:   logger,
		producer: producer,
		activity: activity,
	}
}

// NotifyExcellentMatches publishes one event covering all of a participant's
// excellent matches from a run and appends an activity entry
func (s *Service) NotifyExcellentMatches(ctx context.Context, participant models.Participant, matches []matching.ExcellentMatch) error {
	ctx, span := tracing.StartSpan(ctx, "notifications.Service.NotifyExcellentMatches")
	defer span.End()

	if len(matches) == 0 {
		return nil
	}

	summaries := make([]kafka.MatchSummary, 0, len(matches))
	propertyIDs := make([]string, 0, len(matches))
	topScore := 0
	for _, m := range matches {
		summaries = append(summaries, kafka.MatchSummary{
			PropertyID: m.Property.ID,
			Address:    m.Property.Address,
			MatchScore: m.Match.MatchScore,
			Reasons:    m.Match.MatchReasons.GetValue(),
		})
		propertyIDs = append(propertyIDs, m.Property.ID)
		if m.Match.MatchScore > topScore {
			topScore = m.Match.MatchScore
		}
	}

	if s.producer != nil {
		event := &kafka.MatchEvent{
			EventType:     kafka.EventTypeExcellentMatches,
			ParticipantID: participant.ID,
			Matches:       summaries,
		}
		if err := s.producer.PublishMatchEvent(ctx, event); err != nil {
			return err
		}
	}

	if s.activity != nil {
		entry := &models.ActivityEntry{
			ParticipantID: participant.ID,
			Action:        models.ActivityActionExcellentMatches,
			Details: database.JSONB[map[string]any]{Data: map[string]any{
				"property_ids": propertyIDs,
				"match_count":  len(matches),
				"top_score":    topScore,
			}},
		}
		if err := s.activity.Append(ctx, entry); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"participant_id": participant.ID,
			}).Warn("Failed to record excellent match activity")
		}
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"participant_id": participant.ID,
		"match_count":    len(matches),
		"top_score":      topScore,
	}).Info("Notified participant of excellent matches")

	return nil
}
