package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procurement-service/internal/broker"
	"procurement-service/internal/lane"
	"procurement-service/internal/models"
	"procurement-service/internal/store"
	"procurement-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrActionNotAllowed is returned when a transition action is not
// defined for the lane's current state. Routine control flow, unlike a
// terminal-state attempt, which surfaces as *lane.ErrTerminalState.
var ErrActionNotAllowed = errors.New("action not allowed from current lane state")

// LaneService drives lane lifecycle transitions and capacity reporting
type LaneService struct {
	store           *store.Store
	eventPublisher  *broker.EventPublisher
	demandThreshold decimal.Decimal
	logger          *zap.Logger
}

// NewLaneService creates a new lane service
func NewLaneService(store *store.Store, eventPublisher *broker.EventPublisher, demandThreshold decimal.Decimal) *LaneService {
	return &LaneService{
		store:           store,
		eventPublisher:  eventPublisher,
		demandThreshold: demandThreshold,
		logger:          util.GetLogger(),
	}
}

// TransitionResult reports the outcome of a lane transition
type TransitionResult struct {
	Country  string               `json:"country"`
	Category string               `json:"category"`
	NewState lane.State           `json:"new_state"`
	Event    lane.TransitionEvent `json:"event"`
}

// GetLane retrieves a lane row
func (s *LaneService) GetLane(ctx context.Context, country, category string) (*models.Lane, error) {
	return s.store.GetLane(ctx, country, category)
}

// GetTransitions retrieves a lane's audit trail
func (s *LaneService) GetTransitions(ctx context.Context, country, category string) ([]models.LaneTransitionRecord, error) {
	return s.store.GetLaneTransitions(ctx, country, category)
}

// Transition applies an action to a lane. The state machine decides
// validity; on success the lane row is updated, one audit row is
// appended and one LaneTransition event is published.
func (s *LaneService) Transition(ctx context.Context, country, category string, action lane.Action, actor lane.Actor, metadata map[string]any) (*TransitionResult, error) {
	ctx, span := util.StartSpan(ctx, "LaneService.Transition")
	defer span.End()

	laneRow, err := s.store.GetLane(ctx, country, category)
	if err != nil {
		return nil, err
	}

	current := lane.State(laneRow.State)
	next, ok, err := lane.NextState(current, action)
	if err != nil {
		util.LaneTransitionsRejectedTotal.WithLabelValues("terminal_state").Inc()
		s.logger.Warn("Transition attempted on terminal lane",
			zap.String("country", country),
			zap.String("category", category),
			zap.String("state", string(current)))
		return nil, err
	}
	if !ok {
		util.LaneTransitionsRejectedTotal.WithLabelValues("action_not_allowed").Inc()
		return nil, fmt.Errorf("%w: state=%s action=%s", ErrActionNotAllowed, current, action)
	}

	event := lane.BuildTransitionEvent(country, category, current, next, actor, metadata)

	if err := s.store.UpdateLaneState(ctx, country, category, string(next)); err != nil {
		return nil, fmt.Errorf("failed to update lane state: %w", err)
	}

	if err := s.recordTransition(ctx, event); err != nil {
		// The lane row already moved; the audit gap must be visible.
		s.logger.Error("Failed to append lane transition audit row",
			zap.String("country", country),
			zap.String("category", category),
			zap.Error(err))
		return nil, err
	}

	util.LaneTransitionsTotal.WithLabelValues(string(current), string(next)).Inc()
	s.logger.Info("Lane transitioned",
		zap.String("country", country),
		zap.String("category", category),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("actor", string(actor)))

	kafkaEvent := &models.LaneTransitionEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLaneTransition,
			Timestamp: time.Now(),
		},
		Country:    event.Country,
		Category:   event.Category,
		FromState:  string(event.FromState),
		ToState:    string(event.ToState),
		Actor:      string(event.Actor),
		OccurredAt: event.OccurredAt,
		Metadata:   event.Metadata,
	}

	if err := s.eventPublisher.PublishLaneTransition(ctx, kafkaEvent); err != nil {
		s.logger.Error("Failed to publish LaneTransition event", zap.Error(err))
	}

	return &TransitionResult{
		Country:  country,
		Category: category,
		NewState: next,
		Event:    event,
	}, nil
}

func (s *LaneService) recordTransition(ctx context.Context, event lane.TransitionEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode transition metadata: %w", err)
		}
		metadata = raw
	}

	rec := &models.LaneTransitionRecord{
		Country:    event.Country,
		Category:   event.Category,
		FromState:  string(event.FromState),
		ToState:    string(event.ToState),
		Actor:      string(event.Actor),
		OccurredAt: event.OccurredAt,
		Metadata:   metadata,
	}
	return s.store.InsertLaneTransition(ctx, rec)
}

// RecordDemandSignal ingests one demand signal: the lane is created in
// detected state if new, its demand value accumulated, and validated to
// pending once accumulated demand crosses the configured threshold.
func (s *LaneService) RecordDemandSignal(ctx context.Context, event *models.DemandSignalEvent) error {
	ctx, span := util.StartSpan(ctx, "LaneService.RecordDemandSignal")
	defer span.End()

	util.DemandSignalsTotal.Inc()

	laneRow, err := s.store.UpsertLaneDemand(ctx, event.Country, event.Category, string(lane.StateDetected), event.DemandValue)
	if err != nil {
		return fmt.Errorf("failed to record demand signal: %w", err)
	}

	s.logger.Info("Demand signal recorded",
		zap.String("country", event.Country),
		zap.String("category", event.Category),
		zap.String("demand_value", laneRow.DemandValue.String()),
		zap.Int("intent_score", event.IntentScore))

	if lane.State(laneRow.State) != lane.StateDetected {
		return nil
	}
	if laneRow.DemandValue.LessThan(s.demandThreshold) {
		return nil
	}

	_, err = s.Transition(ctx, event.Country, event.Category, lane.ActionValidate, lane.ActorSystem, map[string]any{
		"trigger":      "demand_threshold",
		"demand_value": laneRow.DemandValue.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to auto-validate lane: %w", err)
	}
	return nil
}

// CapacityStatus derives the capacity report for a lane's current demand
func (s *LaneService) CapacityStatus(ctx context.Context, country, category string) (*lane.CapacityReport, error) {
	laneRow, err := s.store.GetLane(ctx, country, category)
	if err != nil {
		return nil, err
	}

	capRow, err := s.store.GetLaneCapacity(ctx, country, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load lane capacity: %w", err)
	}

	var cap *lane.Capacity
	if capRow != nil {
		cap = &lane.Capacity{
			MonthlyCapacityValue:   capRow.MonthlyCapacityValue,
			AllocatedCapacityValue: capRow.AllocatedCapacityValue,
		}
	}

	report := lane.ComputeCapacityStatus(country, category, laneRow.DemandValue, cap)
	return &report, nil
}
