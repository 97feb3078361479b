// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/validation"
)

const (
	// MaxPropertiesBytes bounds the serialised size of one event's properties.
	MaxPropertiesBytes = 16 * 1024

	// MaxBatchSize bounds TrackBatch.
	MaxBatchSize = 50

	maxIPLength        = 45
	maxUserAgentLength = 1024

	defaultSummaryWindow = 30 * 24 * time.Hour
)

// Store is the subset of the event repository used here.
type Store interface {
	Create(ctx context.Context, e *models.AnalyticsEvent) error
	CreateBatch(ctx context.Context, events []*models.AnalyticsEvent) error
	List(ctx context.Context, f models.EventFilter) ([]models.AnalyticsEvent, int64, error)
	CountByName(ctx context.Context, from, to *time.Time) ([]models.EventCount, error)
	DistinctUsers(ctx context.Context, from, to *time.Time) (int64, error)
}

// TrackInput is one client-submitted event.
type TrackInput struct {
	EventName  string                 `json:"event_name" validate:"required,event_name"`
	Properties map[string]interface{} `json:"properties"`
	SessionID  string                 `json:"session_id" validate:"omitempty,max=64"`
}

// BatchInput is a TrackBatch request body.
type BatchInput struct {
	Events []TrackInput `json:"events" validate:"required,min=1,max=50,dive"`
}

// Client describes who sent the event. UserID is nil for anonymous callers.
type Client struct {
	UserID    *uuid.UUID
	IP        string
	UserAgent string
}

// ListInput filters and pages an event listing.
type ListInput struct {
	UserID    *uuid.UUID `json:"-"`
	EventName string     `json:"event_name" validate:"omitempty,event_name"`
	From      *time.Time `json:"from"`
	To        *time.Time `json:"to"`
	Limit     int        `json:"limit" validate:"min=0"`
	Offset    int        `json:"offset" validate:"min=0"`
}

// ListResult is one page of events.
type ListResult struct {
	Events []models.AnalyticsEvent
	Page   models.Page
}

// Summary aggregates events over a window.
type Summary struct {
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	TotalEvents int64               `json:"total_events"`
	UniqueUsers int64               `json:"unique_users"`
	Events      []models.EventCount `json:"events"`
}

// Service implements event tracking and reporting.
type Service struct {
	store        Store
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewService creates the analytics service.
func NewService(cfg *config.Config, store Store) *Service {
	return &Service{
		store:        store,
		defaultLimit: cfg.API.DefaultPageSize,
		maxLimit:     cfg.API.MaxPageSize,
		now:          time.Now,
	}
}

// Track validates and stores a single event.
func (s *Service) Track(ctx context.Context, in TrackInput, client Client) (*models.AnalyticsEvent, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	event, err := s.build(in, client, "properties")
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("record event: %w", err)
	}
	metrics.AnalyticsEventsRecorded.WithLabelValues(event.EventName).Inc()
	return event, nil
}

// TrackBatch stores up to MaxBatchSize events in one write. Either every
// event is stored or none is.
func (s *Service) TrackBatch(ctx context.Context, in BatchInput, client Client) (int, error) {
	if len(in.Events) > MaxBatchSize {
		return 0, validation.NewError("events", "max",
			fmt.Sprintf("events must contain at most %d items", MaxBatchSize))
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		return 0, verr
	}

	batch := make([]*models.AnalyticsEvent, 0, len(in.Events))
	for i, item := range in.Events {
		event, err := s.build(item, client, fmt.Sprintf("events[%d].properties", i))
		if err != nil {
			return 0, err
		}
		batch = append(batch, event)
	}

	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("record events: %w", err)
	}
	for _, e := range batch {
		metrics.AnalyticsEventsRecorded.WithLabelValues(e.EventName).Inc()
	}
	return len(batch), nil
}

// TrackInternal records a server-side event. Failures are logged, never
// returned, so analytics can not break the calling operation.
func (s *Service) TrackInternal(ctx context.Context, userID uuid.UUID, eventName string, properties map[string]interface{}) {
	event := &models.AnalyticsEvent{
		EventName:  eventName,
		Properties: datatypes.JSONMap(properties),
		CreatedAt:  s.now().UTC(),
	}
	if userID != uuid.Nil {
		event.UserID = &userID
	}
	if event.Properties == nil {
		event.Properties = datatypes.JSONMap{}
	}

	if err := s.store.Create(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", eventName).Msg("Failed to record internal analytics event")
		return
	}
	metrics.AnalyticsEventsRecorded.WithLabelValues(eventName).Inc()
}

func (s *Service) build(in TrackInput, client Client, field string) (*models.AnalyticsEvent, error) {
	props := in.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, validation.NewError(field, "json", field+" must be a JSON object")
	}
	if len(raw) > MaxPropertiesBytes {
		return nil, validation.NewError(field, "max",
			fmt.Sprintf("%s must not exceed %d bytes when serialised", field, MaxPropertiesBytes))
	}

	event := &models.AnalyticsEvent{
		UserID:     client.UserID,
		EventName:  in.EventName,
		Properties: datatypes.JSONMap(props),
		SessionID:  optional(in.SessionID, 64),
		IPAddress:  optional(client.IP, maxIPLength),
		UserAgent:  optional(client.UserAgent, maxUserAgentLength),
		CreatedAt:  s.now().UTC(),
	}
	return event, nil
}

// optional trims v to at most maxLen bytes without splitting a rune.
// Invalid UTF-8 is dropped since the columns are text.
func optional(v string, maxLen int) *string {
	v = strings.TrimSpace(strings.ToValidUTF8(v, ""))
	if v == "" {
		return nil
	}
	if len(v) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(v[cut]) {
			cut--
		}
		v = v[:cut]
	}
	return &v
}

// ListForUser returns the user's own events, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, in ListInput) (*ListResult, error) {
	in.UserID = &userID
	return s.List(ctx, in)
}

// List returns events across all users unless in.UserID is set.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	if in.Limit == 0 {
		in.Limit = s.defaultLimit
	}
	if in.Limit > s.maxLimit {
		return nil, validation.NewError("limit", "max",
			fmt.Sprintf("limit must be between 1 and %d", s.maxLimit))
	}
	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return nil, validation.NewError("from", "ltfield", "from must be before to")
	}

	events, total, err := s.store.List(ctx, models.EventFilter{
		UserID:    in.UserID,
		EventName: in.EventName,
		From:      in.From,
		To:        in.To,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return &ListResult{
		Events: events,
		Page:   models.Page{Total: total, Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Summary counts events per name and distinct users in [from, to). The
// window defaults to the last 30 days.
func (s *Service) Summary(ctx context.Context, from, to *time.Time) (*Summary, error) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-defaultSummaryWindow)
	if from != nil {
		start = from.UTC()
	}
	if !start.Before(end) {
		return nil, validation.NewError("from", "ltfield", "from must be before to")
	}

	counts, err := s.store.CountByName(ctx, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	users, err := s.store.DistinctUsers(ctx, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	summary := &Summary{From: start, To: end, UniqueUsers: users, Events: counts}
	if summary.Events == nil {
		summary.Events = []models.EventCount{}
	}
	for _, c := range counts {
		summary.TotalEvents += c.Count
	}
	return summary, nil
}
