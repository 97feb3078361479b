// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/events"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

// initialSyncTimeout bounds the background sync started after connecting.
const initialSyncTimeout = 10 * time.Minute

// TokenStore persists Strava credentials.
type TokenStore interface {
	Upsert(ctx context.Context, t *models.AuthToken) error
	Get(ctx context.Context, userID uuid.UUID, provider string) (*models.AuthToken, error)
	GetByProviderUserID(ctx context.Context, provider, providerUserID string) (*models.AuthToken, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, access, refresh string, expiresAt time.Time) error
	Deactivate(ctx context.Context, userID uuid.UUID, provider string) error
	ListActive(ctx context.Context, provider string) ([]models.AuthToken, error)
	RecordSync(ctx context.Context, id uuid.UUID, at time.Time) error
}

// UserLinker records the linked athlete on the user row.
type UserLinker interface {
	SetStravaAthleteID(ctx context.Context, id uuid.UUID, athleteID *int64) error
}

// ActivityStore is the subset of the activity repository sync needs.
type ActivityStore interface {
	CreateBatch(ctx context.Context, activities []*models.Activity) (int64, error)
	ExistingExternalIDs(ctx context.Context, userID uuid.UUID, source string, ids []string) (map[string]struct{}, error)
	LatestStartDate(ctx context.Context, userID uuid.UUID, source string) (*time.Time, error)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, userID uuid.UUID, data interface{}) error
}

// API is the Strava client surface the service uses.
type API interface {
	AuthorizeURL(state, redirectURI, scope string) string
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Deauthorize(ctx context.Context, accessToken string) error
	GetAthlete(ctx context.Context, accessToken string) (*Athlete, error)
	ListActivities(ctx context.Context, accessToken string, opts ListOptions) ([]SummaryActivity, error)
}

// CallbackInput is the query of the OAuth redirect.
type CallbackInput struct {
	State string
	Code  string
	Scope string
	Error string
	IP    string
}

// ConnectResult describes a completed OAuth callback.
type ConnectResult struct {
	UserID    uuid.UUID `json:"user_id"`
	AthleteID int64     `json:"athlete_id"`
	Scope     string    `json:"scope"`
}

// Status is the connection state reported to the user.
type Status struct {
	Connected      bool       `json:"connected"`
	AthleteID      *int64     `json:"athlete_id,omitempty"`
	Scope          string     `json:"scope,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	TokenValid     bool       `json:"token_valid"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	SyncInProgress bool       `json:"sync_in_progress"`
}

// SyncOptions tunes a single sync run.
type SyncOptions struct {
	// Full ignores stored activities and re-reads the whole lookback window.
	Full bool
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Pages      int       `json:"pages"`
	Full       bool      `json:"full"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncAllResult summarizes a scheduled pass over all connected users.
type SyncAllResult struct {
	Users     int `json:"users"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Busy      int `json:"busy"`
	Created   int `json:"created"`
}

// Service implements the Strava connection and sync workflows.
type Service struct {
	cfg        config.StravaConfig
	syncCfg    config.SyncConfig
	api        API
	states     auth.StateStore
	tokens     TokenStore
	users      UserLinker
	activities ActivityStore
	publisher  Publisher
	security   *logging.SecurityLogger

	allowedTypes map[string]bool
	now          func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
	trigger  func(uuid.UUID) bool
	wg       sync.WaitGroup
}

// NewService wires the service. publisher may be nil.
func NewService(cfg *config.Config, api API, states auth.StateStore, tokens TokenStore,
	users UserLinker, activities ActivityStore, publisher Publisher,
) *Service {
	allowed := make(map[string]bool, len(cfg.Sync.ActivityTypes))
	for _, t := range cfg.Sync.ActivityTypes {
		allowed[t] = true
	}
	return &Service{
		cfg:          cfg.Strava,
		syncCfg:      cfg.Sync,
		api:          api,
		states:       states,
		tokens:       tokens,
		users:        users,
		activities:   activities,
		publisher:    publisher,
		security:     logging.NewSecurityLogger(),
		allowedTypes: allowed,
		now:          time.Now,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// AuthorizeURL issues a one-time state for userID and returns the consent URL.
func (s *Service) AuthorizeURL(ctx context.Context, userID uuid.UUID) (string, error) {
	state, err := auth.GenerateState()
	if err != nil {
		return "", err
	}

	now := s.now()
	if err := s.states.Store(ctx, state, &auth.StateData{
		UserID:    userID,
		Provider:  models.ProviderStrava,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.StateTTL),
	}); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	metrics.OAuthStatesIssued.Inc()

	return s.api.AuthorizeURL(state, s.cfg.RedirectURI, s.cfg.Scope), nil
}

// HandleCallback redeems the state, exchanges the code and stores the tokens.
// An incremental sync is queued on success; with no stored activities it
// covers the whole lookback window.
func (s *Service) HandleCallback(ctx context.Context, in CallbackInput) (*ConnectResult, error) {
	if in.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, in.Error)
	}
	if in.State == "" {
		metrics.OAuthStatesRejected.WithLabelValues("missing").Inc()
		return nil, ErrInvalidState
	}

	st, err := s.states.Consume(ctx, in.State)
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, auth.ErrStateNotFound):
			reason = "not_found"
		case errors.Is(err, auth.ErrStateExpired):
			reason = "expired"
		}
		metrics.OAuthStatesRejected.WithLabelValues(reason).Inc()
		s.security.LogOAuthStateRejected(in.IP, in.State)
		if reason == "error" {
			return nil, fmt.Errorf("consume oauth state: %w", err)
		}
		return nil, ErrInvalidState
	}
	if st.Provider != models.ProviderStrava {
		metrics.OAuthStatesRejected.WithLabelValues("provider").Inc()
		return nil, ErrInvalidState
	}
	if in.Code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrAuthorizationDenied)
	}

	tok, err := s.api.ExchangeCode(ctx, in.Code)
	if err != nil {
		if IsClientError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
		}
		return nil, err
	}
	athlete := tok.Athlete
	if athlete == nil || athlete.ID == 0 {
		if athlete, err = s.api.GetAthlete(ctx, tok.AccessToken); err != nil {
			return nil, fmt.Errorf("fetch strava athlete: %w", err)
		}
		if athlete.ID == 0 {
			return nil, errors.New("strava returned no athlete")
		}
	}

	scope := in.Scope
	if scope == "" {
		scope = s.cfg.Scope
	}
	athleteID := athlete.ID

	stored := &models.AuthToken{
		UserID:         st.UserID,
		Provider:       models.ProviderStrava,
		ProviderUserID: strconv.FormatInt(athleteID, 10),
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		ExpiresAt:      tok.Expiry(),
		Scope:          scope,
		IsActive:       true,
		ProviderData:   athlete.providerData(),
	}
	if err := s.tokens.Upsert(ctx, stored); err != nil {
		return nil, fmt.Errorf("store strava token: %w", err)
	}
	if err := s.users.SetStravaAthleteID(ctx, st.UserID, &athleteID); err != nil {
		return nil, fmt.Errorf("link strava athlete: %w", err)
	}

	s.security.LogStravaConnected(st.UserID.String(), athleteID, scope)
	s.publish(ctx, events.TopicStravaConnected, st.UserID, events.StravaConnected{AthleteID: athleteID, Scope: scope})
	s.requestSync(st.UserID)

	return &ConnectResult{UserID: st.UserID, AthleteID: athleteID, Scope: scope}, nil
}

// ValidToken returns the user's active token, refreshing it when it expires
// within the configured skew. When Strava fails the refresh with a transient
// error the current token is returned as long as it has not expired yet.
func (s *Service) ValidToken(ctx context.Context, userID uuid.UUID) (*models.AuthToken, error) {
	tok, err := s.tokens.Get(ctx, userID, models.ProviderStrava)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("load strava token: %w", err)
	}
	if !tok.IsActive {
		return nil, ErrNotConnected
	}

	skew := s.syncCfg.TokenRefreshSkew
	if skew <= 0 {
		skew = models.DefaultRefreshSkew
	}
	now := s.now()
	if !tok.NeedsRefresh(now, skew) {
		return tok, nil
	}

	refreshed, err := s.api.RefreshToken(ctx, tok.RefreshToken)
	if err != nil {
		metrics.StravaTokenRefreshes.WithLabelValues("failure").Inc()
		s.security.LogStravaTokenRefresh(userID.String(), false, err.Error())
		if IsClientError(err) {
			// The grant was revoked on Strava's side.
			s.unlink(ctx, userID, events.ReasonRefreshFailed)
			return nil, ErrNotConnected
		}
		if tok.IsValid(now) && isTransient(err) {
			logging.Ctx(ctx).Warn().Err(err).
				Str("user_id", userID.String()).
				Time("expires_at", tok.ExpiresAt).
				Msg("Strava token refresh failed, using current token until it expires")
			return tok, nil
		}
		return nil, fmt.Errorf("refresh strava token: %w", err)
	}

	if err := s.tokens.UpdateTokens(ctx, tok.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.Expiry()); err != nil {
		return nil, fmt.Errorf("store refreshed strava token: %w", err)
	}
	metrics.StravaTokenRefreshes.WithLabelValues("success").Inc()
	s.security.LogStravaTokenRefresh(userID.String(), true, "")

	tok.AccessToken = refreshed.AccessToken
	tok.RefreshToken = refreshed.RefreshToken
	tok.ExpiresAt = refreshed.Expiry()
	return tok, nil
}

// Disconnect revokes access on Strava (best effort) and deactivates the
// stored token. Imported activities are kept.
func (s *Service) Disconnect(ctx context.Context, userID uuid.UUID) error {
	tok, err := s.tokens.Get(ctx, userID, models.ProviderStrava)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotConnected
		}
		return fmt.Errorf("load strava token: %w", err)
	}
	if !tok.IsActive {
		return ErrNotConnected
	}

	if err := s.api.Deauthorize(ctx, tok.AccessToken); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID.String()).Msg("Strava deauthorize failed, unlinking locally")
	}

	if err := s.tokens.Deactivate(ctx, userID, models.ProviderStrava); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("deactivate strava token: %w", err)
	}
	if err := s.users.SetStravaAthleteID(ctx, userID, nil); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("unlink strava athlete: %w", err)
	}

	s.security.LogStravaDisconnected(userID.String())
	s.publish(ctx, events.TopicStravaDisconnected, userID, events.StravaDisconnected{Reason: events.ReasonUser})
	return nil
}

// Status reports the user's connection.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	st := &Status{SyncInProgress: s.syncing(userID)}

	tok, err := s.tokens.Get(ctx, userID, models.ProviderStrava)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return st, nil
		}
		return nil, fmt.Errorf("load strava token: %w", err)
	}
	if !tok.IsActive {
		return st, nil
	}

	st.Connected = true
	st.TokenValid = tok.IsValid(s.now())
	st.Scope = tok.Scope
	expires := tok.ExpiresAt
	st.ExpiresAt = &expires
	if id, err := strconv.ParseInt(tok.ProviderUserID, 10, 64); err == nil {
		st.AthleteID = &id
	}
	if raw, ok := tok.ProviderData["last_sync_at"].(string); ok {
		if at, err := time.Parse(time.RFC3339, raw); err == nil {
			st.LastSyncAt = &at
		}
	}
	return st, nil
}

// Sync imports new Strava activities for userID. Only one sync per user runs
// at a time; a concurrent call returns ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID, opts SyncOptions) (*SyncResult, error) {
	if !s.acquire(userID) {
		return nil, ErrSyncInProgress
	}
	defer s.release(userID)

	result := &SyncResult{Full: opts.Full, StartedAt: s.now().UTC()}
	tok, err := s.runSync(ctx, userID, opts, result)
	result.FinishedAt = s.now().UTC()
	metrics.RecordSyncOperation(result.FinishedAt.Sub(result.StartedAt), result.Fetched, result.Created, err)

	log := logging.Ctx(ctx).With().Str("user_id", userID.String()).Logger()
	if err != nil {
		log.Warn().Err(err).Int("created", result.Created).Msg("Strava sync failed")
		// Stored pages are kept, so consumers still need to see them.
		if result.Created > 0 {
			s.publishSynced(ctx, userID, result, err)
		}
		return result, err
	}

	if recErr := s.tokens.RecordSync(ctx, tok.ID, result.FinishedAt); recErr != nil {
		log.Warn().Err(recErr).Msg("Failed to record sync time")
	}
	log.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("pages", result.Pages).
		Msg("Strava sync completed")

	s.publishSynced(ctx, userID, result, nil)
	return result, nil
}

func (s *Service) publishSynced(ctx context.Context, userID uuid.UUID, result *SyncResult, syncErr error) {
	payload := events.ActivitiesSynced{
		Fetched:    result.Fetched,
		Created:    result.Created,
		Skipped:    result.Skipped,
		Pages:      result.Pages,
		Full:       result.Full,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if syncErr != nil {
		payload.Partial = true
		payload.Error = logging.SanitizeError(syncErr.Error())
	}
	s.publish(ctx, events.TopicActivitiesSynced, userID, payload)
}

func (s *Service) runSync(ctx context.Context, userID uuid.UUID, opts SyncOptions, result *SyncResult) (*models.AuthToken, error) {
	tok, err := s.ValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	after, err := s.windowStart(ctx, userID, opts.Full)
	if err != nil {
		return tok, err
	}

	seen := make(map[string]struct{})
	for page := 1; page <= s.syncCfg.MaxPages; page++ {
		batch, err := s.api.ListActivities(ctx, tok.AccessToken, ListOptions{
			After:   after,
			Page:    page,
			PerPage: s.syncCfg.PageSize,
		})
		if err != nil {
			return tok, err
		}
		result.Pages++
		result.Fetched += len(batch)

		if err := s.importPage(ctx, userID, batch, seen, result); err != nil {
			return tok, err
		}
		if len(batch) < s.syncCfg.PageSize {
			break
		}
	}
	return tok, nil
}

// windowStart is the lower bound of the activities requested from Strava.
func (s *Service) windowStart(ctx context.Context, userID uuid.UUID, full bool) (time.Time, error) {
	floor := s.now().Add(-s.syncCfg.Lookback)
	if full {
		return floor, nil
	}

	latest, err := s.activities.LatestStartDate(ctx, userID, models.SourceStrava)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest strava activity: %w", err)
	}
	if latest == nil {
		return floor, nil
	}
	return latest.Add(-s.syncCfg.Overlap), nil
}

func (s *Service) importPage(ctx context.Context, userID uuid.UUID, batch []SummaryActivity, seen map[string]struct{}, result *SyncResult) error {
	candidates := make([]*SummaryActivity, 0, len(batch))
	ids := make([]string, 0, len(batch))
	for i := range batch {
		sa := &batch[i]
		if !s.allowedTypes[sa.Sport()] {
			skip(result, "unsupported_type")
			continue
		}
		id := strconv.FormatInt(sa.ID, 10)
		if _, dup := seen[id]; dup {
			skip(result, "duplicate")
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, sa)
		ids = append(ids, id)
	}
	if len(candidates) == 0 {
		return nil
	}

	existing, err := s.activities.ExistingExternalIDs(ctx, userID, models.SourceStrava, ids)
	if err != nil {
		return fmt.Errorf("check existing activities: %w", err)
	}

	fresh := make([]*models.Activity, 0, len(candidates))
	for i, sa := range candidates {
		if _, ok := existing[ids[i]]; ok {
			skip(result, "exists")
			continue
		}
		fresh = append(fresh, ConvertActivity(userID, sa))
	}
	if len(fresh) == 0 {
		return nil
	}

	created, err := s.activities.CreateBatch(ctx, fresh)
	if err != nil {
		return fmt.Errorf("store strava activities: %w", err)
	}
	result.Created += int(created)
	if conflicts := len(fresh) - int(created); conflicts > 0 {
		result.Skipped += conflicts
		metrics.SyncActivitiesSkipped.WithLabelValues("exists").Add(float64(conflicts))
	}
	return nil
}

func skip(result *SyncResult, reason string) {
	result.Skipped++
	metrics.SyncActivitiesSkipped.WithLabelValues(reason).Inc()
}

// SyncAll runs an incremental sync for every connected user, one at a time.
func (s *Service) SyncAll(ctx context.Context) (*SyncAllResult, error) {
	tokens, err := s.tokens.ListActive(ctx, models.ProviderStrava)
	if err != nil {
		return nil, fmt.Errorf("list strava connections: %w", err)
	}

	out := &SyncAllResult{Users: len(tokens)}
	for i := range tokens {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		res, err := s.Sync(ctx, tokens[i].UserID, SyncOptions{})
		switch {
		case errors.Is(err, ErrSyncInProgress):
			out.Busy++
		case err != nil:
			out.Failed++
		default:
			out.Succeeded++
			out.Created += res.Created
		}
	}
	return out, nil
}

// HandleWebhookEvent reacts to a push subscription event: activity changes
// queue a sync, athlete deauthorization unlinks the account. Events that don't
// carry the configured subscription ID are rejected with ErrWebhookVerification.
func (s *Service) HandleWebhookEvent(ctx context.Context, ev WebhookEvent) error {
	if s.cfg.WebhookSubscriptionID == 0 || ev.SubscriptionID != s.cfg.WebhookSubscriptionID {
		s.security.LogWebhookRejected(ev.SubscriptionID, ev.OwnerID)
		return ErrWebhookVerification
	}

	tok, err := s.tokens.GetByProviderUserID(ctx, models.ProviderStrava, strconv.FormatInt(ev.OwnerID, 10))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logging.Ctx(ctx).Debug().Int64("owner_id", ev.OwnerID).Msg("Webhook event for unknown athlete")
			return nil
		}
		return fmt.Errorf("lookup athlete: %w", err)
	}

	switch {
	case ev.Deauthorized():
		s.unlink(ctx, tok.UserID, events.ReasonDeauthorized)
	case ev.ObjectType == "activity" && (ev.AspectType == "create" || ev.AspectType == "update"):
		s.requestSync(tok.UserID)
	default:
		logging.Ctx(ctx).Debug().
			Str("object_type", ev.ObjectType).
			Str("aspect_type", ev.AspectType).
			Msg("Ignoring webhook event")
	}
	return nil
}

// VerifyWebhook answers a subscription validation request.
func (s *Service) VerifyWebhook(mode, token, challenge string) (string, error) {
	if s.cfg.WebhookVerifyToken == "" || mode != "subscribe" || token != s.cfg.WebhookVerifyToken || challenge == "" {
		return "", ErrWebhookVerification
	}
	return challenge, nil
}

// unlink deactivates the token without calling Strava.
func (s *Service) unlink(ctx context.Context, userID uuid.UUID, reason string) {
	if err := s.tokens.Deactivate(ctx, userID, models.ProviderStrava); err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID.String()).Msg("Failed to deactivate strava token")
		return
	}
	if err := s.users.SetStravaAthleteID(ctx, userID, nil); err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID.String()).Msg("Failed to unlink strava athlete")
	}
	s.security.LogStravaDisconnected(userID.String())
	s.publish(ctx, events.TopicStravaDisconnected, userID, events.StravaDisconnected{Reason: reason})
}

// SetTrigger routes background sync requests through fn, usually the
// scheduler's queue.
func (s *Service) SetTrigger(fn func(uuid.UUID) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = fn
}

// requestSync queues a sync, or starts one in the background when no
// scheduler is attached.
func (s *Service) requestSync(userID uuid.UUID) {
	s.mu.Lock()
	trigger := s.trigger
	s.mu.Unlock()

	if trigger != nil {
		if !trigger(userID) {
			logging.Warn().Str("user_id", userID.String()).Msg("Sync queue full, dropping request")
		}
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), initialSyncTimeout)
		defer cancel()
		if _, err := s.Sync(ctx, userID, SyncOptions{}); err != nil && !errors.Is(err, ErrSyncInProgress) {
			logging.Warn().Err(err).Str("user_id", userID.String()).Msg("Background strava sync failed")
		}
	}()
}

// Wait blocks until background syncs started without a scheduler finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) acquire(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

func (s *Service) syncing(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[userID]
	return busy
}

func (s *Service) publish(ctx context.Context, topic string, userID uuid.UUID, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, userID, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}
