package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type integrationRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Integration, error)
	FindByProvider(ctx context.Context, teacherID string, provider models.IntegrationProvider) (*models.Integration, error)
	Upsert(ctx context.Context, integration *models.Integration) error
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry *time.Time) error
	Disconnect(ctx context.Context, teacherID string, provider models.IntegrationProvider) error
}

const zoomAPIBase = "https://api.zoom.us/v2"

// IntegrationService manages OAuth connections to Google and Zoom and
// provisions meeting links for calendar events.
type IntegrationService struct {
	repo       integrationRepository
	googleAuth *oauth2.Config
	zoomAuth   *oauth2.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIntegrationService creates a new integration service. Either OAuth
// config may be nil when the provider is not configured.
func NewIntegrationService(repo integrationRepository, googleAuth, zoomAuth *oauth2.Config, logger *zap.Logger) *IntegrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationService{
		repo:       repo,
		googleAuth: googleAuth,
		zoomAuth:   zoomAuth,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// NewGoogleOAuthConfig builds the Google OAuth config for Calendar access.
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarEventsScope, "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// NewZoomOAuthConfig builds the Zoom OAuth config.
func NewZoomOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://zoom.us/oauth/authorize",
			TokenURL: "https://zoom.us/oauth/token",
		},
	}
}

// Status returns the connection state of every provider for a teacher.
func (s *IntegrationService) Status(ctx context.Context, teacherID string) ([]models.IntegrationStatus, error) {
	integrations, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list integrations")
	}

	statuses := make([]models.IntegrationStatus, 0, len(integrations))
	for _, integration := range integrations {
		status := models.IntegrationStatus{
			Provider:     integration.Provider,
			Connected:    integration.Connected,
			AccountEmail: integration.AccountEmail,
		}
		if integration.Connected {
			connectedAt := integration.UpdatedAt
			status.ConnectedAt = &connectedAt
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// AuthURL returns the provider consent page URL. The state parameter carries
// the teacher identity back through the callback.
func (s *IntegrationService) AuthURL(provider models.IntegrationProvider, state string) (string, error) {
	cfg, err := s.oauthConfig(provider)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Connect exchanges the OAuth callback code and stores the token set.
func (s *IntegrationService) Connect(ctx context.Context, teacherID string, provider models.IntegrationProvider, code string) error {
	cfg, err := s.oauthConfig(provider)
	if err != nil {
		return err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to exchange authorization code")
	}

	integration := &models.Integration{
		TeacherID:    teacherID,
		Provider:     provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Connected:    true,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		integration.TokenExpiry = &expiry
	}
	if err := s.repo.Upsert(ctx, integration); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store integration")
	}
	return nil
}

// Disconnect removes the stored tokens for a provider.
func (s *IntegrationService) Disconnect(ctx context.Context, teacherID string, provider models.IntegrationProvider) error {
	if err := s.repo.Disconnect(ctx, teacherID, provider); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to disconnect integration")
	}
	return nil
}

// CreateMeeting provisions a video call. Google is preferred when both
// providers are connected.
func (s *IntegrationService) CreateMeeting(ctx context.Context, teacherID, title string, startsAt, endsAt time.Time) (string, string, error) {
	if integration, err := s.connected(ctx, teacherID, models.ProviderGoogle); err == nil {
		return s.createGoogleMeeting(ctx, integration, title, startsAt, endsAt)
	}
	if integration, err := s.connected(ctx, teacherID, models.ProviderZoom); err == nil {
		return s.createZoomMeeting(ctx, integration, title, startsAt, endsAt)
	}
	return "", "", appErrors.Clone(appErrors.ErrPreconditionFailed, "no meeting provider connected")
}

// DeleteMeeting tears down a previously provisioned meeting.
func (s *IntegrationService) DeleteMeeting(ctx context.Context, teacherID, externalRef string) error {
	provider, ref, ok := strings.Cut(externalRef, ":")
	if !ok {
		return fmt.Errorf("malformed meeting reference %q", externalRef)
	}

	switch models.IntegrationProvider(provider) {
	case models.ProviderGoogle:
		integration, err := s.connected(ctx, teacherID, models.ProviderGoogle)
		if err != nil {
			return err
		}
		svc, err := s.calendarService(ctx, integration)
		if err != nil {
			return err
		}
		return svc.Events.Delete("primary", ref).Context(ctx).Do()
	case models.ProviderZoom:
		integration, err := s.connected(ctx, teacherID, models.ProviderZoom)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/meetings/%s", zoomAPIBase, url.PathEscape(ref)), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+integration.AccessToken)
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("delete zoom meeting: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode >= 300 {
			return fmt.Errorf("delete zoom meeting: status %d", resp.StatusCode)
		}
		return nil
	}
	return fmt.Errorf("unknown meeting provider %q", provider)
}

func (s *IntegrationService) createGoogleMeeting(ctx context.Context, integration *models.Integration, title string, startsAt, endsAt time.Time) (string, string, error) {
	svc, err := s.calendarService(ctx, integration)
	if err != nil {
		return "", "", err
	}

	event := &calendar.Event{
		Summary: title,
		Start:   &calendar.EventDateTime{DateTime: startsAt.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: endsAt.Format(time.RFC3339)},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("tutorhive-%d", time.Now().UnixNano()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := svc.Events.Insert("primary", event).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("create calendar event: %w", err)
	}

	meetingURL := created.HangoutLink
	if meetingURL == "" {
		meetingURL = created.HtmlLink
	}
	return meetingURL, fmt.Sprintf("%s:%s", models.ProviderGoogle, created.Id), nil
}

func (s *IntegrationService) createZoomMeeting(ctx context.Context, integration *models.Integration, title string, startsAt, endsAt time.Time) (string, string, error) {
	payload := map[string]interface{}{
		"topic":      title,
		"type":       2,
		"start_time": startsAt.Format(time.RFC3339),
		"duration":   int(endsAt.Sub(startsAt).Minutes()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, zoomAPIBase+"/users/me/meetings", strings.NewReader(string(body)))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+integration.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("create zoom meeting: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("create zoom meeting: status %d", resp.StatusCode)
	}

	var meeting struct {
		ID      int64  `json:"id"`
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return "", "", fmt.Errorf("decode zoom response: %w", err)
	}
	return meeting.JoinURL, fmt.Sprintf("%s:%d", models.ProviderZoom, meeting.ID), nil
}

func (s *IntegrationService) calendarService(ctx context.Context, integration *models.Integration) (*calendar.Service, error) {
	if s.googleAuth == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "google integration is not configured")
	}

	token := &oauth2.Token{
		AccessToken:  integration.AccessToken,
		RefreshToken: integration.RefreshToken,
	}
	if integration.TokenExpiry != nil {
		token.Expiry = *integration.TokenExpiry
	}

	source := s.googleAuth.TokenSource(ctx, token)
	svc, err := calendar.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("build calendar client: %w", err)
	}

	// Persist rotated tokens so the next call skips the refresh round trip.
	if fresh, err := source.Token(); err == nil && fresh.AccessToken != integration.AccessToken {
		expiry := fresh.Expiry
		if err := s.repo.UpdateTokens(ctx, integration.ID, fresh.AccessToken, fresh.RefreshToken, &expiry); err != nil {
			s.logger.Warn("failed to persist refreshed tokens", zap.Error(err))
		}
	}
	return svc, nil
}

func (s *IntegrationService) connected(ctx context.Context, teacherID string, provider models.IntegrationProvider) (*models.Integration, error) {
	integration, err := s.repo.FindByProvider(ctx, teacherID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "integration not connected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration")
	}
	if !integration.Connected {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "integration not connected")
	}
	return integration, nil
}

func (s *IntegrationService) oauthConfig(provider models.IntegrationProvider) (*oauth2.Config, error) {
	switch provider {
	case models.ProviderGoogle:
		if s.googleAuth == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "google integration is not configured")
		}
		return s.googleAuth, nil
	case models.ProviderZoom:
		if s.zoomAuth == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "zoom integration is not configured")
		}
		return s.zoomAuth, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown provider")
}
