package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"activities-web/internal/domain"
	apperrors "activities-web/pkg/errors"
	"activities-web/pkg/logger"
)

// ActivitiesClient talks to the activities REST API over HTTP.
type ActivitiesClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewActivitiesClient creates a new activities API client. A zero timeout
// leaves requests without a deadline beyond the caller's context.
func NewActivitiesClient(baseURL string, timeout time.Duration, logger *logger.Logger) *ActivitiesClient {
	return &ActivitiesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("activities_api"),
	}
}

// ListActivities handles GET /activities
func (c *ActivitiesClient) ListActivities(ctx context.Context) (domain.Catalog, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/activities")
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, apperrors.NewRejectedError(status, detailOf(body))
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, apperrors.NewNetworkError("activities response is not an object", nil)
	}

	// gjson walks the object in document order, which keeps the API's ordering.
	catalog := make(domain.Catalog, 0)
	result.ForEach(func(key, value gjson.Result) bool {
		activity := domain.Activity{
			Name:            key.String(),
			Description:     value.Get("description").String(),
			Schedule:        value.Get("schedule").String(),
			MaxParticipants: int(value.Get("max_participants").Int()),
		}
		for _, p := range value.Get("participants").Array() {
			activity.Participants = append(activity.Participants, p.String())
		}
		catalog = append(catalog, activity)
		return true
	})

	c.logger.WithField("activities", len(catalog)).Debug("Fetched activities")
	return catalog, nil
}

// Signup handles POST /activities/{name}/signup?email={email}
func (c *ActivitiesClient) Signup(ctx context.Context, activity, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/activities/%s/signup?email=%s",
		c.baseURL, encodeURIComponent(activity), encodeURIComponent(email))
	return c.command(ctx, http.MethodPost, endpoint)
}

// Unregister handles DELETE /activities/{name}/participants?email={email}
func (c *ActivitiesClient) Unregister(ctx context.Context, activity, email string) (string, error) {
	endpoint := fmt.Sprintf("%s/activities/%s/participants?email=%s",
		c.baseURL, encodeURIComponent(activity), encodeURIComponent(email))
	return c.command(ctx, http.MethodDelete, endpoint)
}

// command issues a signup/unregister style request answering {message} or {detail}
func (c *ActivitiesClient) command(ctx context.Context, method, endpoint string) (string, error) {
	status, body, err := c.do(ctx, method, endpoint)
	if err != nil {
		return "", err
	}

	if status < 200 || status > 299 {
		detail := detailOf(body)
		c.logger.WithFields(map[string]interface{}{
			"method":      method,
			"status_code": status,
			"detail":      detail,
		}).Info("Activities API rejected request")
		return "", apperrors.NewRejectedError(status, detail)
	}

	return gjson.GetBytes(body, "message").String(), nil
}

// do performs the request and returns the status and a body that is known to be JSON
func (c *ActivitiesClient) do(ctx context.Context, method, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, nil, apperrors.NewNetworkError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("method", method).Error("Activities API request failed")
		return 0, nil, apperrors.NewNetworkError("failed to call activities API", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read activities API response")
		return 0, nil, apperrors.NewNetworkError("failed to read response body", err)
	}

	if !gjson.ValidBytes(body) {
		c.logger.WithFields(map[string]interface{}{
			"method":      method,
			"status_code": resp.StatusCode,
		}).Error("Activities API returned a non-JSON body")
		return 0, nil, apperrors.NewNetworkError("failed to parse response body", nil)
	}

	return resp.StatusCode, body, nil
}

// detailOf extracts a textual detail field; any other shape yields ""
func detailOf(body []byte) string {
	detail := gjson.GetBytes(body, "detail")
	if detail.Type != gjson.String {
		return ""
	}
	return detail.String()
}

var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent percent-encodes s the way browsers encode a URI
// component: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}
