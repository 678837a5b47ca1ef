package meetingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	apperrors "lectern/pkg/errors"
)

// Client is the HTTP client for the meeting backend. Parameters travel in
// the query string; responses are JSON bodies with either the payload or an
// "error" field.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ ports.MeetingAPI = (*Client)(nil)

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type joinResponse struct {
	JoinInfo *domain.JoinInfo `json:"JoinInfo"`
	Error    string           `json:"error"`
}

type attendeeResponse struct {
	AttendeeInfo *struct {
		AttendeeID string `json:"AttendeeId"`
		Name       string `json:"Name"`
	} `json:"AttendeeInfo"`
	Error string `json:"error"`
}

type regionResponse struct {
	Region string `json:"region"`
	Error  string `json:"error"`
}

// Join creates the meeting if needed and provisions an attendee.
func (c *Client) Join(ctx context.Context, title, name, region string, role domain.Role) (domain.JoinInfo, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("name", name)
	query.Set("region", region)
	query.Set("role", string(role))

	var resp joinResponse
	if err := c.do(ctx, http.MethodPost, "/v1/join", query, &resp); err != nil {
		return domain.JoinInfo{}, err
	}
	if resp.Error != "" {
		return domain.JoinInfo{}, apperrors.NewServerError(resp.Error)
	}
	if resp.JoinInfo == nil {
		return domain.JoinInfo{}, apperrors.NewServerError("join response carries no join info")
	}
	return *resp.JoinInfo, nil
}

// AttendeeName resolves an attendee identifier to its display name.
func (c *Client) AttendeeName(ctx context.Context, title string, attendeeID domain.AttendeeID) (string, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("attendee", string(attendeeID))

	var resp attendeeResponse
	if err := c.do(ctx, http.MethodGet, "/v1/attendee", query, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", apperrors.NewServerError(resp.Error)
	}
	if resp.AttendeeInfo == nil {
		return "", apperrors.NewServerError("attendee response carries no attendee info")
	}
	return resp.AttendeeInfo.Name, nil
}

// End ends the meeting for everyone.
func (c *Client) End(ctx context.Context, title string) error {
	query := url.Values{}
	query.Set("title", title)

	var resp struct {
		Error string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/end", query, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return apperrors.NewServerError(resp.Error)
	}
	return nil
}

// ClosestRegion asks the backend for the nearest supported media region.
func (c *Client) ClosestRegion(ctx context.Context) (string, error) {
	var resp regionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/region", nil, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", apperrors.NewServerError(resp.Error)
	}
	return resp.Region, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return apperrors.NewServerError(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewServerError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewServerError(err.Error())
	}

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode >= 400 {
			return apperrors.NewServerError(fmt.Sprintf("backend returned status %d", resp.StatusCode))
		}
		return apperrors.NewServerError("backend returned a malformed response")
	}
	return nil
}
