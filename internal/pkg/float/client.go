package float

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/config"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/schedule"
	"golang.org/x/oauth2"
)

const (
	tasksPath            = "/v3/tasks"
	dateLayout           = "2006-01-02"
	headerPageCount      = "X-Pagination-Page-Count"
	maxErrorBodyBytes    = 1 << 10
	defaultFloatPageSize = 200
)

// Client reads scheduled tasks from the Float API. It implements schedule.Provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	userAgent  string
}

var _ schedule.Provider = (*Client)(nil)

// NewClient creates a Float client authenticating with a static bearer token.
func NewClient(cfg config.FloatConfig) *Client {
	return NewClientWithHTTPClient(cfg, &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: cfg.APIToken,
				TokenType:   "Bearer",
			}),
			Base: http.DefaultTransport,
		},
	})
}

// NewClientWithHTTPClient lets callers supply the transport (tests, proxies).
func NewClientWithHTTPClient(cfg config.FloatConfig, httpClient *http.Client) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultFloatPageSize
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		pageSize:   pageSize,
		userAgent:  cfg.UserAgent,
	}
}

// APIError represents a non-2xx Float response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("float API error [%d]: %s", e.StatusCode, e.Body)
}

// taskPayload mirrors the Float task resource.
type taskPayload struct {
	TaskID    int64    `json:"task_id"`
	ProjectID *int64   `json:"project_id"`
	PeopleID  *int64   `json:"people_id"`
	PeopleIDs []int64  `json:"people_ids"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	StartTime string   `json:"start_time"`
	Hours     *float64 `json:"hours"`
	Name      string   `json:"name"`
}

func (p taskPayload) toDomain() schedule.ExternalTask {
	return schedule.ExternalTask{
		TaskID:    p.TaskID,
		PeopleID:  p.PeopleID,
		PeopleIDs: p.PeopleIDs,
		ProjectID: p.ProjectID,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		StartTime: p.StartTime,
		Hours:     p.Hours,
		Name:      p.Name,
	}
}

// GetTasksForDate returns every task overlapping date, following pagination. Any failure is
// wrapped with schedule.ErrUpstreamUnavailable.
func (c *Client) GetTasksForDate(ctx context.Context, date time.Time) ([]schedule.ExternalTask, error) {
	day := date.Format(dateLayout)

	var tasks []schedule.ExternalTask
	for page := 1; ; page++ {
		payload, pageCount, err := c.fetchTasksPage(ctx, day, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", schedule.ErrUpstreamUnavailable, err)
		}
		for _, p := range payload {
			tasks = append(tasks, p.toDomain())
		}
		if page >= pageCount || len(payload) == 0 {
			break
		}
	}

	return tasks, nil
}

func (c *Client) fetchTasksPage(ctx context.Context, day string, page int) ([]taskPayload, int, error) {
	query := url.Values{}
	query.Set("start_date", day)
	query.Set("end_date", day)
	query.Set("page", strconv.Itoa(page))
	query.Set("per-page", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tasksPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload []taskPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}

	pageCount := 1
	if raw := resp.Header.Get(headerPageCount); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pageCount = n
		}
	}

	return payload, pageCount, nil
}
