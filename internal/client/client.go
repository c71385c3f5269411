package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/binwin/binwin-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrBadResponse marks a server reply that could not be decoded. It
// is distinct from APIError, which is a well-formed business error.
var ErrBadResponse = errors.New("unparsable server response")

// APIError is an error the server reported deliberately.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Client is a typed HTTP client for the BinWin backend. Every call
// takes a context so callers can cancel in-flight requests on
// teardown instead of leaking goroutines into dead views.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient initializes a new API client
func NewClient(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// Signup registers a new account and returns the server's
// confirmation message.
func (c *Client) Signup(ctx context.Context, name, email, password, confirmPassword, role string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.post(ctx, "/signup", signupRequest{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
		Role:            role,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// LoginResult is a successful authentication response.
type LoginResult struct {
	UserID int64
	Role   string
	Token  string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login authenticates against the backend.
func (c *Client) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	var out struct {
		User struct {
			UserID int64  `json:"user_id"`
			Role   string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/login", loginRequest{Email: email, Password: password, Role: role}, &out); err != nil {
		return nil, err
	}
	return &LoginResult{UserID: out.User.UserID, Role: out.User.Role, Token: out.Token}, nil
}

// UserSchedules fetches the pending proposals for a user.
func (c *Client) UserSchedules(ctx context.Context, userID int64) ([]models.ScheduleProposal, error) {
	var out struct {
		Schedules []models.ScheduleProposal `json:"schedules"`
	}
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	if err := c.get(ctx, "/displayuserSchedule", query, &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

// CompanySchedules fetches every proposal a company has created.
func (c *Client) CompanySchedules(ctx context.Context, companyID int64) ([]models.ScheduleProposal, error) {
	var out struct {
		Schedules []models.ScheduleProposal `json:"schedules"`
	}
	query := url.Values{"user_id": {strconv.FormatInt(companyID, 10)}}
	if err := c.get(ctx, "/displayCompanySchedule", query, &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

// AcceptRequest identifies the proposal a user is accepting.
type AcceptRequest struct {
	UserID     int64 `json:"user_id"`
	CompanyID  int64 `json:"company_id"`
	ScheduleID int64 `json:"id"`
}

// AcceptSchedule confirms a pending pickup.
func (c *Client) AcceptSchedule(ctx context.Context, req AcceptRequest) error {
	var out struct{}
	return c.post(ctx, "/acceptSchedule", req, &out)
}

// DeclineRequest carries a user's rejection of a proposal. The
// contract mirrors AcceptRequest plus the reason and requested date.
type DeclineRequest struct {
	UserID     int64  `json:"user_id"`
	ScheduleID int64  `json:"id"`
	Reason     string `json:"reason"`
	NewDate    string `json:"new_date"`
}

// DeclineSchedule rejects a pending pickup.
func (c *Client) DeclineSchedule(ctx context.Context, req DeclineRequest) error {
	var out struct{}
	return c.post(ctx, "/declineSchedule", req, &out)
}

// CreateScheduleRequest is a company's proposal of a pickup slot.
type CreateScheduleRequest struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// CreateSchedule proposes a pickup to a user and returns the server's
// confirmation message.
func (c *Client) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/companySchedule", req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends the request and decodes the reply in a single strict step.
// A reply that is not valid JSON comes back wrapped in ErrBadResponse
// so callers can tell a broken boundary apart from a business error.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.apiError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Debugf("Bad response from %s: %s", req.URL.Path, snippet(raw))
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// apiError extracts the server-reported message from an error reply.
// The backend uses "error" on schedule routes and "message" on auth
// routes; either way the text is surfaced verbatim when present.
func (c *Client) apiError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("server error (status %d)", status)
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			msg = body.Error
		} else if body.Message != "" {
			msg = body.Message
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func snippet(raw []byte) string {
	const max = 200
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
