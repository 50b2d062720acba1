package hacker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackersnooze/models"
)

const defaultBaseURL = "https://hack-or-snooze-v3.herokuapp.com"

// Client handles requests to the Hack-or-Snooze REST service. It is the
// only place in the codebase that knows the wire format; everything above
// it works with models and typed errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// UserRecord is the user payload as the service returns it, including the
// nested favorite and own-story records.
type UserRecord struct {
	Username  string         `json:"username"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Favorites []models.Story `json:"favorites"`
	Stories   []models.Story `json:"stories"`
}

// AuthResult is the response to signup and login: the profile plus the
// issued login token.
type AuthResult struct {
	User  UserRecord `json:"user"`
	Token string     `json:"token"`
}

type storiesResponse struct {
	Stories []models.Story `json:"stories"`
}

type storyResponse struct {
	Story models.Story `json:"story"`
}

type userResponse struct {
	User UserRecord `json:"user"`
}

// apiErrorResponse is the error envelope the service wraps rejections in.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Title   string `json:"title"`
	} `json:"error"`
	Message string `json:"message"`
}

// NewClient creates a client for the given service base URL. An empty
// baseURL selects the public Hack-or-Snooze instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetTimeout overrides the default per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// Stories retrieves the current front-page story collection. No
// authentication required.
func (c *Client) Stories(ctx context.Context) ([]models.Story, error) {
	var out storiesResponse
	if err := c.do(ctx, http.MethodGet, "/stories", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch stories: %w", err)
	}
	return out.Stories, nil
}

// CreateStory submits a new story on behalf of the token's owner and
// returns the record the service assigned (id, poster, timestamps).
func (c *Client) CreateStory(ctx context.Context, token string, draft models.StoryDraft) (*models.Story, error) {
	payload := map[string]any{
		"token": token,
		"story": draft,
	}
	var out storyResponse
	if err := c.do(ctx, http.MethodPost, "/stories", payload, &out); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return &out.Story, nil
}

// DeleteStory removes a story by id. The service rejects the call unless
// the token belongs to the story's author.
func (c *Client) DeleteStory(ctx context.Context, token, storyID string) error {
	payload := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodDelete, "/stories/"+url.PathEscape(storyID), payload, nil); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}

// Signup creates a new account and returns the profile with its token.
func (c *Client) Signup(ctx context.Context, username, password, name string) (*AuthResult, error) {
	payload := map[string]any{
		"user": map[string]string{
			"username": username,
			"password": password,
			"name":     name,
		},
	}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/signup", payload, &out); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &out, nil
}

// Login authenticates an existing account and returns the profile with
// its token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	payload := map[string]any{
		"user": map[string]string{
			"username": username,
			"password": password,
		},
	}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/login", payload, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// GetUser retrieves a user's profile, including nested favorites and own
// stories. The token is passed as a query parameter, matching the service
// contract.
func (c *Client) GetUser(ctx context.Context, token, username string) (*UserRecord, error) {
	path := fmt.Sprintf("/users/%s?token=%s", url.PathEscape(username), url.QueryEscape(token))
	var out userResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &out.User, nil
}

// AddFavorite marks a story as one of the user's favorites.
func (c *Client) AddFavorite(ctx context.Context, token, username, storyID string) error {
	payload := map[string]string{"token": token}
	path := fmt.Sprintf("/users/%s/favorites/%s", url.PathEscape(username), url.PathEscape(storyID))
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a story as one of the user's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, token, username, storyID string) error {
	payload := map[string]string{"token": token}
	path := fmt.Sprintf("/users/%s/favorites/%s", url.PathEscape(username), url.PathEscape(storyID))
	if err := c.do(ctx, http.MethodDelete, path, payload, nil); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// do performs one request/response cycle: marshal the payload, send it,
// map rejections onto the error taxonomy, and decode the body into out
// when a destination is given.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: KindTransport, Message: "decode response: " + err.Error(), Err: err}
		}
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(raw))
	var envelope apiErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		} else if envelope.Message != "" {
			message = envelope.Message
		}
	}
	if message == "" {
		message = resp.Status
	}

	return &Error{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: message,
	}
}
