// Package client is a small Go SDK for the Gastbook HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// APIError is a non-zero code in the response envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gastbook: %d %s", e.Code, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken is called by Login and Register; use it to resume a session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do sends body as JSON and decodes the envelope's data into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

type User struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type auth struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	var a auth
	err := c.Do(ctx, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &a)
	if err != nil {
		return nil, err
	}
	c.SetToken(a.AccessToken)
	return a.User, nil
}

func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*User, error) {
	var a auth
	err := c.Do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username_or_email": usernameOrEmail,
		"password":          password,
	}, &a)
	if err != nil {
		return nil, err
	}
	c.SetToken(a.AccessToken)
	return a.User, nil
}

type Post struct {
	ID            uint      `json:"id"`
	AuthorID      uint      `json:"author_id"`
	Content       string    `json:"content"`
	Visibility    string    `json:"visibility"`
	CreatedAt     time.Time `json:"created_at"`
	Author        *User     `json:"author"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
}

type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

func (c *Client) CreatePost(ctx context.Context, content, visibility string) (*Post, error) {
	var p Post
	err := c.Do(ctx, http.MethodPost, "/api/v1/posts", map[string]string{
		"content":    content,
		"visibility": visibility,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Feed scope is friends or public; an empty cursor starts from the newest post.
func (c *Client) Feed(ctx context.Context, scope, cursor string, pageSize int) (*Page[Post], error) {
	q := url.Values{}
	q.Set("scope", scope)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var page Page[Post]
	if err := c.Do(ctx, http.MethodGet, "/api/v1/feed?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Like(ctx context.Context, postID uint) (*LikeState, error) {
	return c.likeCall(ctx, http.MethodPost, postID)
}

func (c *Client) Unlike(ctx context.Context, postID uint) (*LikeState, error) {
	return c.likeCall(ctx, http.MethodDelete, postID)
}

func (c *Client) likeCall(ctx context.Context, method string, postID uint) (*LikeState, error) {
	var s LikeState
	if err := c.Do(ctx, method, fmt.Sprintf("/api/v1/posts/%d/like", postID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type Friendship struct {
	ID          uint   `json:"id"`
	RequesterID uint   `json:"requester_id"`
	AddresseeID uint   `json:"addressee_id"`
	Status      string `json:"status"`
}

func (c *Client) SendFriendRequest(ctx context.Context, userID uint) (*Friendship, error) {
	var out struct {
		Request *Friendship `json:"request"`
	}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/request", userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (c *Client) CancelFriendRequest(ctx context.Context, requestID uint) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/friends/requests/%d", requestID), nil, nil)
}

// Health reports the server's /health payload.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
