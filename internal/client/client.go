// Package client provides a Go client for the DevConnect API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphabot-ai/devconnect/internal/model"
)

// TokenHeader is the header the server reads the session token from.
const TokenHeader = "x-auth-token"

// Client is a DevConnect API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Msg    string
	Fields []FieldError
}

type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Msg)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return fmt.Sprintf("%d: %s", e.Status, strings.Join(msgs, "; "))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// New creates a new DevConnect client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.storeToken(c.do(http.MethodPost, "/api/users", body, &tokenResult{}))
}

// Login exchanges credentials for a token and keeps it.
func (c *Client) Login(email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.storeToken(c.do(http.MethodPost, "/api/auth", body, &tokenResult{}))
}

type tokenResult struct {
	Token string `json:"token"`
}

func (c *Client) storeToken(out any, err error) error {
	if err != nil {
		return err
	}
	c.Token = out.(*tokenResult).Token
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me() (*model.User, error) {
	var u model.User
	if _, err := c.do(http.MethodGet, "/api/auth", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreatePost(text string) (*model.Post, error) {
	var p model.Post
	if _, err := c.do(http.MethodPost, "/api/posts", map[string]string{"text": text}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPosts() ([]model.Post, error) {
	var posts []model.Post
	if _, err := c.do(http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(id string) (*model.Post, error) {
	var p model.Post
	if _, err := c.do(http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost deletes a post you own.
func (c *Client) DeletePost(id string) error {
	_, err := c.do(http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) Like(id string) ([]model.Like, error) {
	var likes []model.Like
	if _, err := c.do(http.MethodPut, "/api/posts/like/"+url.PathEscape(id), nil, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (c *Client) Unlike(id string) ([]model.Like, error) {
	var likes []model.Like
	if _, err := c.do(http.MethodPut, "/api/posts/unlike/"+url.PathEscape(id), nil, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

// Comment adds a comment and returns the updated post.
func (c *Client) Comment(postID, text string) (*model.Post, error) {
	var p model.Post
	path := "/api/posts/comment/" + url.PathEscape(postID)
	if _, err := c.do(http.MethodPost, path, map[string]string{"text": text}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Uncomment deletes one of your comments and returns the remaining ones.
func (c *Client) Uncomment(postID, commentID string) ([]model.Comment, error) {
	var comments []model.Comment
	path := "/api/posts/comment/" + url.PathEscape(postID) + "/" + url.PathEscape(commentID)
	if _, err := c.do(http.MethodDelete, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// do performs the request and decodes a 200 answer into out. Any other
// status comes back as *APIError.
func (c *Client) do(method, path string, body, out any) (any, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set(TokenHeader, c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return out, nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Msg    string       `json:"msg"`
		Errors []FieldError `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || (payload.Msg == "" && len(payload.Errors) == 0) {
		return &APIError{Status: status, Msg: strings.TrimSpace(string(body))}
	}
	return &APIError{Status: status, Msg: payload.Msg, Fields: payload.Errors}
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
	seq     int
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a fresh user called name and returns a
// client holding its token. The email is derived from name.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, error) {
	h.seq++
	email := fmt.Sprintf("%s.%d@example.com", strings.ToLower(strings.ReplaceAll(name, " ", ".")), h.seq)
	c := New(h.BaseURL)
	if err := c.Register(name, email, "password123"); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

// GetToken registers a user and returns just the token.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
