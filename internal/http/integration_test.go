package httpapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/config"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/posts"
	"github.com/alphabot-ai/devconnect/internal/rate"
	"github.com/alphabot-ai/devconnect/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testClient struct {
	server *httptest.Server
	client *http.Client
	store  *sqlite.Store
	logs   *syncBuffer
}

// syncBuffer lets the test read logs the server may still be writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		RateLimits: config.RateLimits{LoginPerMinute: 1000, PostPerMinute: 1000, CommentPerMinute: 1000},
	}
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	return newTestClientWithConfig(t, testConfig())
}

func newTestClientWithConfig(t *testing.T, cfg config.Config) *testClient {
	t.Helper()
	dsnName := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	authSvc, err := auth.NewService(st, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), cfg.BcryptCost)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	logs := &syncBuffer{}
	server := NewServer(authSvc, posts.NewService(st), rate.NewMemory(), logging.New("debug", "text", logs), cfg)
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})
	return &testClient{server: ts, client: ts.Client(), store: st, logs: logs}
}

func (c *testClient) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response, out *T) {
	t.Helper()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("json decode: %v (body %s)", err, string(body))
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

// register creates a user and returns its token and id.
func register(t *testing.T, tc *testClient, name string) (string, string) {
	t.Helper()
	email := strings.ToLower(name) + "@example.com"
	resp := tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok tokenResponse
	decodeJSON(t, resp, &tok)
	require.NotEmpty(t, tok.Token)

	id, err := auth.NewTokenService(testSecret, time.Hour).Verify(tok.Token)
	require.NoError(t, err)
	return tok.Token, id
}

func createPost(t *testing.T, tc *testClient, token, text string) model.Post {
	t.Helper()
	resp := tc.do(t, http.MethodPost, "/api/posts", token, map[string]string{"text": text})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p model.Post
	decodeJSON(t, resp, &p)
	return p
}

func TestRegisterLoginMe(t *testing.T) {
	tc := newTestClient(t)
	_, id := register(t, tc, "Ann")

	resp := tc.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok tokenResponse
	decodeJSON(t, resp, &tok)

	resp = tc.do(t, http.MethodGet, "/api/auth", tok.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.NotContains(t, body, "password")

	var me model.User
	require.NoError(t, json.Unmarshal([]byte(body), &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "Ann", me.Name)
	assert.Equal(t, auth.GravatarURL("ann@example.com"), me.Avatar)
}

func TestRegisterValidation(t *testing.T) {
	tc := newTestClient(t)

	resp := tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "  ", "email": "not-an-email", "password": "123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errs errorsResponse
	decodeJSON(t, resp, &errs)
	assert.ElementsMatch(t, []fieldError{
		{Param: "name", Msg: "Name is required"},
		{Param: "email", Msg: "Please include a valid email"},
		{Param: "password", Msg: "Please enter a password with 6 or more characters"},
	}, errs.Errors)
}

func TestRegisterDuplicate(t *testing.T) {
	tc := newTestClient(t)
	register(t, tc, "Ann")

	resp := tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Other", "email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"errors":[{"msg":"User already exists"}]}`, readBody(t, resp))
}

func TestLoginInvalidCredentials(t *testing.T) {
	tc := newTestClient(t)
	register(t, tc, "Ann")

	wrongPassword := tc.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": "ann@example.com", "password": "wrong-password",
	})
	unknownEmail := tc.do(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, wrongPassword.StatusCode)
	require.Equal(t, http.StatusBadRequest, unknownEmail.StatusCode)

	a, b := readBody(t, wrongPassword), readBody(t, unknownEmail)
	assert.Equal(t, a, b)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid Credentials"}]}`, a)
}

func TestLoginValidation(t *testing.T) {
	tc := newTestClient(t)

	resp := tc.do(t, http.MethodPost, "/api/auth", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errs errorsResponse
	decodeJSON(t, resp, &errs)
	assert.ElementsMatch(t, []fieldError{
		{Param: "email", Msg: "Please include a valid email"},
		{Param: "password", Msg: "Password is required"},
	}, errs.Errors)

	// Unknown keys are ignored; the request reaches the credential check.
	resp = tc.do(t, http.MethodPost, "/api/auth", "", map[string]any{"email": "a@b.com", "password": "x", "extra": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid Credentials"}]}`, readBody(t, resp))
}

func TestMalformedJSONBody(t *testing.T) {
	tc := newTestClient(t)

	for _, path := range []string{"/api/auth", "/api/users"} {
		resp, err := tc.client.Post(tc.server.URL+path, "application/json", strings.NewReader(`{"email":`))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.JSONEq(t, `{"errors":[{"msg":"Invalid request body"}]}`, readBody(t, resp), path)
	}
}

func TestRegisterIgnoresUnknownFields(t *testing.T) {
	tc := newTestClient(t)

	resp := tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "password123", "password2": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok tokenResponse
	decodeJSON(t, resp, &tok)
	assert.NotEmpty(t, tok.Token)
}

func TestRegisterPasswordTooLong(t *testing.T) {
	tc := newTestClient(t)
	want := `{"errors":[{"param":"password","msg":"Password must be 72 characters or fewer"}]}`

	resp := tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": strings.Repeat("a", 80),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, want, readBody(t, resp))

	// 40 characters but 80 bytes: passes the length rule, bcrypt still refuses it.
	resp = tc.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": strings.Repeat("é", 40),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, want, readBody(t, resp))
	assert.NotContains(t, tc.logs.String(), "request failed")
}

func TestGuard(t *testing.T) {
	tc := newTestClient(t)

	resp := tc.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"No token, authorization denied"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodGet, "/api/posts", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Token is not valid"}`, readBody(t, resp))

	expired, err := auth.NewTokenService(testSecret, -time.Minute).Issue("someone")
	require.NoError(t, err)
	resp = tc.do(t, http.MethodGet, "/api/auth", expired, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Token is not valid"}`, readBody(t, resp))

	forged, err := auth.NewTokenService("other-secret", time.Hour).Issue("someone")
	require.NoError(t, err)
	resp = tc.do(t, http.MethodPost, "/api/posts", forged, map[string]string{"text": "hi"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	readBody(t, resp)
}

func TestMeUnknownUser(t *testing.T) {
	tc := newTestClient(t)
	ghost, err := auth.NewTokenService(testSecret, time.Hour).Issue("deleted-user")
	require.NoError(t, err)

	resp := tc.do(t, http.MethodGet, "/api/auth", ghost, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"User not found"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodPost, "/api/posts", ghost, map[string]string{"text": "hi"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	readBody(t, resp)
}

func TestPostsFlow(t *testing.T) {
	tc := newTestClient(t)
	alice, aliceID := register(t, tc, "Alice")
	bob, _ := register(t, tc, "Bob")

	first := createPost(t, tc, alice, "first post")
	assert.Equal(t, aliceID, first.User)
	assert.Equal(t, "Alice", first.Name)
	assert.Empty(t, first.Likes)
	second := createPost(t, tc, bob, "  second post  ")
	assert.Equal(t, "second post", second.Text)

	resp := tc.do(t, http.MethodGet, "/api/posts", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Post
	decodeJSON(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	resp = tc.do(t, http.MethodGet, "/api/posts/"+first.ID, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Post
	decodeJSON(t, resp, &got)
	assert.Equal(t, "first post", got.Text)

	resp = tc.do(t, http.MethodGet, "/api/posts/123", bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Post not found"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodDelete, "/api/posts/"+first.ID, bob, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"User not authorized"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodDelete, "/api/posts/"+first.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Post removed"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodDelete, "/api/posts/"+first.ID, alice, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)
}

func TestCreatePostValidation(t *testing.T) {
	tc := newTestClient(t)
	token, _ := register(t, tc, "Ann")

	resp := tc.do(t, http.MethodPost, "/api/posts", token, map[string]string{"text": "   "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"errors":[{"param":"text","msg":"Text is required"}]}`, readBody(t, resp))
}

func TestLikeFlow(t *testing.T) {
	tc := newTestClient(t)
	alice, aliceID := register(t, tc, "Alice")
	bob, bobID := register(t, tc, "Bob")
	post := createPost(t, tc, alice, "like me")

	resp := tc.do(t, http.MethodPut, "/api/posts/like/"+post.ID, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var likes []model.Like
	decodeJSON(t, resp, &likes)
	assert.Equal(t, []model.Like{{User: bobID}}, likes)

	resp = tc.do(t, http.MethodPut, "/api/posts/like/"+post.ID, bob, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Post already liked")

	resp = tc.do(t, http.MethodPut, "/api/posts/like/"+post.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &likes)
	assert.Equal(t, []model.Like{{User: aliceID}, {User: bobID}}, likes)

	resp = tc.do(t, http.MethodPut, "/api/posts/unlike/"+post.ID, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &likes)
	assert.Equal(t, []model.Like{{User: aliceID}}, likes)

	resp = tc.do(t, http.MethodPut, "/api/posts/unlike/"+post.ID, bob, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Post has not yet been liked"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodPut, "/api/posts/like/missing", bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Post not found"}`, readBody(t, resp))
}

func TestCommentFlow(t *testing.T) {
	tc := newTestClient(t)
	alice, _ := register(t, tc, "Alice")
	bob, bobID := register(t, tc, "Bob")
	post := createPost(t, tc, alice, "discuss")

	resp := tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, bob, map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Text is required")

	resp = tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, bob, map[string]string{"text": "one"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Post
	decodeJSON(t, resp, &updated)
	require.Len(t, updated.Comments, 1)
	first := updated.Comments[0]
	assert.Equal(t, bobID, first.User)
	assert.Equal(t, "Bob", first.Name)

	resp = tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, bob, map[string]string{"text": "two"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &updated)
	require.Len(t, updated.Comments, 2)
	second := updated.Comments[0]
	assert.Equal(t, "two", second.Text)

	resp = tc.do(t, http.MethodDelete, "/api/posts/comment/"+post.ID+"/"+first.ID, alice, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"User not authorized"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodDelete, "/api/posts/comment/"+post.ID+"/nope", bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Comment does not exist"}`, readBody(t, resp))

	resp = tc.do(t, http.MethodDelete, "/api/posts/comment/missing/"+first.ID, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Post not found"}`, readBody(t, resp))

	// Both comments are Bob's; only the addressed one goes.
	resp = tc.do(t, http.MethodDelete, "/api/posts/comment/"+post.ID+"/"+first.ID, bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []model.Comment
	decodeJSON(t, resp, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, second.ID, comments[0].ID)

	resp = tc.do(t, http.MethodPost, "/api/posts/comment/missing", bob, map[string]string{"text": "hi"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.LoginPerMinute = 2
	tc := newTestClientWithConfig(t, cfg)

	for i := 0; i < 2; i++ {
		resp := tc.do(t, http.MethodPost, "/api/auth", "", map[string]string{"email": "a@b.com", "password": "x"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		readBody(t, resp)
	}
	resp := tc.do(t, http.MethodPost, "/api/auth", "", map[string]string{"email": "a@b.com", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	var rl rateLimitResponse
	decodeJSON(t, resp, &rl)
	assert.Equal(t, "rate limit exceeded", rl.Msg)
	assert.Positive(t, rl.RetryAfter)
}

func TestPostRateLimitIsPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.PostPerMinute = 1
	tc := newTestClientWithConfig(t, cfg)
	alice, _ := register(t, tc, "Alice")
	bob, _ := register(t, tc, "Bob")

	createPost(t, tc, alice, "one")
	resp := tc.do(t, http.MethodPost, "/api/posts", alice, map[string]string{"text": "two"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	readBody(t, resp)

	createPost(t, tc, bob, "bob is fine")
}

func TestRejectedWritesDoNotSpendRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.PostPerMinute = 1
	cfg.RateLimits.CommentPerMinute = 1
	tc := newTestClientWithConfig(t, cfg)
	token, _ := register(t, tc, "Ann")

	resp := tc.do(t, http.MethodPost, "/api/posts", token, map[string]string{"text": "  "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	readBody(t, resp)
	post := createPost(t, tc, token, "counted")

	resp = tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, token, map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	readBody(t, resp)
	resp = tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, token, map[string]string{"text": "counted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	readBody(t, resp)

	resp = tc.do(t, http.MethodPost, "/api/posts/comment/"+post.ID, token, map[string]string{"text": "over"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	readBody(t, resp)
}

func TestOpenAPIJSON(t *testing.T) {
	tc := newTestClient(t)
	resp := tc.do(t, http.MethodGet, "/api/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	decodeJSON(t, resp, &doc)
	assert.Equal(t, "2.0", doc["swagger"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/posts/like/{id}")
}

func TestUnknownRouteAndRequestID(t *testing.T) {
	tc := newTestClient(t)

	resp := tc.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	readBody(t, resp)

	resp = tc.do(t, http.MethodPatch, "/api/posts", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)
}

func TestInternalErrorsStayServerSide(t *testing.T) {
	tc := newTestClient(t)
	token, _ := register(t, tc, "Ann")
	require.NoError(t, tc.store.Close())

	resp := tc.do(t, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"msg":"Server error"}`, readBody(t, resp))
	assert.Contains(t, tc.logs.String(), "request failed")
	assert.Contains(t, tc.logs.String(), "list posts")
}
