package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gastbook/config"
	"gastbook/internal/event"
	"gastbook/internal/repository"
	"gastbook/internal/service"
	"gastbook/pkg/db/dbtest"
	"gastbook/pkg/jwt"
	"gastbook/pkg/storage"
	"gastbook/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	bus := event.NewBus()
	manager := websocket.NewManager()

	users := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	feedCfg := config.FeedConfig{DefaultPageSize: 10, MaxPageSize: 50}

	jwtSvc := jwt.NewJWTService(config.JWTConfig{Secret: "handler-test", Issuer: "gastbook", ExpireTime: time.Hour})
	jwtSvc.SetAccountCheck(func(ctx context.Context, userID uint) error {
		_, err := users.GetByID(ctx, userID)
		return err
	})
	friends := service.NewFriendshipService(friendRepo, users, bus, 0)
	filter := service.NewVisibilityFilter(friends)
	feed := service.NewFeedService(postRepo, users, groupRepo, friends, feedCfg)
	posts := service.NewPostService(postRepo, repository.NewEngagementRepository(db), groupRepo, users, filter, feed, bus)
	groups := service.NewGroupService(groupRepo, users, bus)
	notifications := service.NewNotificationService(notifRepo, users, 20, 50)
	messages := service.NewMessageService(repository.NewMessageRepository(db), users, friends, manager, bus)

	store, err := storage.NewLocalStore(config.StorageConfig{Dir: t.TempDir(), BaseURL: "/uploads", MaxUploadMB: 1})
	require.NoError(t, err)

	bus.Subscribe("notifications", service.NewFanout(notifRepo, users, manager, nil), service.FanoutKinds()...)

	h := &Handlers{
		Users:         NewUserHandler(service.NewUserService(users, friends, jwtSvc, nil), nil),
		Friends:       NewFriendHandler(friends),
		Feed:          NewFeedHandler(feed),
		Posts:         NewPostHandler(posts),
		Groups:        NewGroupHandler(groups),
		Messages:      NewMessageHandler(messages),
		Notifications: NewNotificationHandler(notifications, service.NewSidebarService(notifications, messages, friendRepo)),
		Settings:      NewSettingsHandler(service.NewSettingsService(users, notifRepo)),
		Search:        NewSearchHandler(service.NewSearchService(users, groupRepo, groups, postRepo, friends, feed)),
		Albums:        NewAlbumHandler(service.NewAlbumService(repository.NewAlbumRepository(db), users, store), service.NewUploadService(store, nil)),
	}

	r := gin.New()
	RegisterRoutes(r, h, jwtSvc, nil)
	return &testServer{router: r}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// register returns the new user's id and token.
func (s *testServer) register(t *testing.T, name string) (uint, string) {
	t.Helper()
	env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": "secret1",
	})
	require.Equal(t, 0, env.Code, env.Message)

	var auth struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.User.ID, auth.AccessToken
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "ana")

	env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username_or_email": "ana@example.com", "password": "secret1"})
	assert.Equal(t, 0, env.Code)

	env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username_or_email": "ana", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	env = s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, 0, env.Code)
	me := decode[map[string]interface{}](t, env)
	assert.Equal(t, float64(id), me["id"])
	assert.Equal(t, "ana@example.com", me["email"])

	env = s.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	env = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "ana", "email": "x@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, env.Code)
	env = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, env.Code)
}

func TestProfileHidesEmailFromOthers(t *testing.T) {
	s := newTestServer(t)
	anaID, anaToken := s.register(t, "ana")
	_, benToken := s.register(t, "ben")

	path := fmt.Sprintf("/api/v1/users/%d", anaID)
	own := decode[map[string]interface{}](t, s.do(t, http.MethodGet, path, anaToken, nil))
	assert.Equal(t, true, own["is_self"])
	assert.Equal(t, "ana@example.com", own["user"].(map[string]interface{})["email"])

	other := decode[map[string]interface{}](t, s.do(t, http.MethodGet, path, benToken, nil))
	assert.Equal(t, "none", other["relationship"])
	assert.NotContains(t, other["user"].(map[string]interface{}), "email")

	anon := s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, 0, anon.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/users/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/users/999", "", nil).Code)
}

func TestFriendsPostVisibilityOverHTTP(t *testing.T) {
	s := newTestServer(t)
	anaID, anaToken := s.register(t, "ana")
	benID, benToken := s.register(t, "ben")

	env := s.do(t, http.MethodPost, "/api/v1/posts", anaToken, gin.H{"content": "friends only", "visibility": "friends"})
	require.Equal(t, 0, env.Code, env.Message)
	post := decode[service.EnrichedPost](t, env)
	postPath := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, postPath, benToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, postPath, "", nil).Code)

	env = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/request", anaID), benToken, nil)
	require.Equal(t, 0, env.Code, env.Message)

	reqs := decode[[]service.FriendRequest](t, s.do(t, http.MethodGet, "/api/v1/friends/requests", anaToken, nil))
	require.Len(t, reqs, 1)
	assert.Equal(t, benID, reqs[0].Other.ID)

	env = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/friends/requests/%d/accept", reqs[0].Edge.ID), anaToken, nil)
	require.Equal(t, 0, env.Code, env.Message)

	assert.Equal(t, 0, s.do(t, http.MethodGet, postPath, benToken, nil).Code)

	feed := decode[service.Page[service.EnrichedPost]](t, s.do(t, http.MethodGet, "/api/v1/feed?scope=friends", benToken, nil))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "friends only", feed.Items[0].Content)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/feed?scope=everything", benToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/feed?cursor=bad!", benToken, nil).Code)
}

func TestLikeNotifiesAuthor(t *testing.T) {
	s := newTestServer(t)
	_, anaToken := s.register(t, "ana")
	_, benToken := s.register(t, "ben")

	post := decode[service.EnrichedPost](t, s.do(t, http.MethodPost, "/api/v1/posts", anaToken, gin.H{"content": "hello world"}))
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", post.ID)

	state := decode[service.LikeState](t, s.do(t, http.MethodPost, likePath, benToken, nil))
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)
	state = decode[service.LikeState](t, s.do(t, http.MethodPost, likePath, benToken, nil))
	assert.Equal(t, int64(1), state.LikeCount)

	counts := decode[service.SidebarCounts](t, s.do(t, http.MethodGet, "/api/v1/sidebar/counts", anaToken, nil))
	assert.Equal(t, int64(1), counts.Notifications)

	page := decode[service.Page[service.NotificationView]](t, s.do(t, http.MethodGet, "/api/v1/notifications", anaToken, nil))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "like", page.Items[0].Type)

	env := s.do(t, http.MethodPut, "/api/v1/notifications/read-all", anaToken, nil)
	require.Equal(t, 0, env.Code)
	counts = decode[service.SidebarCounts](t, s.do(t, http.MethodGet, "/api/v1/sidebar/counts", anaToken, nil))
	assert.Equal(t, int64(0), counts.Notifications)
}

func TestMessagesOverHTTP(t *testing.T) {
	s := newTestServer(t)
	anaID, anaToken := s.register(t, "ana")
	benID, benToken := s.register(t, "ben")

	env := s.do(t, http.MethodPost, "/api/v1/messages", anaToken, gin.H{"receiver_id": benID, "content": "hi"})
	require.Equal(t, 0, env.Code, env.Message)

	unread := decode[map[string]int64](t, s.do(t, http.MethodGet, "/api/v1/messages/unread/count", benToken, nil))
	assert.Equal(t, int64(1), unread["unread_count"])

	history := decode[service.HistoryPage](t, s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", anaID), benToken, nil))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hi", history.Messages[0].Content)

	env = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/conversations/%d/read", anaID), benToken, nil)
	require.Equal(t, 0, env.Code)
	unread = decode[map[string]int64](t, s.do(t, http.MethodGet, "/api/v1/messages/unread/count", benToken, nil))
	assert.Equal(t, int64(0), unread["unread_count"])
}

func TestGroupsAndSearch(t *testing.T) {
	s := newTestServer(t)
	_, anaToken := s.register(t, "ana")
	_, benToken := s.register(t, "ben")

	group := decode[service.GroupView](t, s.do(t, http.MethodPost, "/api/v1/groups", anaToken, gin.H{"name": "Night Owls", "is_public": false}))
	groupPath := fmt.Sprintf("/api/v1/groups/%d", group.ID)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, groupPath, benToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, groupPath+"/posts", benToken, nil).Code)

	env := s.do(t, http.MethodPost, groupPath+"/join", benToken, nil)
	require.Equal(t, 0, env.Code, env.Message)

	result := decode[service.SearchResult](t, s.do(t, http.MethodGet, "/api/v1/search?q=owls", benToken, nil))
	assert.Empty(t, result.Groups)
	result = decode[service.SearchResult](t, s.do(t, http.MethodGet, "/api/v1/search?q=owls&type=groups", anaToken, nil))
	assert.Len(t, result.Groups, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/search?q=", "", nil).Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ana")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "cat.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, 0, env.Code, env.Message)
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, env)["url"], "/uploads/"))
}

func TestDeletedAccountTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ana")

	env := s.do(t, http.MethodDelete, "/api/v1/settings/account", token, gin.H{"password": "secret1"})
	require.Equal(t, 0, env.Code, env.Message)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/users/me", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{"content": "still here"}).Code)

	// optional-auth routes treat the stale token as anonymous
	env = s.do(t, http.MethodGet, "/api/v1/feed?scope=public", token, nil)
	assert.Equal(t, 0, env.Code)
}
