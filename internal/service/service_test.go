package service

import (
	"context"
	"sync"
	"testing"

	"gastbook/config"
	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	"gastbook/pkg/db/dbtest"
	"gastbook/pkg/websocket"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type fakePusher struct {
	mu     sync.Mutex
	frames map[uint][]websocket.Frame
}

func newFakePusher() *fakePusher {
	return &fakePusher{frames: make(map[uint][]websocket.Frame)}
}

func (p *fakePusher) Push(userID uint, frame websocket.Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames[userID] = append(p.frames[userID], frame)
	return true
}

func (p *fakePusher) PushOrBuffer(_ context.Context, userID uint, frame websocket.Frame) bool {
	return p.Push(userID, frame)
}

func (p *fakePusher) types(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, f := range p.frames[userID] {
		out = append(out, f.Type)
	}
	return out
}

type fakeQueue struct {
	jobs []DispatchJob
}

func (q *fakeQueue) Enqueue(job DispatchJob) bool {
	q.jobs = append(q.jobs, job)
	return true
}

// env wires every service against one in-memory database.
type env struct {
	db     *gorm.DB
	bus    *event.Bus
	pusher *fakePusher
	queue  *fakeQueue

	users         *repository.UserRepository
	friendRepo    *repository.FriendshipRepository
	postRepo      *repository.PostRepository
	groupRepo     *repository.GroupRepository
	notifRepo     *repository.NotificationRepository
	messageRepo   *repository.MessageRepository
	friends       *FriendshipService
	filter        *VisibilityFilter
	feed          *FeedService
	posts         *PostService
	groups        *GroupService
	fanout        *Fanout
	notifications *NotificationService
	messages      *MessageService
	settings      *SettingsService
	search        *SearchService
	sidebar       *SidebarService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{
		db:          db,
		bus:         event.NewBus(),
		pusher:      newFakePusher(),
		queue:       &fakeQueue{},
		users:       repository.NewUserRepository(db),
		friendRepo:  repository.NewFriendshipRepository(db),
		postRepo:    repository.NewPostRepository(db),
		groupRepo:   repository.NewGroupRepository(db),
		notifRepo:   repository.NewNotificationRepository(db),
		messageRepo: repository.NewMessageRepository(db),
	}
	engagement := repository.NewEngagementRepository(db)
	feedCfg := config.FeedConfig{DefaultPageSize: 10, MaxPageSize: 50}

	e.friends = NewFriendshipService(e.friendRepo, e.users, e.bus, 0)
	e.filter = NewVisibilityFilter(e.friends)
	e.feed = NewFeedService(e.postRepo, e.users, e.groupRepo, e.friends, feedCfg)
	e.posts = NewPostService(e.postRepo, engagement, e.groupRepo, e.users, e.filter, e.feed, e.bus)
	e.groups = NewGroupService(e.groupRepo, e.users, e.bus)
	e.fanout = NewFanout(e.notifRepo, e.users, e.pusher, e.queue)
	e.notifications = NewNotificationService(e.notifRepo, e.users, 20, 50)
	e.messages = NewMessageService(e.messageRepo, e.users, e.friends, e.pusher, e.bus)
	e.settings = NewSettingsService(e.users, e.notifRepo)
	e.search = NewSearchService(e.users, e.groupRepo, e.groups, e.postRepo, e.friends, e.feed)
	e.sidebar = NewSidebarService(e.notifications, e.messages, e.friendRepo)

	e.bus.Subscribe("notifications", e.fanout, FanoutKinds()...)
	return e
}

func (e *env) user(t *testing.T, name string) uint {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "x", DisplayName: name}
	require.NoError(t, e.users.Create(ctx, u))
	return u.ID
}

func (e *env) befriend(t *testing.T, a, b uint) {
	t.Helper()
	edge, created, err := e.friends.SendRequest(ctx, a, b)
	require.NoError(t, err)
	require.True(t, created)
	_, err = e.friends.Accept(ctx, b, edge.ID)
	require.NoError(t, err)
}

func (e *env) post(t *testing.T, authorID uint, visibility, content string) *EnrichedPost {
	t.Helper()
	p, err := e.posts.Create(ctx, authorID, CreatePostInput{Content: content, Visibility: visibility})
	require.NoError(t, err)
	return p
}

func (e *env) notificationTypes(t *testing.T, userID uint) []string {
	t.Helper()
	rows, err := e.notifRepo.List(ctx, userID, nil, 100)
	require.NoError(t, err)
	var out []string
	for _, n := range rows {
		out = append(out, n.Type)
	}
	return out
}
