package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gastbook/pkg/push"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type recordingPush struct {
	mu     sync.Mutex
	titles []string
	tokens []string
}

func (p *recordingPush) SendPush(_ context.Context, devices []push.Device, title, _ string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles = append(p.titles, title+"|"+data["link"])
	for _, d := range devices {
		p.tokens = append(p.tokens, d.Token)
	}
	return nil
}

func TestDispatcher_Delivers(t *testing.T) {
	m := &recordingMailer{}
	p := &recordingPush{}
	d := NewDispatcher(m, p, 2, 10)
	d.Start()

	require.True(t, d.Enqueue(DispatchJob{Type: "like", Email: "ana@example.com", Subject: "ben liked your post", Message: "ben liked your post", Link: "/posts/1"}))
	require.True(t, d.Enqueue(DispatchJob{Type: "comment", Subject: "ben commented", Message: "ben commented", Link: "/posts/2", Devices: []push.Device{{Token: "t1", Platform: "ios"}}}))
	d.Stop()
	d.Stop()

	require.Len(t, m.sent, 1)
	assert.Equal(t, "ana@example.com", m.sent[0].to)
	assert.Contains(t, m.sent[0].body, "/posts/1")
	assert.Equal(t, []string{"ben commented|/posts/2"}, p.titles)
	assert.Equal(t, []string{"t1"}, p.tokens)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(&recordingMailer{}, nil, 1, 1)

	assert.True(t, d.Enqueue(DispatchJob{Type: "like", Email: "a@example.com"}))
	assert.False(t, d.Enqueue(DispatchJob{Type: "like", Email: "b@example.com"}))

	d.Start()
	d.Stop()
}

func TestDispatcher_FailedEmailStillPushes(t *testing.T) {
	m := &recordingMailer{err: errors.New("smtp down")}
	p := &recordingPush{}
	d := NewDispatcher(m, p, 1, 4)
	d.Start()

	d.Enqueue(DispatchJob{Type: "message", Email: "a@example.com", Subject: "hi", Devices: []push.Device{{Token: "t2"}}})
	d.Stop()

	assert.Empty(t, m.sent)
	assert.Equal(t, []string{"t2"}, p.tokens)
}
