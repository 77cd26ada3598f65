package service

import (
	"testing"

	"gastbook/internal/model"
	apperrors "gastbook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_CreateMaterializesOwner(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")

	g, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "  Hikers <i>club</i> ", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "Hikers club", g.Name)

	m, err := e.groupRepo.GetMembership(ctx, g.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, model.GroupRoleOwner, m.Role)
	assert.Equal(t, model.MembershipAccepted, m.Status)

	view, err := e.groups.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.MemberCount)
	assert.Equal(t, model.GroupRoleOwner, view.Role)

	_, err = e.groups.Create(ctx, owner, CreateGroupInput{Name: " "})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

func TestGroup_PrivateJoinFlow(t *testing.T) {
	e := newEnv(t)
	owner, joiner, other := e.user(t, "owner"), e.user(t, "joiner"), e.user(t, "other")

	g, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "closed"})
	require.NoError(t, err)

	_, err = e.groups.Get(ctx, joiner, g.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))

	m, err := e.groups.Join(ctx, joiner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipPending, m.Status)
	assert.Equal(t, []string{model.NotificationGroupRequest}, e.notificationTypes(t, owner))

	// joining again returns the same pending request
	again, err := e.groups.Join(ctx, joiner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	_, err = e.groups.Requests(ctx, other, g.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))
	assert.True(t, apperrors.Is(e.groups.Approve(ctx, other, g.ID, joiner), apperrors.ErrCodeForbidden))

	requests, err := e.groups.Requests(ctx, owner, g.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "joiner", requests[0].User.Username)

	require.NoError(t, e.groups.Approve(ctx, owner, g.ID, joiner))
	assert.True(t, apperrors.Is(e.groups.Approve(ctx, owner, g.ID, joiner), apperrors.ErrCodeNotFound))
	assert.Equal(t, []string{model.NotificationGroupJoinAccepted}, e.notificationTypes(t, joiner))

	members, err := e.groups.Members(ctx, joiner, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = e.groups.Join(ctx, joiner, g.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAlreadyExists))
}

func TestGroup_RejectAndLeave(t *testing.T) {
	e := newEnv(t)
	owner, a, b := e.user(t, "owner"), e.user(t, "ana"), e.user(t, "ben")

	closed, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "closed"})
	require.NoError(t, err)
	open, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "open", IsPublic: true})
	require.NoError(t, err)

	_, err = e.groups.Join(ctx, a, closed.ID)
	require.NoError(t, err)
	require.NoError(t, e.groups.Reject(ctx, owner, closed.ID, a))
	assert.True(t, apperrors.Is(e.groups.Reject(ctx, owner, closed.ID, a), apperrors.ErrCodeNotFound))

	m, err := e.groups.Join(ctx, b, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipAccepted, m.Status)
	assert.Empty(t, e.notificationTypes(t, owner), "public joins notify nobody")

	require.NoError(t, e.groups.Leave(ctx, b, open.ID))
	assert.True(t, apperrors.Is(e.groups.Leave(ctx, b, open.ID), apperrors.ErrCodeNotFound))
	assert.True(t, apperrors.Is(e.groups.Leave(ctx, owner, open.ID), apperrors.ErrCodeValidation))
}

func TestGroup_ListShowsPublicAndOwn(t *testing.T) {
	e := newEnv(t)
	owner, viewer := e.user(t, "owner"), e.user(t, "viewer")

	_, err := e.groups.Create(ctx, owner, CreateGroupInput{Name: "open", IsPublic: true})
	require.NoError(t, err)
	_, err = e.groups.Create(ctx, owner, CreateGroupInput{Name: "closed"})
	require.NoError(t, err)

	list, err := e.groups.List(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "open", list[0].Name)
	assert.Equal(t, int64(1), list[0].MemberCount)

	list, err = e.groups.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
