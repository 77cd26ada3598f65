package service

import (
	"context"
	"errors"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/sanitize"
)

type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// GroupView group with its accepted member count and the viewer's membership.
type GroupView struct {
	*model.Group
	MemberCount      int64  `json:"member_count"`
	MembershipStatus string `json:"membership_status,omitempty"`
	Role             string `json:"role,omitempty"`
}

// MemberView membership row with the member's profile.
type MemberView struct {
	User     *Author `json:"user"`
	Role     string  `json:"role"`
	Status   string  `json:"status"`
	JoinedAt string  `json:"joined_at"`
}

type GroupService struct {
	groups *repository.GroupRepository
	users  *repository.UserRepository
	bus    event.Publisher
}

func NewGroupService(groups *repository.GroupRepository, users *repository.UserRepository, bus event.Publisher) *GroupService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &GroupService{groups: groups, users: users, bus: bus}
}

// Create writes the group with the owner membership in one transaction.
func (s *GroupService) Create(ctx context.Context, ownerID uint, in CreateGroupInput) (*GroupView, error) {
	name := sanitize.Text(in.Name, sanitize.MaxNameLength)
	if name == "" {
		return nil, apperrors.Validation("group name is required")
	}
	g := &model.Group{
		OwnerID:     ownerID,
		Name:        name,
		Description: sanitize.Text(in.Description, sanitize.MaxPostLength),
		IsPublic:    in.IsPublic,
	}
	if err := s.groups.CreateWithOwner(ctx, g); err != nil {
		return nil, err
	}
	return &GroupView{
		Group:            g,
		MemberCount:      1,
		MembershipStatus: model.MembershipAccepted,
		Role:             model.GroupRoleOwner,
	}, nil
}

// List public groups plus the viewer's own, newest first.
func (s *GroupService) List(ctx context.Context, viewerID uint) ([]GroupView, error) {
	groups, err := s.groups.ListVisible(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, groups)
}

func (s *GroupService) views(ctx context.Context, groups []*model.Group) ([]GroupView, error) {
	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	counts, err := s.groups.MemberCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupView{Group: g, MemberCount: counts[g.ID]})
	}
	return out, nil
}

// Get a private group is visible to its members only.
func (s *GroupService) Get(ctx context.Context, viewerID, groupID uint) (*GroupView, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	m, err := s.membership(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !g.IsPublic && (m == nil || m.Status != model.MembershipAccepted) {
		return nil, apperrors.Forbidden("this group is private")
	}

	counts, err := s.groups.MemberCounts(ctx, []uint{groupID})
	if err != nil {
		return nil, err
	}
	view := &GroupView{Group: g, MemberCount: counts[groupID]}
	if m != nil {
		view.MembershipStatus = m.Status
		view.Role = m.Role
	}
	return view, nil
}

func (s *GroupService) load(ctx context.Context, groupID uint) (*model.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, err
	}
	return g, nil
}

// membership returns nil when userID has no row.
func (s *GroupService) membership(ctx context.Context, groupID, userID uint) (*model.GroupMember, error) {
	if userID == 0 {
		return nil, nil
	}
	m, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// Join accepts immediately for public groups and files a request for private ones.
func (s *GroupService) Join(ctx context.Context, userID, groupID uint) (*model.GroupMember, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}

	status := model.MembershipPending
	if g.IsPublic {
		status = model.MembershipAccepted
	}
	m := &model.GroupMember{GroupID: groupID, UserID: userID, Role: model.GroupRoleMember, Status: status}
	if err := s.groups.AddMember(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, err := s.membership(ctx, groupID, userID)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.Status == model.MembershipPending {
				return existing, nil
			}
			return nil, apperrors.Conflict("already a member of this group")
		}
		return nil, err
	}

	if status == model.MembershipPending {
		s.bus.Publish(ctx, event.Event{
			Kind:        event.GroupJoinRequested,
			ActorID:     userID,
			RecipientID: g.OwnerID,
			SubjectID:   groupID,
			Message:     g.Name,
		})
	}
	return m, nil
}

// requireModerator owners and admins only.
func (s *GroupService) requireModerator(ctx context.Context, groupID, userID uint) (*model.Group, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	m, err := s.membership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.CanModerate() {
		return nil, apperrors.Forbidden("only group owners and admins can do this")
	}
	return g, nil
}

func (s *GroupService) Approve(ctx context.Context, moderatorID, groupID, userID uint) error {
	g, err := s.requireModerator(ctx, groupID, moderatorID)
	if err != nil {
		return err
	}
	ok, err := s.groups.Approve(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("join request not found")
	}

	s.bus.Publish(ctx, event.Event{
		Kind:        event.GroupJoinAccepted,
		ActorID:     moderatorID,
		RecipientID: userID,
		SubjectID:   groupID,
		Message:     g.Name,
	})
	return nil
}

func (s *GroupService) Reject(ctx context.Context, moderatorID, groupID, userID uint) error {
	if _, err := s.requireModerator(ctx, groupID, moderatorID); err != nil {
		return err
	}
	ok, err := s.groups.RejectRequest(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("join request not found")
	}
	return nil
}

// Leave also withdraws a pending request. The owner cannot leave.
func (s *GroupService) Leave(ctx context.Context, userID, groupID uint) error {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return apperrors.Validation("the owner cannot leave the group")
	}
	ok, err := s.groups.Leave(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("membership not found")
	}
	return nil
}

// Members accepted members; private groups are members-only.
func (s *GroupService) Members(ctx context.Context, viewerID, groupID uint) ([]MemberView, error) {
	if _, err := s.Get(ctx, viewerID, groupID); err != nil {
		return nil, err
	}
	return s.memberViews(ctx, groupID, model.MembershipAccepted)
}

// Requests pending join requests, moderators only.
func (s *GroupService) Requests(ctx context.Context, moderatorID, groupID uint) ([]MemberView, error) {
	if _, err := s.requireModerator(ctx, groupID, moderatorID); err != nil {
		return nil, err
	}
	return s.memberViews(ctx, groupID, model.MembershipPending)
}

func (s *GroupService) memberViews(ctx context.Context, groupID uint, status string) ([]MemberView, error) {
	members, err := s.groups.ListMembers(ctx, groupID, status)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		out = append(out, MemberView{
			User:     AuthorOf(u),
			Role:     m.Role,
			Status:   m.Status,
			JoinedAt: m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}
