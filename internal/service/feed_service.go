package service

import (
	"context"
	"errors"

	"gastbook/config"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
)

// Feed scopes
const (
	ScopeFriends = "friends"
	ScopePublic  = "public"
	ScopeProfile = "profile"
	ScopeGroup   = "group"
)

// Scope selects which posts a feed shows. ID is the user for profile and
// the group for group scope.
type Scope struct {
	Kind string
	ID   uint
}

type FeedService struct {
	posts   *repository.PostRepository
	users   *repository.UserRepository
	groups  *repository.GroupRepository
	friends *FriendshipService
	cfg     config.FeedConfig
}

func NewFeedService(posts *repository.PostRepository, users *repository.UserRepository, groups *repository.GroupRepository, friends *FriendshipService, cfg config.FeedConfig) *FeedService {
	return &FeedService{posts: posts, users: users, groups: groups, friends: friends, cfg: cfg}
}

// Assemble returns one page of the scope, newest first.
func (s *FeedService) Assemble(ctx context.Context, viewerID uint, scope Scope, cursor string, size int) (*Page[EnrichedPost], error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	size = pageSize(size, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	limit := size + 1

	var rows []*model.Post
	switch scope.Kind {
	case ScopeFriends, "":
		rows, err = s.friendsRows(ctx, viewerID, cur, limit)
	case ScopePublic:
		rows, err = s.publicRows(ctx, viewerID, cur, limit)
	case ScopeProfile:
		rows, err = s.profileRows(ctx, viewerID, scope.ID, cur, limit)
	case ScopeGroup:
		rows, err = s.groupRows(ctx, viewerID, scope.ID, cur, limit)
	default:
		return nil, apperrors.Validation("unknown feed scope")
	}
	if err != nil {
		return nil, err
	}

	rows, next := trimPage(rows, size, func(p *model.Post) repository.Cursor {
		return repository.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	items, err := s.Enrich(ctx, viewerID, rows)
	if err != nil {
		return nil, err
	}
	return &Page[EnrichedPost]{Items: items, NextCursor: next}, nil
}

func (s *FeedService) friendsRows(ctx context.Context, viewerID uint, cur *repository.Cursor, limit int) ([]*model.Post, error) {
	if viewerID == 0 {
		return s.posts.PublicFeed(ctx, nil, cur, limit)
	}
	friendIDs, err := s.friends.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.posts.FriendsFeed(ctx, viewerID, friendIDs, cur, limit)
}

func (s *FeedService) publicRows(ctx context.Context, viewerID uint, cur *repository.Cursor, limit int) ([]*model.Post, error) {
	if viewerID == 0 {
		return s.posts.PublicFeed(ctx, nil, cur, limit)
	}
	friendIDs, err := s.friends.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	exclude := append([]uint{viewerID}, friendIDs...)
	return s.posts.PublicFeed(ctx, exclude, cur, limit)
}

func (s *FeedService) profileRows(ctx context.Context, viewerID, authorID uint, cur *repository.Cursor, limit int) ([]*model.Post, error) {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}

	state := StateNone
	if viewerID != 0 && viewerID != authorID {
		st, err := s.friends.Resolve(ctx, viewerID, authorID)
		if err != nil {
			return nil, err
		}
		state = st
	}

	visibilities := []string{model.VisibilityPublic}
	switch {
	case viewerID != 0 && viewerID == authorID:
		visibilities = []string{model.VisibilityPublic, model.VisibilityFriends, model.VisibilityPrivate}
	case state == StateAccepted:
		visibilities = []string{model.VisibilityPublic, model.VisibilityFriends}
	}

	rows, err := s.posts.ByAuthor(ctx, authorID, visibilities, cur, limit)
	if err != nil {
		return nil, err
	}

	// the query already narrowed visibility; the rule table re-checks each row
	kept := rows[:0]
	for _, p := range rows {
		if Allowed(viewerID, p, state) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (s *FeedService) groupRows(ctx context.Context, viewerID, groupID uint, cur *repository.Cursor, limit int) ([]*model.Post, error) {
	member, err := s.groupAccess(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	return s.posts.ByGroup(ctx, groupID, !member, cur, limit)
}

// groupAccess reports membership; non-members of a private group are refused.
func (s *FeedService) groupAccess(ctx context.Context, viewerID, groupID uint) (bool, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperrors.NotFound("group not found")
		}
		return false, err
	}

	member := false
	if viewerID != 0 {
		m, err := s.groups.GetMembership(ctx, groupID, viewerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		member = m != nil && m.Status == model.MembershipAccepted
	}

	if !member && !g.IsPublic {
		return false, apperrors.Forbidden("this group is private")
	}
	return member, nil
}

// Enrich attaches author, counts, viewer like and attachments with one query per kind.
func (s *FeedService) Enrich(ctx context.Context, viewerID uint, posts []*model.Post) ([]EnrichedPost, error) {
	out := make([]EnrichedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	likes, err := s.posts.LikeCounts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := s.posts.CommentCounts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	liked, err := s.posts.LikedBy(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}
	attachments, err := s.posts.Attachments(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		att := attachments[p.ID]
		if att == nil {
			att = []model.PostAttachment{}
		}
		out = append(out, EnrichedPost{
			ID:            p.ID,
			AuthorID:      p.AuthorID,
			Content:       p.Content,
			Visibility:    p.Visibility,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
			Author:        AuthorOf(authors[p.AuthorID]),
			LikeCount:     likes[p.ID],
			CommentCount:  comments[p.ID],
			LikedByViewer: liked[p.ID],
			Attachments:   att,
		})
	}
	return out, nil
}
