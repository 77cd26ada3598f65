package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/sanitize"
)

// MaxAttachments per post.
const MaxAttachments = 10

type AttachmentInput struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

type CreatePostInput struct {
	Content     string            `json:"content"`
	Visibility  string            `json:"visibility"`
	Attachments []AttachmentInput `json:"attachments"`
	GroupID     uint              `json:"group_id"`
}

// UpdatePostInput nil fields are left unchanged.
type UpdatePostInput struct {
	Content    *string `json:"content"`
	Visibility *string `json:"visibility"`
}

// LikeState is returned by like toggles.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type PostService struct {
	posts      *repository.PostRepository
	engagement *repository.EngagementRepository
	groups     *repository.GroupRepository
	users      *repository.UserRepository
	filter     *VisibilityFilter
	feed       *FeedService
	bus        event.Publisher
}

func NewPostService(
	posts *repository.PostRepository,
	engagement *repository.EngagementRepository,
	groups *repository.GroupRepository,
	users *repository.UserRepository,
	filter *VisibilityFilter,
	feed *FeedService,
	bus event.Publisher,
) *PostService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &PostService{
		posts:      posts,
		engagement: engagement,
		groups:     groups,
		users:      users,
		filter:     filter,
		feed:       feed,
		bus:        bus,
	}
}

func (s *PostService) Create(ctx context.Context, authorID uint, in CreatePostInput) (*EnrichedPost, error) {
	content := sanitize.Text(in.Content, sanitize.MaxPostLength)
	if content == "" && len(in.Attachments) == 0 {
		return nil, apperrors.Validation("post content cannot be empty")
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !model.ValidVisibility(visibility) {
		return nil, apperrors.Validation("visibility must be public, friends or private")
	}
	attachments, err := validateAttachments(in.Attachments)
	if err != nil {
		return nil, err
	}

	if err := s.requireAccount(ctx, authorID); err != nil {
		return nil, err
	}
	if in.GroupID != 0 {
		if err := s.requireMember(ctx, in.GroupID, authorID); err != nil {
			return nil, err
		}
	}

	post := &model.Post{AuthorID: authorID, Content: content, Visibility: visibility}
	if err := s.posts.Create(ctx, post, attachments, in.GroupID); err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, authorID, post)
}

// requireAccount rejects actors whose account no longer exists.
func (s *PostService) requireAccount(ctx context.Context, userID uint) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthorized("account no longer exists")
		}
		return err
	}
	return nil
}

func validateAttachments(in []AttachmentInput) ([]model.PostAttachment, error) {
	if len(in) > MaxAttachments {
		return nil, apperrors.Validation("too many attachments")
	}
	out := make([]model.PostAttachment, 0, len(in))
	for _, a := range in {
		kind := a.Kind
		if kind == "" {
			kind = model.AttachmentPhoto
		}
		if kind != model.AttachmentPhoto && kind != model.AttachmentURL {
			return nil, apperrors.Validation("attachment kind must be photo or url")
		}
		raw := strings.TrimSpace(a.URL)
		if raw == "" || len(raw) > 512 {
			return nil, apperrors.Validation("invalid attachment url")
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("invalid attachment url")
		}
		// uploads are served from a relative path; everything else must be http(s)
		if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
			return nil, apperrors.Validation("invalid attachment url")
		}
		out = append(out, model.PostAttachment{Kind: kind, URL: raw})
	}
	return out, nil
}

func (s *PostService) requireMember(ctx context.Context, groupID, userID uint) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("group not found")
		}
		return err
	}
	m, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if m == nil || m.Status != model.MembershipAccepted {
		return apperrors.Forbidden("only group members can post here")
	}
	return nil
}

// Get returns the post if the viewer may see it. Invisible posts are reported as missing.
func (s *PostService) Get(ctx context.Context, viewerID, postID uint) (*EnrichedPost, error) {
	post, err := s.visiblePost(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, viewerID, post)
}

// visiblePost loads a post and applies the visibility rules. Accepted members
// of a group the post is linked to may also see it.
func (s *PostService) visiblePost(ctx context.Context, viewerID, postID uint) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, err
	}
	if s.filter.IsVisible(ctx, viewerID, post) {
		return post, nil
	}
	if viewerID != 0 {
		links, err := s.posts.GroupIDsOf(ctx, []uint{post.ID})
		if err != nil {
			return nil, err
		}
		if groupID, ok := links[post.ID]; ok {
			m, err := s.groups.GetMembership(ctx, groupID, viewerID)
			if err == nil && m.Status == model.MembershipAccepted {
				return post, nil
			}
		}
	}
	return nil, apperrors.NotFound("post not found")
}

func (s *PostService) enrichOne(ctx context.Context, viewerID uint, post *model.Post) (*EnrichedPost, error) {
	items, err := s.feed.Enrich(ctx, viewerID, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *PostService) Update(ctx context.Context, userID, postID uint, in UpdatePostInput) (*EnrichedPost, error) {
	fields := make(map[string]interface{})
	if in.Content != nil {
		content := sanitize.Text(*in.Content, sanitize.MaxPostLength)
		if content == "" {
			return nil, apperrors.Validation("post content cannot be empty")
		}
		fields["content"] = content
	}
	if in.Visibility != nil {
		if !model.ValidVisibility(*in.Visibility) {
			return nil, apperrors.Validation("visibility must be public, friends or private")
		}
		fields["visibility"] = *in.Visibility
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("nothing to update")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperrors.Forbidden("you can only edit your own posts")
	}

	ok, err := s.posts.Update(ctx, postID, userID, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("post not found")
	}

	post, err = s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, err
	}
	return s.enrichOne(ctx, userID, post)
}

func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("post not found")
		}
		return err
	}
	if post.AuthorID != userID {
		return apperrors.Forbidden("you can only delete your own posts")
	}

	ok, err := s.posts.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// Like is idempotent; PostLiked is only published when a like row was created.
func (s *PostService) Like(ctx context.Context, userID, postID uint) (*LikeState, error) {
	if err := s.requireAccount(ctx, userID); err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	created, err := s.engagement.LikePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if created {
		s.bus.Publish(ctx, event.Event{
			Kind:        event.PostLiked,
			ActorID:     userID,
			RecipientID: post.AuthorID,
			SubjectID:   post.ID,
			PostID:      post.ID,
		})
	}
	return s.likeState(ctx, postID, true)
}

func (s *PostService) Unlike(ctx context.Context, userID, postID uint) (*LikeState, error) {
	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	if _, err := s.engagement.UnlikePost(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.likeState(ctx, postID, false)
}

func (s *PostService) likeState(ctx context.Context, postID uint, liked bool) (*LikeState, error) {
	counts, err := s.posts.LikeCounts(ctx, []uint{postID})
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: liked, LikeCount: counts[postID]}, nil
}

// Comments oldest first, gated by the parent post's visibility.
func (s *PostService) Comments(ctx context.Context, viewerID, postID uint) ([]CommentView, error) {
	if _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := s.engagement.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.commentViews(ctx, viewerID, comments)
}

func (s *PostService) commentViews(ctx context.Context, viewerID uint, comments []*model.Comment) ([]CommentView, error) {
	out := make([]CommentView, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(comments))
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	likes, err := s.engagement.CommentLikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.engagement.CommentsLikedBy(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		out = append(out, CommentView{
			ID:            c.ID,
			PostID:        c.PostID,
			Content:       c.Content,
			CreatedAt:     c.CreatedAt,
			Author:        AuthorOf(authors[c.AuthorID]),
			LikeCount:     likes[c.ID],
			LikedByViewer: liked[c.ID],
		})
	}
	return out, nil
}

func (s *PostService) AddComment(ctx context.Context, userID, postID uint, content string) (*CommentView, error) {
	content = sanitize.Text(content, sanitize.MaxCommentLength)
	if content == "" {
		return nil, apperrors.Validation("comment cannot be empty")
	}
	if err := s.requireAccount(ctx, userID); err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Content: content}
	if err := s.engagement.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, event.Event{
		Kind:        event.CommentAdded,
		ActorID:     userID,
		RecipientID: post.AuthorID,
		SubjectID:   comment.ID,
		PostID:      post.ID,
		Message:     content,
	})

	views, err := s.commentViews(ctx, userID, []*model.Comment{comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteComment is allowed for the comment author and the post author.
func (s *PostService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.engagement.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("comment not found")
		}
		return err
	}
	if comment.AuthorID != userID {
		post, err := s.posts.GetByID(ctx, comment.PostID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if post == nil || post.AuthorID != userID {
			return apperrors.Forbidden("you cannot delete this comment")
		}
	}

	ok, err := s.engagement.DeleteComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("comment not found")
	}
	return nil
}

func (s *PostService) LikeComment(ctx context.Context, userID, commentID uint) (*LikeState, error) {
	return s.toggleCommentLike(ctx, userID, commentID, true)
}

func (s *PostService) UnlikeComment(ctx context.Context, userID, commentID uint) (*LikeState, error) {
	return s.toggleCommentLike(ctx, userID, commentID, false)
}

func (s *PostService) toggleCommentLike(ctx context.Context, userID, commentID uint, like bool) (*LikeState, error) {
	comment, err := s.engagement.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("comment not found")
		}
		return nil, err
	}
	if _, err := s.visiblePost(ctx, userID, comment.PostID); err != nil {
		return nil, err
	}

	if like {
		if err := s.requireAccount(ctx, userID); err != nil {
			return nil, err
		}
		_, err = s.engagement.LikeComment(ctx, userID, commentID)
	} else {
		_, err = s.engagement.UnlikeComment(ctx, userID, commentID)
	}
	if err != nil {
		return nil, err
	}

	counts, err := s.engagement.CommentLikeCounts(ctx, []uint{commentID})
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: like, LikeCount: counts[commentID]}, nil
}
