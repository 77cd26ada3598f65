package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gastbook/internal/model"
	"gastbook/internal/repository"
	"gastbook/pkg/captcha"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/jwt"
	"gastbook/pkg/password"
	"gastbook/pkg/redis"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User statuses
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
)

// CaptchaChecker verifies a registration token.
type CaptchaChecker interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, *captcha.Result, error)
}

type RegisterInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

// Profile is someone's public page as seen by the viewer.
type Profile struct {
	User         *model.User `json:"user"`
	Relationship State       `json:"relationship"`
	IsSelf       bool        `json:"is_self"`
	FriendCount  int64       `json:"friend_count"`
	Online       bool        `json:"online"`
}

type UserService struct {
	repo       *repository.UserRepository
	friends    *FriendshipService
	jwtService *jwt.JWTService
	captcha    CaptchaChecker
}

func NewUserService(repo *repository.UserRepository, friends *FriendshipService, jwtService *jwt.JWTService, captcha CaptchaChecker) *UserService {
	return &UserService{repo: repo, friends: friends, jwtService: jwtService, captcha: captcha}
}

// Register checks the captcha before touching the database and signs a token.
func (s *UserService) Register(ctx context.Context, in RegisterInput, remoteIP string) (*model.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !usernamePattern.MatchString(username) {
		return nil, "", apperrors.Validation("username must be 3-32 letters, digits, dots or underscores")
	}
	if !emailPattern.MatchString(email) {
		return nil, "", apperrors.Validation("invalid email address")
	}
	if err := password.Validate(in.Password); err != nil {
		return nil, "", apperrors.Validation(err.Error())
	}

	if s.captcha != nil {
		ok, _, err := s.captcha.Verify(ctx, in.CaptchaToken, remoteIP)
		if errors.Is(err, captcha.ErrMissingToken) {
			return nil, "", apperrors.Validation("captcha token is required")
		}
		if err != nil {
			return nil, "", err
		}
		if !ok {
			return nil, "", apperrors.Forbidden("captcha verification failed")
		}
	}

	usernameTaken, emailTaken, err := s.repo.Taken(ctx, username, email)
	if err != nil {
		return nil, "", err
	}
	if usernameTaken {
		return nil, "", apperrors.Conflict("username is already taken")
	}
	if emailTaken {
		return nil, "", apperrors.Conflict("email is already registered")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  username,
		Status:       StatusOffline,
		LastSeen:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperrors.Conflict("username or email is already registered")
		}
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login accepts a username or an email. Unknown users and wrong passwords
// get the same answer.
func (s *UserService) Login(ctx context.Context, identifier, plainPassword string) (*model.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plainPassword == "" {
		return nil, "", apperrors.Validation("identifier and password are required")
	}

	u, err := s.repo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperrors.Unauthorized("invalid credentials")
		}
		return nil, "", err
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.jwtService.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) Me(ctx context.Context, userID uint) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

// Profile includes the viewer's relationship and the friend count.
func (s *UserService) Profile(ctx context.Context, viewerID, userID uint) (*Profile, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: u, Relationship: StateNone, IsSelf: viewerID != 0 && viewerID == userID}
	if viewerID != 0 && !p.IsSelf {
		if p.Relationship, err = s.friends.Resolve(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	if p.FriendCount, err = s.friends.CountFriends(ctx, userID); err != nil {
		return nil, err
	}
	if online, err := redis.IsOnline(ctx, userID); err == nil {
		p.Online = online
	} else {
		p.Online = u.Status == StatusOnline
	}
	return p, nil
}

// Relationship the viewer's state towards userID.
func (s *UserService) Relationship(ctx context.Context, viewerID, userID uint) (State, error) {
	if _, err := s.Me(ctx, userID); err != nil {
		return StateNone, err
	}
	return s.friends.Resolve(ctx, viewerID, userID)
}

// SetStatus is called by the websocket handler on connect and disconnect.
func (s *UserService) SetStatus(ctx context.Context, userID uint, status string) error {
	switch status {
	case StatusOnline, StatusOffline, StatusAway:
	default:
		return apperrors.Validation("invalid status")
	}
	return s.repo.UpdateStatus(ctx, userID, status)
}
