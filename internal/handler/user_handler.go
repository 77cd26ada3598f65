package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
	captcha service.CaptchaChecker
}

func NewUserHandler(s *service.UserService, captcha service.CaptchaChecker) *UserHandler {
	return &UserHandler{service: s, captcha: captcha}
}

type registerRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captcha_token"`
}

// Register creates an account and signs the user in.
//
//	@Summary	Register
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		registerRequest	true	"account"
//	@Success	200		{object}	response.Response{data=response.AuthResponse}
//	@Router		/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var r registerRequest
	if !bindJSON(c, &r) {
		return
	}
	user, token, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username:     r.Username,
		Email:        r.Email,
		Password:     r.Password,
		CaptchaToken: r.CaptchaToken,
	}, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "registered", &response.AuthResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// Login
//
//	@Summary	Login with username or email
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"credentials"
//	@Success	200		{object}	response.Response{data=response.AuthResponse}
//	@Router		/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var r loginRequest
	if !bindJSON(c, &r) {
		return
	}
	user, token, err := h.service.Login(c.Request.Context(), r.UsernameOrEmail, r.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "logged in", &response.AuthResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// VerifyCaptcha lets the client check a token before submitting the form.
//
//	@Summary	Verify a captcha token
//	@Tags		auth
//	@Router		/captcha/verify [post]
func (h *UserHandler) VerifyCaptcha(c *gin.Context) {
	var r struct {
		Token string `json:"token" binding:"required"`
	}
	if !bindJSON(c, &r) {
		return
	}
	if h.captcha == nil {
		response.Success(c, gin.H{"success": true})
		return
	}
	ok, result, err := h.captcha.Verify(c.Request.Context(), r.Token, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}
	data := gin.H{"success": ok}
	if result != nil {
		data["score"] = result.Score
	}
	response.Success(c, data)
}

// Me
//
//	@Summary	Current user
//	@Tags		users
//	@Security	BearerAuth
//	@Router		/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

type profileResponse struct {
	User         *response.UserInfo `json:"user"`
	Relationship service.State      `json:"relationship"`
	IsSelf       bool               `json:"is_self"`
	FriendCount  int64              `json:"friend_count"`
	Online       bool               `json:"online"`
}

// Profile works for anonymous viewers too; email is only shown to its owner.
//
//	@Summary	User profile
//	@Tags		users
//	@Param		id	path	int	true	"user id"
//	@Router		/users/{id} [get]
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Profile(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	info := response.PublicUserInfo(p.User)
	if p.IsSelf {
		info = response.FilterUserInfo(p.User)
	}
	response.Success(c, &profileResponse{
		User:         info,
		Relationship: p.Relationship,
		IsSelf:       p.IsSelf,
		FriendCount:  p.FriendCount,
		Online:       p.Online,
	})
}

func (h *UserHandler) Relationship(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	state, err := h.service.Relationship(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": id, "relationship": state})
}
