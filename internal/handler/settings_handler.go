package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettingsHandler account settings and push device registration.
type SettingsHandler struct {
	service *service.SettingsService
}

func NewSettingsHandler(s *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: s}
}

// UpdateProfile
//
//	@Summary	Update display name, bio or avatar
//	@Tags		settings
//	@Security	BearerAuth
//	@Param		body	body	service.ProfileInput	true	"fields to change"
//	@Router		/settings/profile [put]
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	var in service.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var in service.PasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), jwt.GetUserID(c), in); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "password changed", nil)
}

func (h *SettingsHandler) Preferences(c *gin.Context) {
	pref, err := h.service.Preferences(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, pref)
}

func (h *SettingsHandler) UpdatePreferences(c *gin.Context) {
	var in service.PreferenceInput
	if !bindJSON(c, &in) {
		return
	}
	pref, err := h.service.UpdatePreferences(c.Request.Context(), jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, pref)
}

// DeleteAccount requires the current password in the body.
//
//	@Summary	Delete the account
//	@Tags		settings
//	@Security	BearerAuth
//	@Router		/settings/account [delete]
func (h *SettingsHandler) DeleteAccount(c *gin.Context) {
	var r struct {
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), jwt.GetUserID(c), r.Password); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "account deleted", nil)
}

type pushRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// Subscribe registers a device token for push notifications.
//
//	@Summary	Register a push device
//	@Tags		push
//	@Security	BearerAuth
//	@Param		body	body	pushRequest	true	"device"
//	@Router		/push/subscribe [post]
func (h *SettingsHandler) Subscribe(c *gin.Context) {
	var r pushRequest
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.SubscribePush(c.Request.Context(), jwt.GetUserID(c), r.Token, r.Platform); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "subscribed", nil)
}

func (h *SettingsHandler) Unsubscribe(c *gin.Context) {
	var r pushRequest
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.UnsubscribePush(c.Request.Context(), jwt.GetUserID(c), r.Token); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "unsubscribed", nil)
}
