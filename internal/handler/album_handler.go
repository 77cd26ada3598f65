package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// AlbumHandler photo albums and the upload endpoint that feeds them.
type AlbumHandler struct {
	albums  *service.AlbumService
	uploads *service.UploadService
}

func NewAlbumHandler(albums *service.AlbumService, uploads *service.UploadService) *AlbumHandler {
	return &AlbumHandler{albums: albums, uploads: uploads}
}

func (h *AlbumHandler) ListByOwner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	albums, err := h.albums.ListByOwner(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, albums)
}

func (h *AlbumHandler) Create(c *gin.Context) {
	var in service.AlbumInput
	if !bindJSON(c, &in) {
		return
	}
	album, err := h.albums.Create(c.Request.Context(), jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "album created", album)
}

func (h *AlbumHandler) AddPhoto(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.PhotoInput
	if !bindJSON(c, &in) {
		return
	}
	photo, err := h.albums.AddPhoto(c.Request.Context(), jwt.GetUserID(c), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photo)
}

func (h *AlbumHandler) Photos(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	photos, err := h.albums.Photos(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photos)
}

func (h *AlbumHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.albums.Delete(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "album deleted", nil)
}

// Upload takes a multipart "file" field and returns its public URL.
//
//	@Summary	Upload an image
//	@Tags		uploads
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Param		file	formData	file	true	"image"
//	@Router		/uploads [post]
func (h *AlbumHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer f.Close()

	url, err := h.uploads.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}
