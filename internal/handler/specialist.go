package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safespace/request-service/internal/auth"
	"github.com/safespace/request-service/internal/avatars"
	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/model"
	"github.com/safespace/request-service/internal/service"
)

type SpecialistHandler struct {
	dir     service.DirectoryServicer
	avatars *avatars.Store
}

func NewSpecialistHandler(dir service.DirectoryServicer, store *avatars.Store) *SpecialistHandler {
	return &SpecialistHandler{dir: dir, avatars: store}
}

// Me — собственная запись каталога вызывающего (по email из токена).
func (h *SpecialistHandler) Me(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	sp, err := h.dir.GetByEmail(c.Request.Context(), ident.Email)
	if err != nil {
		if errors.Is(err, errs.ErrSpecialistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sp)
}

type createSpecialistRequest struct {
	FullName string `json:"fullname"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	About    string `json:"about"`
}

// Create заводит запись каталога для вызывающего. user_id и email берутся
// из идентичности, не из тела — клиент не может завести профиль за другого.
func (h *SpecialistHandler) Create(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	var req createSpecialistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sp := &model.Specialist{
		UserID:   ident.UserID,
		Email:    ident.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Website:  req.Website,
		About:    req.About,
	}
	if err := h.dir.Create(c.Request.Context(), sp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create specialist"})
		return
	}
	c.JSON(http.StatusCreated, sp)
}

type updateSpecialistRequest struct {
	FullName *string `json:"fullname,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Website  *string `json:"website,omitempty"`
	About    *string `json:"about,omitempty"`
}

func (h *SpecialistHandler) Update(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateSpecialistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	changes := make(map[string]interface{})
	if req.FullName != nil {
		changes["fullname"] = *req.FullName
	}
	if req.Phone != nil {
		changes["phone"] = *req.Phone
	}
	if req.Website != nil {
		changes["website"] = *req.Website
	}
	if req.About != nil {
		changes["about"] = *req.About
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no changes"})
		return
	}
	sp, err := h.dir.Update(c.Request.Context(), id, ident.UserID, changes)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSpecialistNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
		case errors.Is(err, errs.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "profile belongs to another user"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, sp)
}

// UploadAvatar принимает multipart-файл, кладёт его в приватный бакет и
// записывает путь в профиль вызывающего.
func (h *SpecialistHandler) UploadAvatar(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	if !h.avatars.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not configured"})
		return
	}
	sp, err := h.dir.GetByEmail(c.Request.Context(), ident.Email)
	if err != nil {
		if errors.Is(err, errs.ErrSpecialistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer src.Close()
	path, err := h.avatars.Put(c.Request.Context(), ident.UserID, file.Filename, file.Header.Get("Content-Type"), src, file.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
		return
	}
	if _, err := h.dir.Update(c.Request.Context(), sp.ID, ident.UserID, map[string]interface{}{"avatar_path": path}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save avatar path"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_path": path})
}

// AvatarURL отдаёт подписанную ссылку на чтение аватара специалиста.
func (h *SpecialistHandler) AvatarURL(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if !h.avatars.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not configured"})
		return
	}
	sp, err := h.dir.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrSpecialistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sp.AvatarPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "specialist has no avatar"})
		return
	}
	url, err := h.avatars.SignedURL(c.Request.Context(), sp.AvatarPath, avatars.DefaultSignedURLTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign avatar url"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(avatars.DefaultSignedURLTTL.Seconds()),
	})
}
