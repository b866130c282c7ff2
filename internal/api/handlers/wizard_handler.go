// internal/api/handlers/wizard_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/pickup"
	"recycle-pickup-api-server/internal/session"

	"github.com/gin-gonic/gin"
)

// WizardHandler exposes server-side wizard sessions to the client app.
type WizardHandler struct {
	Sessions *session.Manager
	Profiles CallerSource
}

// respondView answers with the session view, and with the error next to it
// when the operation failed on a live session.
func respondView(c *gin.Context, status int, v session.View, err error) {
	if err == nil {
		c.JSON(status, v)
		return
	}
	if v.ID == "" {
		respondError(c, err)
		return
	}
	code := apperr.CodeOf(err)
	c.JSON(apperr.HTTPStatus(code), gin.H{
		"error":   apperr.MessageOf(err),
		"status":  code,
		"session": v,
	})
}

func (h *WizardHandler) Start(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	v, err := h.Sessions.Start(caller)
	respondView(c, http.StatusCreated, v, err)
}

func (h *WizardHandler) Get(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	v, err := h.Sessions.Get(caller, c.Param("id"))
	respondView(c, http.StatusOK, v, err)
}

// SetData replaces the session's form data with the request body.
func (h *WizardHandler) SetData(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	var data pickup.FormData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := h.Sessions.SetData(caller, c.Param("id"), data)
	respondView(c, http.StatusOK, v, err)
}

// AddPhoto attaches a multipart "file" to the material at form field "material".
func (h *WizardHandler) AddPhoto(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.PostForm("material"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "material must be a material index"})
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + err.Error()})
		return
	}
	defer file.Close()

	v, err := h.Sessions.AddPhoto(caller, c.Param("id"), index, header.Filename, file)
	respondView(c, http.StatusOK, v, err)
}

func (h *WizardHandler) Next(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	v, err := h.Sessions.Next(caller, c.Param("id"))
	respondView(c, http.StatusOK, v, err)
}

func (h *WizardHandler) Back(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	v, err := h.Sessions.Back(caller, c.Param("id"))
	respondView(c, http.StatusOK, v, err)
}

// Submit blocks until the pickup is created or the submission fails. On
// success the session is gone and the view carries the new pickup.
func (h *WizardHandler) Submit(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	v, err := h.Sessions.Submit(caller, c.Param("id"))
	respondView(c, http.StatusCreated, v, err)
}

func (h *WizardHandler) Discard(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	if err := h.Sessions.Discard(caller, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
