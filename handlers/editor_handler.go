package handlers

import (
	"context"
	"errors"
	"net/http"

	"flyingbus/editor"
	"flyingbus/helper"
	"flyingbus/middleware"
	"flyingbus/models"
	"flyingbus/services"

	"github.com/gin-gonic/gin"
)

type EditorHandler struct {
	editorService services.EditorService
	Helper        *helper.HTTPHelper
}

func NewEditorHandler(editorService services.EditorService, h *helper.HTTPHelper) *EditorHandler {
	return &EditorHandler{editorService: editorService, Helper: h}
}

func (h *EditorHandler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.Helper.SendBadRequest(c, "Invalid request body", err.Error())
			return
		}
	}

	sess, err := h.editorService.Open(c.Request.Context(), middleware.UserID(c), middleware.Token(c), req.ArticleID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Editor session opened", sess.View())
}

func (h *EditorHandler) GetSession(c *gin.Context) {
	view, err := h.editorService.View(c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", view)
}

func (h *EditorHandler) UpdateSession(c *gin.Context) {
	var patch models.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.Helper.SendBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if patch.Empty() {
		h.Helper.SendBadRequest(c, "Patch changes no field", h.Helper.EmptyJsonMap())
		return
	}

	view, err := h.editorService.Apply(c.Param("id"), middleware.UserID(c), patch)
	if err != nil {
		sendEditorError(h.Helper, c, err, view)
		return
	}

	h.Helper.SendSuccess(c, "Draft updated", view)
}

// SaveSession is the manual "Save draft" action.
func (h *EditorHandler) SaveSession(c *gin.Context) {
	view, err := h.editorService.Save(detached(c), c.Param("id"), middleware.UserID(c))
	if err != nil {
		sendEditorError(h.Helper, c, err, view)
		return
	}

	h.Helper.SendSuccess(c, "Draft saved", view)
}

func (h *EditorHandler) SubmitSession(c *gin.Context) {
	view, err := h.editorService.Submit(detached(c), c.Param("id"), middleware.UserID(c))
	if err != nil {
		sendEditorError(h.Helper, c, err, view)
		return
	}

	h.Helper.SendSuccess(c, "Draft submitted for review", view)
}

func (h *EditorHandler) CloseSession(c *gin.Context) {
	if err := h.editorService.Close(c.Param("id"), middleware.UserID(c)); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Editor session closed", h.Helper.EmptyJsonMap())
}

// detached keeps the request's values but not its cancellation: a save or
// transition that has started completes even if the client goes away.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// sendEditorError renders session failures. The session view is attached so
// the client can keep showing the draft and its save status.
func sendEditorError(u *helper.HTTPHelper, c *gin.Context, err error, view models.SessionView) {
	var (
		verr  *editor.ValidationError
		serr  *editor.SaveError
		terr  *editor.TransitionError
		state interface{} = view
	)
	if view.SessionID == "" {
		state = u.EmptyJsonMap()
	}

	switch {
	case errors.As(err, &verr):
		u.SendValidationFields(c, verr.Fields, state)
	case errors.Is(err, editor.ErrSubmissionInProgress),
		errors.Is(err, editor.ErrAlreadySubmitted),
		errors.Is(err, editor.ErrSaveInFlight):
		u.SendConflictError(c, err.Error(), state)
	case errors.Is(err, editor.ErrSessionClosed):
		u.SendNotFoundError(c, err.Error(), state)
	case errors.As(err, &serr), errors.As(err, &terr):
		// The store's own typed errors keep their status; anything else is
		// the remote side failing.
		if status := u.GetStatusCode(err); status != http.StatusInternalServerError {
			u.SendError(c, err.Error(), state, status, "saveError", status)
			return
		}
		u.SendError(c, err.Error(), state, http.StatusBadGateway, "saveError", http.StatusBadGateway)
	default:
		u.SendServiceError(c, err)
	}
}
