package handlers

import (
	"errors"
	"net/http"

	"flyingbus/editor"
	"flyingbus/gateway"
	"flyingbus/helper"
	"flyingbus/middleware"
	"flyingbus/models"

	"github.com/gin-gonic/gin"
)

// RPCHandler exposes the draft store in the shape the RPC gateway consumes.
// Every response, success or failure, is a models.RPCResponse.
type RPCHandler struct {
	writer gateway.DraftWriter
	Helper *helper.HTTPHelper
}

func NewRPCHandler(writer gateway.DraftWriter, h *helper.HTTPHelper) *RPCHandler {
	return &RPCHandler{writer: writer, Helper: h}
}

func (h *RPCHandler) UpsertDraft(c *gin.Context) {
	var record models.DraftRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid draft record: "+err.Error())
		return
	}

	id, err := h.writer.SaveDraft(c.Request.Context(), middleware.UserID(c), record)
	if err != nil {
		h.fail(c, h.status(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, models.RPCResponse{Success: true, ID: id})
}

func (h *RPCHandler) SubmitForReview(c *gin.Context) {
	var req models.SubmitForReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := h.Helper.Validate.Struct(req); err != nil {
		h.fail(c, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.writer.SubmitForReview(c.Request.Context(), middleware.UserID(c), req.ID); err != nil {
		h.fail(c, h.status(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, models.RPCResponse{Success: true, ID: req.ID})
}

func (h *RPCHandler) status(err error) int {
	var verr *editor.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	return h.Helper.GetStatusCode(err)
}

func (h *RPCHandler) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, models.RPCResponse{Success: false, Error: msg})
}
