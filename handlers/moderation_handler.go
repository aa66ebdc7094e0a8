package handlers

import (
	"flyingbus/helper"
	"flyingbus/middleware"
	"flyingbus/models"
	"flyingbus/services"

	"github.com/gin-gonic/gin"
)

// ModerationHandler serves the editors' review queue.
type ModerationHandler struct {
	articleService services.ArticleService
	articles       *ArticleHandler
	Helper         *helper.HTTPHelper
}

func NewModerationHandler(articleService services.ArticleService, h *helper.HTTPHelper) *ModerationHandler {
	return &ModerationHandler{
		articleService: articleService,
		articles:       NewArticleHandler(articleService, h),
		Helper:         h,
	}
}

func (h *ModerationHandler) GetQueue(c *gin.Context) {
	params, ok := h.articles.listParams(c)
	if !ok {
		return
	}

	articles, total, err := h.articleService.GetReviewQueue(c.Request.Context(), params)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.articles.sendList(c, articles, total, params)
}

func (h *ModerationHandler) Approve(c *gin.Context) {
	var req models.ModerationRequest
	if c.Request.ContentLength != 0 && !h.Helper.BindJSON(c, &req) {
		return
	}

	article, err := h.articleService.Approve(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Note)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article published", article)
}

func (h *ModerationHandler) Reject(c *gin.Context) {
	var req models.ModerationRequest
	if !h.Helper.BindJSON(c, &req) {
		return
	}

	article, err := h.articleService.Reject(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Note)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article returned to author", article)
}
