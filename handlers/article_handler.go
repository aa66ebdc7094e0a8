package handlers

import (
	"strconv"

	"flyingbus/helper"
	"flyingbus/middleware"
	"flyingbus/models"
	"flyingbus/services"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

type ArticleHandler struct {
	articleService services.ArticleService
	Helper         *helper.HTTPHelper
}

func NewArticleHandler(articleService services.ArticleService, h *helper.HTTPHelper) *ArticleHandler {
	return &ArticleHandler{articleService: articleService, Helper: h}
}

// GetArticles lists the caller's own articles in any status.
func (h *ArticleHandler) GetArticles(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	articles, total, err := h.articleService.GetArticles(c.Request.Context(), params, middleware.UserID(c), false)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.sendList(c, articles, total, params)
}

func (h *ArticleHandler) GetPublicArticles(c *gin.Context) {
	params, ok := h.listParams(c)
	if !ok {
		return
	}

	articles, total, err := h.articleService.GetArticles(c.Request.Context(), params, 0, true)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.sendList(c, articles, total, params)
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	article, err := h.articleService.GetArticle(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c), false)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", article)
}

func (h *ArticleHandler) GetPublicArticle(c *gin.Context) {
	article, err := h.articleService.GetArticle(c.Request.Context(), c.Param("id"), 0, "", true)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", article)
}

func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	if err := h.articleService.DeleteArticle(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c)); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article deleted successfully", h.Helper.EmptyJsonMap())
}

func (h *ArticleHandler) GetArticleVersions(c *gin.Context) {
	versions, err := h.articleService.GetArticleVersions(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", versions)
}

func (h *ArticleHandler) SearchArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	hits, err := h.articleService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Success", hits)
}

func (h *ArticleHandler) listParams(c *gin.Context) (models.ArticleListParams, bool) {
	var params models.ArticleListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBadRequest(c, "Invalid query parameters", err.Error())
		return params, false
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	return params, true
}

func (h *ArticleHandler) sendList(c *gin.Context, articles []models.Article, total int64, params models.ArticleListParams) {
	h.Helper.SendSuccess(c, "Success", gin.H{
		"articles":   articles,
		"pagination": h.Helper.GeneratePaging(c, params.Limit, params.Page, int(total)),
	})
}
