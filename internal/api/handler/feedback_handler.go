package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

// FeedbackHandler 评价模块 HTTP 处理器
type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

// NewFeedbackHandler 创建 FeedbackHandler
func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// CreateFeedback 对已通过的预约提交评价
// POST /api/v1/feedbacks
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req dto.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	feedback, err := h.feedbackSvc.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFeedbackNotAllowed):
			response.Conflict(c, 17001, "只能对已通过的预约提交评价")
		default:
			if !handleCommonError(c, err) {
				response.InternalError(c)
			}
		}
		return
	}

	response.Created(c, feedback)
}
