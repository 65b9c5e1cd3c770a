package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
)

// ── 评价模块业务错误 ──

// ErrFeedbackNotAllowed 只能评价已通过的预约
var ErrFeedbackNotAllowed = errors.New("只能对已通过的预约提交评价")

const maxFeedbackCommentLength = 500

// FeedbackService 评价业务接口
type FeedbackService interface {
	Submit(ctx context.Context, actor Actor, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
}

type feedbackService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFeedbackService 创建 FeedbackService 实例
func NewFeedbackService(repo *repository.Repository, logger *zap.Logger) FeedbackService {
	return &feedbackService{repo: repo, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *feedbackService) Submit(ctx context.Context, actor Actor, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid("rating", "评分必须在 1-5 之间")
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, invalid("comment", "评价内容不能为空")
	}
	if utf8.RuneCountInString(comment) > maxFeedbackCommentLength {
		return nil, invalid("comment", "评价内容不能超过 500 个字符")
	}

	reservation, err := s.repo.Reservation.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", req.ReservationID), zap.Error(err))
		return nil, err
	}
	// 任何登录用户都可评价已通过的预约
	if reservation.Status != booking.StatusApproved {
		return nil, ErrFeedbackNotAllowed
	}

	feedback := &model.Feedback{
		ReservationID: reservation.ReservationID,
		Rating:        req.Rating,
		Comment:       comment,
	}
	if actor.UserID != "" {
		feedback.CreatedBy = &actor.UserID
	}

	if err := s.repo.Feedback.Create(ctx, feedback); err != nil {
		s.logger.Error("提交评价失败", zap.String("reservation_id", reservation.ReservationID), zap.Error(err))
		return nil, err
	}

	resp := toFeedbackResponse(feedback)
	return &resp, nil
}

func toFeedbackResponse(f *model.Feedback) dto.FeedbackResponse {
	resp := dto.FeedbackResponse{
		ID:            f.FeedbackID,
		ReservationID: f.ReservationID,
		Rating:        f.Rating,
		Comment:       f.Comment,
		CreatedAt:     f.CreatedAt.UTC().Format(timestampLayout),
	}
	if f.CreatedBy != nil {
		resp.CreatedBy = *f.CreatedBy
	}
	return resp
}
