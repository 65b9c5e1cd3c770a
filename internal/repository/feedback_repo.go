package repository

import (
	"context"

	"gorm.io/gorm"

	"classroom-reservation/internal/model"
)

// FeedbackRepository 评价数据访问接口
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.Feedback) error
	ListByClassroom(ctx context.Context, classroomID string) ([]model.Feedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, feedback *model.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// ListByClassroom 某教室全部评价，最新在前
func (r *feedbackRepo) ListByClassroom(ctx context.Context, classroomID string) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.db.WithContext(ctx).
		Preload("Reservation").
		Joins("JOIN reservations ON reservations.reservation_id = feedbacks.reservation_id").
		Where("reservations.classroom_id = ?", classroomID).
		Order("feedbacks.created_at DESC").
		Find(&list).Error
	return list, err
}
