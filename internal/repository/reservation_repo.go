package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/model"
	pkgerrors "classroom-reservation/pkg/errors"
)

// QueueFilter 管理员审批队列查询条件
type QueueFilter struct {
	Status *booking.Status
	Offset int
	Limit  int
}

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	// GetShadow 查询原预约对应的 ModificationPending 影子预约
	GetShadow(ctx context.Context, originalID string) (*model.Reservation, error)
	// ListByClassroomWeekday 冲突检查快照：同教室同星期的全部预约
	ListByClassroomWeekday(ctx context.Context, classroomID string, weekday int) ([]model.Reservation, error)
	// UpdateStatus 乐观锁更新状态，version 不匹配返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, reservation *model.Reservation) error
	ListByInstructor(ctx context.Context, instructorID string, exclude []booking.Status) ([]model.Reservation, error)
	ListQueue(ctx context.Context, filter QueueFilter) ([]model.Reservation, int64, error)
	// ListVisible 日历可见：全部已批准 + 本人待审/修改待审
	ListVisible(ctx context.Context, viewerID string) ([]model.Reservation, error)
	ListApprovedInRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Instructor").
		Where("reservation_id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) GetShadow(ctx context.Context, originalID string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Instructor").
		Where("related_reservation_id = ? AND status = ?", originalID, booking.StatusModificationPending).
		Order("created_at DESC").
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) ListByClassroomWeekday(ctx context.Context, classroomID string, weekday int) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND day_of_week = ?", classroomID, weekday).
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, reservation *model.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ? AND version = ?", reservation.ReservationID, reservation.Version).
		Updates(map[string]interface{}{
			"status":     reservation.Status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": gorm.Expr("NOW()"),
			"updated_by": reservation.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reservation.Version++
	return nil
}

func (r *reservationRepo) ListByInstructor(ctx context.Context, instructorID string, exclude []booking.Status) ([]model.Reservation, error) {
	var list []model.Reservation
	db := r.db.WithContext(ctx).
		Preload("Classroom").
		Where("instructor_id = ?", instructorID)
	if len(exclude) > 0 {
		db = db.Where("status NOT IN ?", exclude)
	}
	err := db.Order("term_start DESC").Order("day_of_week ASC").Order("start_time ASC").Find(&list).Error
	return list, err
}

func (r *reservationRepo) ListQueue(ctx context.Context, filter QueueFilter) ([]model.Reservation, int64, error) {
	var list []model.Reservation
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("status <> ?", booking.StatusCancelled)
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("Classroom").
		Preload("Instructor").
		Order(queueOrderExpr()).
		Order("term_start ASC").
		Order("created_at ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *reservationRepo) ListVisible(ctx context.Context, viewerID string) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Where("status = ?", booking.StatusApproved).
		Or("instructor_id = ? AND status IN ?", viewerID,
			[]booking.Status{booking.StatusPending, booking.StatusModificationPending}).
		Order("term_start ASC").
		Find(&list).Error
	return list, err
}

// ListApprovedInRange 与 [start, end] 有日期交集的已批准预约
func (r *reservationRepo) ListApprovedInRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Classroom").
		Preload("Instructor").
		Where("status = ?", booking.StatusApproved).
		Where("term_start <= ? AND term_end >= ?", end, start).
		Order("day_of_week ASC").
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}

// queueOrderExpr 由 booking.QueueRank 生成 ORDER BY CASE 表达式，排序权重只在 booking 中定义
func queueOrderExpr() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, st := range booking.Statuses() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", st, booking.QueueRank(st))
	}
	b.WriteString(" ELSE 5 END")
	return b.String()
}
