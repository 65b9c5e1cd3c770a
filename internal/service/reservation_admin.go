package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	"classroom-reservation/pkg/metrics"
)

// rejectModificationReason 修改申请被驳回时通知中的默认原因
const rejectModificationReason = "修改申请未通过，原预约保持不变"

// ────────────────────── AdminQueue ──────────────────────

// AdminQueue 审批队列：待审 > 待修改 > 待取消 > 已通过 > 已驳回，同级按学期开始日期升序；已取消不显示
func (s *reservationService) AdminQueue(ctx context.Context, req *dto.AdminQueueRequest) ([]dto.QueueItemResponse, int64, error) {
	filter := repository.QueueFilter{
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	}
	if req.Status != "" {
		status, err := booking.ParseStatus(req.Status)
		if err != nil {
			return nil, 0, invalid("status", err.Error())
		}
		filter.Status = &status
	}

	list, total, err := s.repo.Reservation.ListQueue(ctx, filter)
	if err != nil {
		s.logger.Error("查询审批队列失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.QueueItemResponse, 0, len(list))
	if len(list) == 0 {
		return items, total, nil
	}

	// 本页覆盖的日期区间只查询一次节假日
	from, to := list[0].TermStart, list[0].TermEnd
	for i := range list {
		from = earlier(from, list[i].TermStart)
		to = later(to, list[i].TermEnd)
	}
	holidays := s.holidays.HolidaysInRange(ctx, from, to)

	for i := range list {
		r := &list[i]
		dates := booking.HolidaysOnWeekday(holidays, time.Weekday(r.DayOfWeek), r.TermStart, r.TermEnd)
		items = append(items, dto.QueueItemResponse{
			ReservationResponse: toReservationResponse(r),
			HasHoliday:          len(dates) > 0,
			HolidayDates:        formatDates(dates),
		})
	}
	return items, total, nil
}

// ────────────────────── Approve ──────────────────────

func (s *reservationService) Approve(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error) {
	r, err := s.transition(ctx, actor, id, booking.ActionApprove)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyApproval(ctx, r)
	return toReservationResponsePtr(r), nil
}

// ────────────────────── Reject ──────────────────────

func (s *reservationService) Reject(ctx context.Context, actor Actor, id string, reason string) (*dto.ReservationResponse, error) {
	r, err := s.transition(ctx, actor, id, booking.ActionReject)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyRejection(ctx, r, reason)
	return toReservationResponsePtr(r), nil
}

// ────────────────────── ApproveModification ──────────────────────

// ApproveModification 通过修改申请：原预约 → Cancelled，影子预约 → Approved。
// id 可以是原预约或影子预约
func (s *reservationService) ApproveModification(ctx context.Context, actor Actor, id string) (*dto.ModificationResponse, error) {
	original, shadow, err := s.settleModification(ctx, actor, id, booking.ActionApproveModification)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyApproval(ctx, shadow)
	return toModificationResponse(original, shadow), nil
}

// ────────────────────── RejectModification ──────────────────────

// RejectModification 驳回修改申请：原预约 → Approved，影子预约 → Rejected
func (s *reservationService) RejectModification(ctx context.Context, actor Actor, id string) (*dto.ModificationResponse, error) {
	original, shadow, err := s.settleModification(ctx, actor, id, booking.ActionRejectModification)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyRejection(ctx, shadow, rejectModificationReason)
	return toModificationResponse(original, shadow), nil
}

// ────────────────────── ApproveCancellation ──────────────────────

func (s *reservationService) ApproveCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error) {
	r, err := s.transition(ctx, actor, id, booking.ActionApproveCancellation)
	if err != nil {
		return nil, err
	}
	return toReservationResponsePtr(r), nil
}

// ────────────────────── RejectCancellation ──────────────────────

// RejectCancellation 驳回取消申请，预约恢复为 Approved。
// 待取消的预约不占用时间段，恢复前需重新判定冲突
func (s *reservationService) RejectCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error) {
	action := booking.ActionRejectCancellation

	var r *model.Reservation
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if r, err = s.load(ctx, tx, actor, id); err != nil {
			return err
		}
		if _, err := booking.Transition(r.Status, action); err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, tx, r, r.ReservationID, string(action)); err != nil {
			return err
		}
		return s.apply(ctx, tx, actor, r, action)
	})
	if err != nil {
		return nil, s.fail(string(action), err, "驳回取消申请失败")
	}
	metrics.ReservationTransitions.WithLabelValues(string(action), "ok").Inc()
	return toReservationResponsePtr(r), nil
}

// ── 修改申请辅助 ──

// settleModification 在同一事务内同时流转原预约与影子预约
func (s *reservationService) settleModification(ctx context.Context, actor Actor, id string, action booking.Action) (*model.Reservation, *model.Reservation, error) {
	var original, shadow *model.Reservation
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if original, shadow, err = s.resolveModification(ctx, tx, actor, id, action); err != nil {
			return err
		}
		if original != nil {
			if err := s.apply(ctx, tx, actor, original, action); err != nil {
				return err
			}
		}
		return s.apply(ctx, tx, actor, shadow, action)
	})
	if err != nil {
		return nil, nil, s.fail(string(action), err, "处理修改申请失败")
	}
	metrics.ReservationTransitions.WithLabelValues(string(action), "ok").Inc()
	return original, shadow, nil
}

// resolveModification 由任一方 id 找到原预约与影子预约。
// 原预约已被删除时 original 为 nil，仅处理影子预约
func (s *reservationService) resolveModification(ctx context.Context, tx *repository.Repository, actor Actor, id string, action booking.Action) (*model.Reservation, *model.Reservation, error) {
	r, err := s.load(ctx, tx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	if r.Status == booking.StatusModificationPending {
		if r.RelatedReservationID == nil {
			return nil, r, nil
		}
		original, err := s.load(ctx, tx, actor, *r.RelatedReservationID)
		if errors.Is(err, ErrReservationNotFound) {
			return nil, r, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return original, r, nil
	}

	if _, err := booking.Transition(r.Status, action); err != nil {
		return nil, nil, err
	}
	shadow, err := tx.Reservation.GetShadow(ctx, r.ReservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrModificationNotFound
		}
		return nil, nil, err
	}
	return r, shadow, nil
}

func toModificationResponse(original, shadow *model.Reservation) *dto.ModificationResponse {
	resp := &dto.ModificationResponse{Shadow: toReservationResponse(shadow)}
	if original != nil {
		resp.Original = toReservationResponsePtr(original)
	}
	return resp
}
