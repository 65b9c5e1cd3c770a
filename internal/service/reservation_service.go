package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	pkgerrors "classroom-reservation/pkg/errors"
	"classroom-reservation/pkg/metrics"
)

// ── 预约模块业务错误 ──

var (
	ErrReservationNotFound  = errors.New("预约不存在")
	ErrReservationConflict  = errors.New("该时间段与已有预约冲突")
	ErrReservationStale     = errors.New("预约已被其他操作修改，请刷新后重试")
	ErrModificationNotFound = errors.New("未找到对应的修改申请")
)

const (
	maxActivityLength = 100
	calendarLayout    = "2006-01-02T15:04:05"
)

// 日历事件颜色，优先级：节假日 > 冲突 > 状态
const (
	colorHoliday             = "#ff0000"
	colorConflict            = "#ff8c00"
	colorApproved            = "#28a745"
	colorPending             = "#ffc107"
	colorModificationPending = "#17a2b8"
	colorOther               = "#dc3545"
)

// instructorHiddenStatuses 教师"我的预约"列表不展示的状态
var instructorHiddenStatuses = []booking.Status{
	booking.StatusModificationPending,
	booking.StatusCancellationRequested,
	booking.StatusCancelled,
}

// ReservationService 预约业务接口
//
// 所有依赖冲突判定的写操作都在同一事务内完成：
// 先对教室行加锁，再读取同教室同星期的快照，判定通过后写入。
type ReservationService interface {
	// ── 教师操作 ──
	Submit(ctx context.Context, actor Actor, req *dto.CreateReservationRequest) (*dto.SubmitReservationResponse, error)
	RequestModification(ctx context.Context, actor Actor, id string, req *dto.ModifyReservationRequest) (*dto.ModificationResponse, error)
	RequestCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.ReservationResponse, error)
	Calendar(ctx context.Context, actor Actor, req *dto.CalendarRequest) ([]dto.CalendarEvent, error)

	// ── 管理员审批 ──
	AdminQueue(ctx context.Context, req *dto.AdminQueueRequest) ([]dto.QueueItemResponse, int64, error)
	Approve(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error)
	Reject(ctx context.Context, actor Actor, id string, reason string) (*dto.ReservationResponse, error)
	ApproveModification(ctx context.Context, actor Actor, id string) (*dto.ModificationResponse, error)
	RejectModification(ctx context.Context, actor Actor, id string) (*dto.ModificationResponse, error)
	ApproveCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error)
	RejectCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error)
}

type reservationService struct {
	repo     *repository.Repository
	checker  booking.ConflictChecker
	holidays HolidayService
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(
	repo *repository.Repository,
	holidays HolidayService,
	notifier Notifier,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		repo:     repo,
		checker:  booking.NewConflictChecker(),
		holidays: holidays,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *reservationService) Submit(ctx context.Context, actor Actor, req *dto.CreateReservationRequest) (*dto.SubmitReservationResponse, error) {
	if req.DayOfWeek == nil {
		return nil, invalid("day_of_week", "星期不能为空")
	}
	start, end, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	activity, err := normalizeActivity(req.Activity)
	if err != nil {
		return nil, err
	}

	classroom, err := s.loadClassroom(ctx, req.ClassroomID)
	if err != nil {
		return nil, err
	}

	// 学期日期取当前激活学期
	term, err := s.repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveTerm
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}

	r := &model.Reservation{
		InstructorID: actor.UserID,
		ClassroomID:  classroom.ClassroomID,
		TermStart:    booking.Date(term.StartDate),
		TermEnd:      booking.Date(term.EndDate),
		DayOfWeek:    *req.DayOfWeek,
		StartTime:    start,
		EndTime:      end,
		Activity:     activity,
		Status:       booking.StatusPending,
	}
	r.Stamp(actor.UserID)
	if err := validateSlot(r.Slot()); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.checkConflicts(ctx, tx, r, "", "submit"); err != nil {
			return err
		}
		return tx.Reservation.Create(ctx, r)
	})
	if err != nil {
		return nil, s.fail("submit", err, "提交预约失败")
	}
	r.Classroom = classroom
	metrics.ReservationTransitions.WithLabelValues("submit", "ok").Inc()

	// 节假日仅做提醒，在事务外查询，数据源失败时视为无节假日
	holidays := s.holidays.HolidaysInRange(ctx, r.TermStart, r.TermEnd)
	warnings := booking.HolidaysOnWeekday(holidays, time.Weekday(r.DayOfWeek), r.TermStart, r.TermEnd)
	if len(warnings) > 0 {
		s.notifier.NotifyHolidayConflict(ctx, r, warnings)
	}

	return &dto.SubmitReservationResponse{
		Reservation:    toReservationResponse(r),
		HolidayWarning: formatDates(warnings),
	}, nil
}

// ────────────────────── RequestModification ──────────────────────

// RequestModification 已通过的预约申请修改：
// 原预约转为 ModificationRequested，同时生成一条 ModificationPending 的影子预约待审批
func (s *reservationService) RequestModification(ctx context.Context, actor Actor, id string, req *dto.ModifyReservationRequest) (*dto.ModificationResponse, error) {
	if req.DayOfWeek == nil {
		return nil, invalid("day_of_week", "星期不能为空")
	}
	start, end, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	original, err := s.load(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := booking.Transition(original.Status, booking.ActionRequestModification); err != nil {
		return nil, s.fail(string(booking.ActionRequestModification), err, "")
	}

	relatedID := original.ReservationID
	shadow := &model.Reservation{
		InstructorID:         original.InstructorID,
		ClassroomID:          original.ClassroomID,
		TermStart:            original.TermStart,
		TermEnd:              original.TermEnd,
		DayOfWeek:            *req.DayOfWeek,
		StartTime:            start,
		EndTime:              end,
		Activity:             original.Activity,
		Status:               booking.StatusModificationPending,
		RelatedReservationID: &relatedID,
	}
	if req.ClassroomID != nil && *req.ClassroomID != "" {
		shadow.ClassroomID = *req.ClassroomID
	}
	if req.Activity != nil {
		if shadow.Activity, err = normalizeActivity(*req.Activity); err != nil {
			return nil, err
		}
	}
	shadow.Stamp(actor.UserID)
	if err := validateSlot(shadow.Slot()); err != nil {
		return nil, err
	}

	classroom, err := s.loadClassroom(ctx, shadow.ClassroomID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 原预约仍占用时间段，判定时排除
		if err := s.checkConflicts(ctx, tx, shadow, original.ReservationID, "modify"); err != nil {
			return err
		}
		if err := s.apply(ctx, tx, actor, original, booking.ActionRequestModification); err != nil {
			return err
		}
		return tx.Reservation.Create(ctx, shadow)
	})
	if err != nil {
		return nil, s.fail(string(booking.ActionRequestModification), err, "申请修改预约失败")
	}
	shadow.Classroom = classroom
	metrics.ReservationTransitions.WithLabelValues(string(booking.ActionRequestModification), "ok").Inc()

	return &dto.ModificationResponse{
		Original: toReservationResponsePtr(original),
		Shadow:   toReservationResponse(shadow),
	}, nil
}

// ────────────────────── RequestCancellation ──────────────────────

func (s *reservationService) RequestCancellation(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error) {
	r, err := s.transition(ctx, actor, id, booking.ActionRequestCancellation)
	if err != nil {
		return nil, err
	}
	return toReservationResponsePtr(r), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *reservationService) GetByID(ctx context.Context, actor Actor, id string) (*dto.ReservationResponse, error) {
	r, err := s.load(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	return toReservationResponsePtr(r), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *reservationService) ListMine(ctx context.Context, actor Actor) ([]dto.ReservationResponse, error) {
	list, err := s.repo.Reservation.ListByInstructor(ctx, actor.UserID, instructorHiddenStatuses)
	if err != nil {
		s.logger.Error("查询我的预约失败", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReservationResponse, 0, len(list))
	for i := range list {
		result = append(result, toReservationResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Calendar ──────────────────────

// Calendar 日历事件：全部已通过预约 + 本人待审/修改待审预约，展开为每周具体日期，另附全天节假日事件
func (s *reservationService) Calendar(ctx context.Context, actor Actor, req *dto.CalendarRequest) ([]dto.CalendarEvent, error) {
	now := s.now()
	from := booking.Date(now.AddDate(0, -1, 0))
	to := booking.Date(now.AddDate(0, 2, 0))
	if req.From != "" {
		d, err := booking.ParseDate(req.From)
		if err != nil {
			return nil, invalid("from", "日期格式应为 YYYY-MM-DD")
		}
		from = d
	}
	if req.To != "" {
		d, err := booking.ParseDate(req.To)
		if err != nil {
			return nil, invalid("to", "日期格式应为 YYYY-MM-DD")
		}
		to = d
	}
	if to.Before(from) {
		return nil, invalid("to", "结束日期不能早于开始日期")
	}

	list, err := s.repo.Reservation.ListVisible(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("查询日历预约失败", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	holidays := s.holidays.HolidaysInRange(ctx, from, to)
	holidaySet := booking.NewHolidaySet(holidays)
	snapshot := model.Slots(list)

	events := make([]dto.CalendarEvent, 0)
	for i := range list {
		r := &list[i]

		// 影子预约与其原预约不算冲突
		exclude := ""
		if r.IsShadow() {
			exclude = *r.RelatedReservationID
		}
		conflict := s.checker.HasConflict(snapshot, r.Slot(), exclude)

		dates := booking.Occurrences(time.Weekday(r.DayOfWeek), later(r.TermStart, from), earlier(r.TermEnd, to))
		for _, occ := range booking.Annotate(dates, holidaySet) {
			events = append(events, dto.CalendarEvent{
				ID:            r.ReservationID + ":" + booking.FormatDate(occ.Date),
				Title:         eventTitle(r),
				Start:         r.StartTime.On(occ.Date).Format(calendarLayout),
				End:           r.EndTime.On(occ.Date).Format(calendarLayout),
				Color:         eventColor(r.Status, conflict, occ.Holiday),
				Status:        r.Status.String(),
				ReservationID: r.ReservationID,
				IsHoliday:     occ.Holiday,
				IsConflict:    conflict,
			})
		}
	}

	for _, h := range holidays {
		date := booking.FormatDate(h)
		events = append(events, dto.CalendarEvent{
			ID:        "holiday:" + date,
			Title:     "法定节假日",
			Start:     date,
			AllDay:    true,
			Color:     colorHoliday,
			IsHoliday: true,
		})
	}

	return events, nil
}

// ── 内部辅助方法 ──

// load 查询预约并校验归属，非本人预约按不存在处理
func (s *reservationService) load(ctx context.Context, repo *repository.Repository, actor Actor, id string) (*model.Reservation, error) {
	r, err := repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !actor.Owns(r.InstructorID) {
		return nil, ErrReservationNotFound
	}
	return r, nil
}

func (s *reservationService) loadClassroom(ctx context.Context, id string) (*model.Classroom, error) {
	classroom, err := s.repo.Classroom.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return classroom, nil
}

// checkConflicts 锁定教室行后读取快照判定冲突，必须在事务内调用
func (s *reservationService) checkConflicts(ctx context.Context, tx *repository.Repository, r *model.Reservation, excludeID, op string) error {
	if _, err := tx.Classroom.LockByID(ctx, r.ClassroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	existing, err := tx.Reservation.ListByClassroomWeekday(ctx, r.ClassroomID, r.DayOfWeek)
	if err != nil {
		return err
	}
	if hits := s.checker.FindConflicts(model.Slots(existing), r.Slot(), excludeID); len(hits) > 0 {
		metrics.ConflictRejections.WithLabelValues(op).Inc()
		return &ConflictError{Conflicts: hits}
	}
	return nil
}

// apply 按状态表流转单条预约并以乐观锁写回，失败时状态保持不变
func (s *reservationService) apply(ctx context.Context, tx *repository.Repository, actor Actor, r *model.Reservation, action booking.Action) error {
	next, err := booking.Transition(r.Status, action)
	if err != nil {
		return err
	}

	prev := r.Status
	r.Status = next
	r.Stamp(actor.UserID)
	if err := tx.Reservation.UpdateStatus(ctx, r); err != nil {
		r.Status = prev
		return err
	}
	return nil
}

// transition 单条预约的状态流转
func (s *reservationService) transition(ctx context.Context, actor Actor, id string, action booking.Action) (*model.Reservation, error) {
	r, err := s.load(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, s.repo, actor, r, action); err != nil {
		return nil, s.fail(string(action), err, "更新预约状态失败")
	}
	metrics.ReservationTransitions.WithLabelValues(string(action), "ok").Inc()
	return r, nil
}

// fail 统一记录失败指标，并把乐观锁冲突转换为业务错误
func (s *reservationService) fail(action string, err error, msg string) error {
	switch {
	case errors.Is(err, ErrReservationConflict):
		metrics.ReservationTransitions.WithLabelValues(action, "conflict").Inc()
		return err
	case errors.Is(err, booking.ErrInvalidTransition):
		metrics.ReservationTransitions.WithLabelValues(action, "invalid").Inc()
		return err
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		metrics.ReservationTransitions.WithLabelValues(action, "stale").Inc()
		return ErrReservationStale
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrClassroomNotFound),
		errors.Is(err, ErrModificationNotFound):
		return err
	}

	metrics.ReservationTransitions.WithLabelValues(action, "error").Inc()
	if msg != "" {
		s.logger.Error(msg, zap.String("action", action), zap.Error(err))
	}
	return err
}

func parseTimeRange(startStr, endStr string) (booking.TimeOfDay, booking.TimeOfDay, error) {
	start, err := booking.ParseTimeOfDay(startStr)
	if err != nil {
		return 0, 0, invalid("start_time", "时间格式应为 HH:MM")
	}
	end, err := booking.ParseTimeOfDay(endStr)
	if err != nil {
		return 0, 0, invalid("end_time", "时间格式应为 HH:MM")
	}
	if end <= start {
		return 0, 0, invalid("end_time", "结束时间必须晚于开始时间")
	}
	return start, end, nil
}

func normalizeActivity(activity string) (string, error) {
	activity = strings.TrimSpace(activity)
	if utf8.RuneCountInString(activity) > maxActivityLength {
		return "", invalid("activity", "活动名称不能超过 100 个字符")
	}
	return activity, nil
}

func validateSlot(slot booking.Slot) error {
	switch err := slot.Validate(); {
	case err == nil:
		return nil
	case errors.Is(err, booking.ErrSlotWeekday):
		return invalid("day_of_week", err.Error())
	case errors.Is(err, booking.ErrSlotTimeOrder):
		return invalid("end_time", err.Error())
	default:
		return invalid("term", err.Error())
	}
}

func eventColor(status booking.Status, conflict, holiday bool) string {
	if holiday {
		return colorHoliday
	}
	if conflict {
		return colorConflict
	}
	switch status {
	case booking.StatusApproved:
		return colorApproved
	case booking.StatusPending:
		return colorPending
	case booking.StatusModificationPending:
		return colorModificationPending
	default:
		return colorOther
	}
}

func eventTitle(r *model.Reservation) string {
	activity := r.Activity
	if activity == "" {
		activity = "预约"
	}
	classroom := r.ClassroomID
	if r.Classroom != nil {
		classroom = r.Classroom.Name
	}
	return fmt.Sprintf("%s - %s (%s-%s)", activity, classroom, r.StartTime, r.EndTime)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
