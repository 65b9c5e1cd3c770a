package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
)

var (
	admin       = Actor{UserID: "admin-1", Role: "admin"}
	teacherA    = Actor{UserID: "teacher-a", Role: "instructor"}
	teacherB    = Actor{UserID: "teacher-b", Role: "instructor"}
	errUpstream = errors.New("upstream 503")
)

func setupTestReservationService() (*reservationService, *testEnv) {
	env := newTestEnv()
	env.seedActiveTerm("2025-09-01", "2026-01-20")
	env.seedClassroom("room-a", "A101")
	env.seedClassroom("room-b", "B202")
	env.seedUser(teacherA.UserID, "instructor")
	env.seedUser(teacherB.UserID, "instructor")

	logger := zap.NewNop()
	holidays := NewHolidayService(env.repo, env.source, nil, time.Hour, logger)
	svc := NewReservationService(env.repo, holidays, env.notifier, logger).(*reservationService)
	svc.now = func() time.Time { return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC) }
	return svc, env
}

func weekday(d int) *int { return &d }

func submitReq(classroomID string, d int, start, end string) *dto.CreateReservationRequest {
	return &dto.CreateReservationRequest{
		ClassroomID: classroomID,
		DayOfWeek:   weekday(d),
		StartTime:   start,
		EndTime:     end,
		Activity:    "操作系统",
	}
}

// ────────────────────── Submit ──────────────────────

func TestSubmit_Success(t *testing.T) {
	svc, env := setupTestReservationService()

	resp, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 1, "09:00", "10:30"))
	if err != nil {
		t.Fatalf("提交预约失败: %v", err)
	}

	r := resp.Reservation
	if r.Status != "Pending" {
		t.Errorf("新预约应为 Pending，实际: %s", r.Status)
	}
	if r.TermStart != "2025-09-01" || r.TermEnd != "2026-01-20" {
		t.Errorf("学期日期应取自激活学期，实际: %s ~ %s", r.TermStart, r.TermEnd)
	}
	if r.InstructorID != teacherA.UserID {
		t.Errorf("教师 ID 错误: %s", r.InstructorID)
	}
	if r.ClassroomName != "A101" {
		t.Errorf("教室名称错误: %s", r.ClassroomName)
	}
	if len(resp.HolidayWarning) != 0 {
		t.Errorf("无节假日时不应有提醒: %v", resp.HolidayWarning)
	}
	if !slices.Equal(r.AllowedActions, []string{"approve", "reject"}) {
		t.Errorf("待审预约可执行操作错误: %v", r.AllowedActions)
	}
	if env.classrooms.locks != 1 {
		t.Errorf("提交前应锁定教室行一次，实际 %d", env.classrooms.locks)
	}
	if len(env.reservations.items) != 1 {
		t.Errorf("应写入 1 条预约，实际 %d", len(env.reservations.items))
	}
}

func TestSubmit_NoActiveTerm(t *testing.T) {
	svc, env := setupTestReservationService()
	env.terms.terms["term-active"].IsActive = false

	_, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 1, "09:00", "10:00"))
	if !errors.Is(err, ErrNoActiveTerm) {
		t.Errorf("期望 ErrNoActiveTerm，实际: %v", err)
	}
}

func TestSubmit_ClassroomNotFound(t *testing.T) {
	svc, _ := setupTestReservationService()

	_, err := svc.Submit(context.Background(), teacherA, submitReq("room-x", 1, "09:00", "10:00"))
	if !errors.Is(err, ErrClassroomNotFound) {
		t.Errorf("期望 ErrClassroomNotFound，实际: %v", err)
	}
}

func TestSubmit_Conflict(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-x", teacherB.UserID, "room-a", 3, "09:00", "10:00", booking.StatusApproved)

	_, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 3, "09:30", "10:30"))
	if !errors.Is(err, ErrReservationConflict) {
		t.Fatalf("期望 ErrReservationConflict，实际: %v", err)
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("错误应为 *ConflictError，实际: %T", err)
	}
	if ids := conflict.IDs(); len(ids) != 1 || ids[0] != "res-x" {
		t.Errorf("冲突预约 ID 错误: %v", ids)
	}
	if len(env.reservations.items) != 1 {
		t.Errorf("冲突时不应写入，实际 %d 条", len(env.reservations.items))
	}
}

func TestSubmit_PendingAlsoBlocks(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-x", teacherB.UserID, "room-a", 3, "09:00", "10:00", booking.StatusPending)

	_, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 3, "08:00", "09:01"))
	if !errors.Is(err, ErrReservationConflict) {
		t.Errorf("待审预约同样占用时间段，期望冲突，实际: %v", err)
	}
}

func TestSubmit_NoConflictCases(t *testing.T) {
	tests := []struct {
		name      string
		status    booking.Status
		classroom string
		day       int
		start     string
		end       string
	}{
		{"首尾相接", booking.StatusApproved, "room-a", 3, "10:00", "11:00"},
		{"提前结束", booking.StatusApproved, "room-a", 3, "08:00", "09:00"},
		{"不同星期", booking.StatusApproved, "room-a", 4, "09:00", "10:00"},
		{"不同教室", booking.StatusApproved, "room-b", 3, "09:00", "10:00"},
		{"已驳回", booking.StatusRejected, "room-a", 3, "09:00", "10:00"},
		{"待取消", booking.StatusCancellationRequested, "room-a", 3, "09:00", "10:00"},
		{"已取消", booking.StatusCancelled, "room-a", 3, "09:00", "10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := setupTestReservationService()
			env.seedReservation("res-x", teacherB.UserID, "room-a", 3, "09:00", "10:00", tt.status)

			if _, err := svc.Submit(context.Background(), teacherA, submitReq(tt.classroom, tt.day, tt.start, tt.end)); err != nil {
				t.Errorf("不应冲突，实际: %v", err)
			}
		})
	}
}

func TestSubmit_Validation(t *testing.T) {
	long := strings.Repeat("课", 101)
	tests := []struct {
		name string
		req  *dto.CreateReservationRequest
	}{
		{"缺少星期", &dto.CreateReservationRequest{ClassroomID: "room-a", StartTime: "09:00", EndTime: "10:00"}},
		{"星期越界", submitReq("room-a", 7, "09:00", "10:00")},
		{"时间格式错误", submitReq("room-a", 1, "9点", "10:00")},
		{"结束早于开始", submitReq("room-a", 1, "10:00", "09:00")},
		{"时长为零", submitReq("room-a", 1, "10:00", "10:00")},
		{"活动名称过长", &dto.CreateReservationRequest{ClassroomID: "room-a", DayOfWeek: weekday(1), StartTime: "09:00", EndTime: "10:00", Activity: long}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := setupTestReservationService()
			_, err := svc.Submit(context.Background(), teacherA, tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("期望 ErrValidation，实际: %v", err)
			}
			if len(env.reservations.items) != 0 {
				t.Error("校验失败时不应写入")
			}
		})
	}
}

func TestSubmit_HolidayWarning(t *testing.T) {
	svc, env := setupTestReservationService()
	env.source.holidays = []time.Time{day("2025-10-01"), day("2025-10-02")}

	// 2025-10-01 为周三
	resp, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 3, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("提交预约失败: %v", err)
	}
	if len(resp.HolidayWarning) != 1 || resp.HolidayWarning[0] != "2025-10-01" {
		t.Errorf("节假日提醒错误: %v", resp.HolidayWarning)
	}
	if dates := env.notifier.holidays[resp.Reservation.ID]; len(dates) != 1 {
		t.Errorf("应发送一次节假日提醒通知，实际: %v", dates)
	}
	if resp.Reservation.Status != "Pending" {
		t.Errorf("节假日不影响提交结果，实际: %s", resp.Reservation.Status)
	}
}

func TestSubmit_HolidaySourceDown(t *testing.T) {
	svc, env := setupTestReservationService()
	env.source.err = errUpstream

	resp, err := svc.Submit(context.Background(), teacherA, submitReq("room-a", 3, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("节假日数据源失败不应影响提交: %v", err)
	}
	if len(resp.HolidayWarning) != 0 {
		t.Errorf("数据源失败时按无节假日处理，实际: %v", resp.HolidayWarning)
	}
	if len(env.notifier.holidays) != 0 {
		t.Error("数据源失败时不应发送节假日通知")
	}
}

// ────────────────────── Approve / Reject ──────────────────────

func TestApprove_OnlyOnce(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)

	resp, err := svc.Approve(context.Background(), admin, "res-1")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if resp.Status != "Approved" {
		t.Errorf("期望 Approved，实际: %s", resp.Status)
	}
	if !slices.Equal(resp.AllowedActions, []string{"request_modification", "request_cancellation"}) {
		t.Errorf("已通过预约可执行操作错误: %v", resp.AllowedActions)
	}

	_, err = svc.Approve(context.Background(), admin, "res-1")
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("重复审批期望 ErrInvalidTransition，实际: %v", err)
	}
	if len(env.notifier.approvals) != 1 {
		t.Errorf("只应发送一次通过通知，实际 %d", len(env.notifier.approvals))
	}
	if env.reservations.items["res-1"].Version != 2 {
		t.Errorf("版本号应递增一次，实际 %d", env.reservations.items["res-1"].Version)
	}
}

func TestReject_WithReason(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)

	if _, err := svc.Reject(context.Background(), admin, "res-1", "教室维修"); err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	if env.status("res-1") != booking.StatusRejected {
		t.Errorf("期望 Rejected，实际: %s", env.status("res-1"))
	}
	if len(env.notifier.rejections) != 1 || env.notifier.rejections[0].Reason != "教室维修" {
		t.Errorf("驳回通知错误: %+v", env.notifier.rejections)
	}
}

func TestApprove_NotFound(t *testing.T) {
	svc, _ := setupTestReservationService()

	_, err := svc.Approve(context.Background(), admin, "res-none")
	if !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("期望 ErrReservationNotFound，实际: %v", err)
	}
}

func TestApprove_Stale(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)
	env.reservations.forceStale = true

	_, err := svc.Approve(context.Background(), admin, "res-1")
	if !errors.Is(err, ErrReservationStale) {
		t.Errorf("期望 ErrReservationStale，实际: %v", err)
	}
	if env.status("res-1") != booking.StatusPending {
		t.Error("乐观锁失败时状态不应变化")
	}
	if len(env.notifier.approvals) != 0 {
		t.Error("失败时不应发送通知")
	}
}

// ────────────────────── 归属校验 ──────────────────────

func TestOwnership_OtherInstructorSeesNotFound(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	if _, err := svc.GetByID(context.Background(), teacherB, "res-1"); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("他人预约应返回 ErrReservationNotFound，实际: %v", err)
	}
	if _, err := svc.RequestCancellation(context.Background(), teacherB, "res-1"); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("他人预约不能申请取消，实际: %v", err)
	}
	if env.status("res-1") != booking.StatusApproved {
		t.Error("状态不应变化")
	}

	if _, err := svc.GetByID(context.Background(), teacherA, "res-1"); err != nil {
		t.Errorf("本人应能查看: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin, "res-1"); err != nil {
		t.Errorf("管理员应能查看: %v", err)
	}
}

// ────────────────────── 修改申请 ──────────────────────

func modifyReq(d int, start, end string) *dto.ModifyReservationRequest {
	return &dto.ModifyReservationRequest{DayOfWeek: weekday(d), StartTime: start, EndTime: end}
}

func TestRequestModification_CreatesShadow(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	resp, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(4, "14:00", "15:00"))
	if err != nil {
		t.Fatalf("申请修改失败: %v", err)
	}

	if resp.Original == nil || resp.Original.Status != "ModificationRequested" {
		t.Errorf("原预约应为 ModificationRequested，实际: %+v", resp.Original)
	}
	shadow := resp.Shadow
	if shadow.Status != "ModificationPending" {
		t.Errorf("影子预约应为 ModificationPending，实际: %s", shadow.Status)
	}
	if shadow.RelatedReservationID != "res-1" {
		t.Errorf("影子预约应指向原预约，实际: %s", shadow.RelatedReservationID)
	}
	if shadow.DayOfWeek != 4 || shadow.StartTime != "14:00" || shadow.EndTime != "15:00" {
		t.Errorf("影子预约时间段错误: %+v", shadow)
	}
	if shadow.Activity != "数据结构" || shadow.ClassroomID != "room-a" {
		t.Errorf("未提供字段应沿用原预约: %+v", shadow)
	}
	if env.status("res-1") != booking.StatusModificationRequested {
		t.Errorf("存储中的原预约状态错误: %s", env.status("res-1"))
	}
}

func TestRequestModification_OverlapWithOwnOriginal(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	// 仅延长半小时，与原预约重叠但不算冲突
	if _, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(1, "09:00", "10:30")); err != nil {
		t.Errorf("与原预约重叠不应视为冲突: %v", err)
	}
}

func TestRequestModification_Conflict(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
	env.seedReservation("res-2", teacherB.UserID, "room-a", 2, "14:00", "16:00", booking.StatusApproved)

	_, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(2, "15:00", "17:00"))
	if !errors.Is(err, ErrReservationConflict) {
		t.Fatalf("期望 ErrReservationConflict，实际: %v", err)
	}
	if env.status("res-1") != booking.StatusApproved {
		t.Errorf("冲突时原预约应保持 Approved，实际: %s", env.status("res-1"))
	}
	if len(env.reservations.items) != 2 {
		t.Error("冲突时不应创建影子预约")
	}
}

func TestRequestModification_NotApproved(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)

	_, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(2, "09:00", "10:00"))
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("期望 ErrInvalidTransition，实际: %v", err)
	}
}

func requestModification(t *testing.T, svc *reservationService) string {
	t.Helper()
	resp, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(4, "14:00", "15:00"))
	if err != nil {
		t.Fatalf("申请修改失败: %v", err)
	}
	return resp.Shadow.ID
}

func TestApproveModification(t *testing.T) {
	for _, via := range []string{"original", "shadow"} {
		t.Run(via, func(t *testing.T) {
			svc, env := setupTestReservationService()
			env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
			shadowID := requestModification(t, svc)

			id := "res-1"
			if via == "shadow" {
				id = shadowID
			}
			resp, err := svc.ApproveModification(context.Background(), admin, id)
			if err != nil {
				t.Fatalf("通过修改申请失败: %v", err)
			}

			if env.status("res-1") != booking.StatusCancelled {
				t.Errorf("原预约应为 Cancelled，实际: %s", env.status("res-1"))
			}
			if env.status(shadowID) != booking.StatusApproved {
				t.Errorf("影子预约应为 Approved，实际: %s", env.status(shadowID))
			}
			if resp.Original == nil || resp.Original.Status != "Cancelled" || resp.Shadow.Status != "Approved" {
				t.Errorf("响应状态错误: %+v", resp)
			}
			if !slices.Equal(env.notifier.approvals, []string{shadowID}) {
				t.Errorf("应对影子预约发送通过通知，实际: %v", env.notifier.approvals)
			}
		})
	}
}

func TestRejectModification(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
	shadowID := requestModification(t, svc)

	if _, err := svc.RejectModification(context.Background(), admin, "res-1"); err != nil {
		t.Fatalf("驳回修改申请失败: %v", err)
	}

	if env.status("res-1") != booking.StatusApproved {
		t.Errorf("原预约应恢复 Approved，实际: %s", env.status("res-1"))
	}
	if env.status(shadowID) != booking.StatusRejected {
		t.Errorf("影子预约应为 Rejected，实际: %s", env.status(shadowID))
	}
	if len(env.notifier.rejections) != 1 || env.notifier.rejections[0].Reason != rejectModificationReason {
		t.Errorf("驳回通知错误: %+v", env.notifier.rejections)
	}

	// 再次处理同一申请
	if _, err := svc.RejectModification(context.Background(), admin, "res-1"); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("重复驳回期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestApproveModification_MissingShadow(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusModificationRequested)

	_, err := svc.ApproveModification(context.Background(), admin, "res-1")
	if !errors.Is(err, ErrModificationNotFound) {
		t.Errorf("期望 ErrModificationNotFound，实际: %v", err)
	}
}

func TestApproveModification_OrphanShadow(t *testing.T) {
	svc, env := setupTestReservationService()
	shadow := env.seedReservation("res-s", teacherA.UserID, "room-a", 2, "09:00", "10:00", booking.StatusModificationPending)
	gone := "res-deleted"
	env.reservations.items[shadow.ReservationID].RelatedReservationID = &gone

	resp, err := svc.ApproveModification(context.Background(), admin, "res-s")
	if err != nil {
		t.Fatalf("原预约已删除时应仅处理影子预约: %v", err)
	}
	if resp.Original != nil {
		t.Errorf("原预约不存在时响应中应为空: %+v", resp.Original)
	}
	if env.status("res-s") != booking.StatusApproved {
		t.Errorf("影子预约应为 Approved，实际: %s", env.status("res-s"))
	}
}

// ────────────────────── 取消申请 ──────────────────────

func TestCancellationFlow(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	if _, err := svc.RequestCancellation(context.Background(), teacherA, "res-1"); err != nil {
		t.Fatalf("申请取消失败: %v", err)
	}
	if env.status("res-1") != booking.StatusCancellationRequested {
		t.Errorf("期望 CancellationRequested，实际: %s", env.status("res-1"))
	}

	if _, err := svc.ApproveCancellation(context.Background(), admin, "res-1"); err != nil {
		t.Fatalf("通过取消申请失败: %v", err)
	}
	if env.status("res-1") != booking.StatusCancelled {
		t.Errorf("期望 Cancelled，实际: %s", env.status("res-1"))
	}

	if _, err := svc.RequestCancellation(context.Background(), teacherA, "res-1"); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("已取消的预约不能再次申请取消，实际: %v", err)
	}
}

func TestRejectCancellation_SlotFree(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusCancellationRequested)

	resp, err := svc.RejectCancellation(context.Background(), admin, "res-1")
	if err != nil {
		t.Fatalf("驳回取消申请失败: %v", err)
	}
	if resp.Status != "Approved" {
		t.Errorf("期望恢复 Approved，实际: %s", resp.Status)
	}
}

func TestRejectCancellation_SlotTaken(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	if _, err := svc.RequestCancellation(context.Background(), teacherA, "res-1"); err != nil {
		t.Fatalf("申请取消失败: %v", err)
	}
	// 待取消的预约不占用时间段，其他教师可以提交
	submitted, err := svc.Submit(context.Background(), teacherB, submitReq("room-a", 1, "09:30", "10:30"))
	if err != nil {
		t.Fatalf("待取消时段应可被预约: %v", err)
	}

	_, err = svc.RejectCancellation(context.Background(), admin, "res-1")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("时间段已被占用，期望 *ConflictError，实际: %v", err)
	}
	if ids := conflict.IDs(); len(ids) != 1 || ids[0] != submitted.Reservation.ID {
		t.Errorf("冲突预约 ID 错误: %v", ids)
	}
	if env.status("res-1") != booking.StatusCancellationRequested {
		t.Errorf("冲突时状态应保持不变，实际: %s", env.status("res-1"))
	}
}

// ────────────────────── AdminQueue ──────────────────────

func TestAdminQueue_Ordering(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusRejected)
	env.seedReservation("res-2", teacherA.UserID, "room-a", 1, "10:00", "11:00", booking.StatusApproved)
	env.seedReservation("res-3", teacherA.UserID, "room-a", 1, "11:00", "12:00", booking.StatusCancellationRequested)
	env.seedReservation("res-4", teacherA.UserID, "room-a", 1, "12:00", "13:00", booking.StatusModificationRequested)
	env.seedReservation("res-5", teacherA.UserID, "room-a", 1, "13:00", "14:00", booking.StatusPending)
	env.seedReservation("res-6", teacherA.UserID, "room-a", 1, "14:00", "15:00", booking.StatusPending)
	env.seedReservation("res-7", teacherA.UserID, "room-a", 1, "15:00", "16:00", booking.StatusCancelled)
	// res-6 学期更早，同级排在前面
	env.reservations.items["res-6"].TermStart = day("2025-02-17")
	env.reservations.items["res-6"].TermEnd = day("2025-06-30")

	items, total, err := svc.AdminQueue(context.Background(), &dto.AdminQueueRequest{})
	if err != nil {
		t.Fatalf("查询审批队列失败: %v", err)
	}
	if total != 6 {
		t.Errorf("已取消的预约不应出现在队列中，总数期望 6，实际 %d", total)
	}

	want := []string{"res-6", "res-5", "res-4", "res-3", "res-2", "res-1"}
	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.ID)
	}
	if !slices.Equal(got, want) {
		t.Errorf("队列顺序错误\n期望: %v\n实际: %v", want, got)
	}
}

func TestAdminQueue_StatusFilterAndHolidays(t *testing.T) {
	svc, env := setupTestReservationService()
	env.source.holidays = []time.Time{day("2025-10-01")}
	env.seedReservation("res-1", teacherA.UserID, "room-a", 3, "09:00", "10:00", booking.StatusPending)
	env.seedReservation("res-2", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)
	env.seedReservation("res-3", teacherA.UserID, "room-a", 3, "11:00", "12:00", booking.StatusApproved)

	items, total, err := svc.AdminQueue(context.Background(), &dto.AdminQueueRequest{Status: "Pending"})
	if err != nil {
		t.Fatalf("查询审批队列失败: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("按状态过滤后期望 2 条，实际 %d", total)
	}

	flags := map[string]bool{}
	for _, item := range items {
		flags[item.ID] = item.HasHoliday
		if item.ID == "res-1" && (len(item.HolidayDates) != 1 || item.HolidayDates[0] != "2025-10-01") {
			t.Errorf("节假日日期错误: %v", item.HolidayDates)
		}
	}
	if !flags["res-1"] || flags["res-2"] {
		t.Errorf("节假日标记错误: %v", flags)
	}
	if env.source.calls != 1 {
		t.Errorf("每页只应查询一次节假日，实际 %d 次", env.source.calls)
	}
}

func TestAdminQueue_Pagination(t *testing.T) {
	svc, env := setupTestReservationService()
	for i, id := range []string{"res-1", "res-2", "res-3"} {
		start := []string{"08:00", "09:00", "10:00"}[i]
		end := []string{"09:00", "10:00", "11:00"}[i]
		env.seedReservation(id, teacherA.UserID, "room-a", 1, start, end, booking.StatusPending)
	}

	req := &dto.AdminQueueRequest{PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2}}
	items, total, err := svc.AdminQueue(context.Background(), req)
	if err != nil {
		t.Fatalf("查询审批队列失败: %v", err)
	}
	if total != 3 || len(items) != 1 || items[0].ID != "res-3" {
		t.Errorf("分页结果错误: total=%d items=%+v", total, items)
	}
}

func TestAdminQueue_InvalidStatus(t *testing.T) {
	svc, _ := setupTestReservationService()

	_, _, err := svc.AdminQueue(context.Background(), &dto.AdminQueueRequest{Status: "Archived"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
}

// ────────────────────── ListMine ──────────────────────

func TestListMine_HidesWorkflowStatuses(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusPending)
	env.seedReservation("res-2", teacherA.UserID, "room-a", 2, "09:00", "10:00", booking.StatusApproved)
	env.seedReservation("res-3", teacherA.UserID, "room-a", 3, "09:00", "10:00", booking.StatusRejected)
	env.seedReservation("res-4", teacherA.UserID, "room-a", 4, "09:00", "10:00", booking.StatusModificationRequested)
	env.seedReservation("res-5", teacherA.UserID, "room-a", 4, "11:00", "12:00", booking.StatusModificationPending)
	env.seedReservation("res-6", teacherA.UserID, "room-a", 5, "09:00", "10:00", booking.StatusCancellationRequested)
	env.seedReservation("res-7", teacherA.UserID, "room-a", 5, "11:00", "12:00", booking.StatusCancelled)
	env.seedReservation("res-8", teacherB.UserID, "room-a", 6, "09:00", "10:00", booking.StatusApproved)

	list, err := svc.ListMine(context.Background(), teacherA)
	if err != nil {
		t.Fatalf("查询我的预约失败: %v", err)
	}

	got := make([]string, 0, len(list))
	for _, r := range list {
		got = append(got, r.ID)
	}
	slices.Sort(got)
	want := []string{"res-1", "res-2", "res-3", "res-4"}
	if !slices.Equal(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

// ────────────────────── Calendar ──────────────────────

func TestCalendar_VisibilityAndColors(t *testing.T) {
	svc, env := setupTestReservationService()
	env.source.holidays = []time.Time{day("2025-09-10")} // 周三
	env.seedReservation("res-1", teacherB.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
	env.seedReservation("res-2", teacherA.UserID, "room-b", 2, "09:00", "10:00", booking.StatusPending)
	env.seedReservation("res-3", teacherB.UserID, "room-b", 2, "11:00", "12:00", booking.StatusPending)
	env.seedReservation("res-4", teacherA.UserID, "room-a", 3, "09:00", "10:00", booking.StatusApproved)
	env.seedReservation("res-5", teacherA.UserID, "room-a", 4, "09:00", "10:00", booking.StatusRejected)

	events, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{From: "2025-09-01", To: "2025-09-14"})
	if err != nil {
		t.Fatalf("查询日历失败: %v", err)
	}

	byReservation := map[string][]dto.CalendarEvent{}
	var holidayEvents []dto.CalendarEvent
	for _, e := range events {
		if e.ReservationID == "" {
			holidayEvents = append(holidayEvents, e)
			continue
		}
		byReservation[e.ReservationID] = append(byReservation[e.ReservationID], e)
	}

	if _, ok := byReservation["res-3"]; ok {
		t.Error("他人的待审预约不应可见")
	}
	if _, ok := byReservation["res-5"]; ok {
		t.Error("已驳回的预约不应出现在日历中")
	}

	if evs := byReservation["res-1"]; len(evs) != 2 || evs[0].Color != colorApproved {
		t.Errorf("他人已通过预约应展开为 2 个绿色事件，实际: %+v", evs)
	} else if evs[0].Start != "2025-09-01T09:00:00" || evs[0].End != "2025-09-01T10:00:00" {
		t.Errorf("事件时间错误: %s ~ %s", evs[0].Start, evs[0].End)
	}
	if evs := byReservation["res-2"]; len(evs) != 2 || evs[0].Color != colorPending {
		t.Errorf("本人待审预约应为黄色，实际: %+v", evs)
	}

	evs := byReservation["res-4"]
	if len(evs) != 2 {
		t.Fatalf("res-4 期望 2 个事件，实际 %d", len(evs))
	}
	if evs[0].IsHoliday || evs[0].Color != colorApproved {
		t.Errorf("09-03 不是节假日: %+v", evs[0])
	}
	if !evs[1].IsHoliday || evs[1].Color != colorHoliday {
		t.Errorf("09-10 为节假日，应标红: %+v", evs[1])
	}

	if len(holidayEvents) != 1 || !holidayEvents[0].AllDay || holidayEvents[0].Start != "2025-09-10" {
		t.Errorf("应附带 1 个全天节假日事件，实际: %+v", holidayEvents)
	}
}

func TestCalendar_ConflictColor(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherB.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
	env.seedReservation("res-2", teacherA.UserID, "room-a", 1, "09:30", "10:30", booking.StatusPending)

	events, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{From: "2025-09-01", To: "2025-09-07"})
	if err != nil {
		t.Fatalf("查询日历失败: %v", err)
	}
	for _, e := range events {
		if !e.IsConflict || e.Color != colorConflict {
			t.Errorf("重叠预约应标记冲突: %+v", e)
		}
	}
}

func TestCalendar_ShadowNotConflictWithOriginal(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)
	if _, err := svc.RequestModification(context.Background(), teacherA, "res-1", modifyReq(1, "09:00", "10:30")); err != nil {
		t.Fatalf("申请修改失败: %v", err)
	}

	events, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{From: "2025-09-01", To: "2025-09-07"})
	if err != nil {
		t.Fatalf("查询日历失败: %v", err)
	}
	for _, e := range events {
		if e.IsConflict {
			t.Errorf("影子预约与原预约不应互相冲突: %+v", e)
		}
		if e.Status == "ModificationPending" && e.Color != colorModificationPending {
			t.Errorf("修改待审颜色错误: %s", e.Color)
		}
	}
}

func TestCalendar_DefaultRangeAndValidation(t *testing.T) {
	svc, env := setupTestReservationService()
	env.seedReservation("res-1", teacherA.UserID, "room-a", 1, "09:00", "10:00", booking.StatusApproved)

	// 默认区间：当前时间前 1 个月至后 2 个月（2025-08-10 ~ 2025-11-10），与学期交集内的周一
	events, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{})
	if err != nil {
		t.Fatalf("查询日历失败: %v", err)
	}
	if len(events) != 11 {
		t.Errorf("期望 11 个事件（09-01 ~ 11-10 的周一），实际 %d", len(events))
	}

	if _, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{From: "2025/09/01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("日期格式错误应返回 ErrValidation，实际: %v", err)
	}
	if _, err := svc.Calendar(context.Background(), teacherA, &dto.CalendarRequest{From: "2025-09-10", To: "2025-09-01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("结束早于开始应返回 ErrValidation，实际: %v", err)
	}
}
