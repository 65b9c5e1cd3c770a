package dto

// ── 预约模块 DTO ──

// CreateReservationRequest 提交预约请求
// 学期日期取当前激活学期
type CreateReservationRequest struct {
	ClassroomID string `json:"classroom_id" binding:"required,uuid"`
	DayOfWeek   *int   `json:"day_of_week"  binding:"required,min=0,max=6"` // 0=周日 … 6=周六
	StartTime   string `json:"start_time"   binding:"required,hhmm"`
	EndTime     string `json:"end_time"     binding:"required,hhmm"`
	Activity    string `json:"activity"     binding:"omitempty,max=100"`
}

// ModifyReservationRequest 申请修改已通过的预约
// 未提供的字段沿用原预约
type ModifyReservationRequest struct {
	ClassroomID *string `json:"classroom_id" binding:"omitempty,uuid"`
	DayOfWeek   *int    `json:"day_of_week"  binding:"required,min=0,max=6"`
	StartTime   string  `json:"start_time"   binding:"required,hhmm"`
	EndTime     string  `json:"end_time"     binding:"required,hhmm"`
	Activity    *string `json:"activity"     binding:"omitempty,max=100"`
}

// RejectReservationRequest 驳回预约请求
type RejectReservationRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// AdminQueueRequest 审批队列查询参数
type AdminQueueRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty"`
}

// CalendarRequest 日历查询参数
type CalendarRequest struct {
	From string `form:"from"` // 默认当前学期开始
	To   string `form:"to"`   // 默认当前学期结束
}

// ReservationResponse 预约信息响应
type ReservationResponse struct {
	ID                   string `json:"id"`
	InstructorID         string `json:"instructor_id"`
	InstructorName       string `json:"instructor_name,omitempty"`
	ClassroomID          string `json:"classroom_id"`
	ClassroomName        string `json:"classroom_name,omitempty"`
	TermStart            string `json:"term_start"`
	TermEnd              string `json:"term_end"`
	DayOfWeek            int    `json:"day_of_week"`
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	Activity             string `json:"activity"`
	Status               string `json:"status"`
	RelatedReservationID string `json:"related_reservation_id,omitempty"`
	CreatedAt            string `json:"created_at"`

	// AllowedActions 当前状态下可执行的操作，前端据此渲染按钮（按角色自行过滤）
	AllowedActions []string `json:"allowed_actions"`
}

// SubmitReservationResponse 提交结果，附节假日提醒
type SubmitReservationResponse struct {
	Reservation    ReservationResponse `json:"reservation"`
	HolidayWarning []string            `json:"holiday_warning,omitempty"` // 与预约星期重合的节假日
}

// ModificationResponse 修改申请结果
// 原预约已被删除时 Original 为空
type ModificationResponse struct {
	Original *ReservationResponse `json:"original,omitempty"`
	Shadow   ReservationResponse  `json:"shadow"`
}

// QueueItemResponse 审批队列条目
type QueueItemResponse struct {
	ReservationResponse
	HasHoliday   bool     `json:"has_holiday"`
	HolidayDates []string `json:"holiday_dates,omitempty"`
}

// ConflictResponse 冲突详情
type ConflictResponse struct {
	ConflictingIDs []string `json:"conflicting_ids"`
}

// CalendarEvent 日历事件
type CalendarEvent struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Start         string `json:"start"` // "2025-09-01T09:00:00"，全天事件为日期
	End           string `json:"end,omitempty"`
	AllDay        bool   `json:"all_day"`
	Color         string `json:"color"`
	Status        string `json:"status,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
	IsHoliday     bool   `json:"is_holiday"`
	IsConflict    bool   `json:"is_conflict"`
}
