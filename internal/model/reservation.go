package model

import (
	"time"

	"classroom-reservation/internal/booking"
)

// Reservation 预约表，对应 reservations
//
// 每周 DayOfWeek（0=周日 … 6=周六）在 [TermStart, TermEnd] 内重复。
// 修改申请会生成一条 ModificationPending 的影子预约，
// 其 RelatedReservationID 指向原预约（弱引用，原预约删除时置 NULL）。
type Reservation struct {
	ReservationID        string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	InstructorID         string            `gorm:"type:uuid;not null;index"                       json:"instructor_id"`
	ClassroomID          string            `gorm:"type:uuid;not null"                             json:"classroom_id"`
	TermStart            time.Time         `gorm:"type:date;not null"                             json:"term_start"`
	TermEnd              time.Time         `gorm:"type:date;not null"                             json:"term_end"`
	DayOfWeek            int               `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime            booking.TimeOfDay `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime              booking.TimeOfDay `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Activity             string            `gorm:"type:varchar(100);not null"                     json:"activity"`
	Status               booking.Status    `gorm:"type:varchar(30);not null"                      json:"status"`
	RelatedReservationID *string           `gorm:"type:uuid"                                      json:"related_reservation_id,omitempty"`
	VersionedModel

	// 关联
	Classroom  *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
	Instructor *User      `gorm:"foreignKey:InstructorID;references:UserID"     json:"instructor,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// Slot 转为冲突判定快照
func (r *Reservation) Slot() booking.Slot {
	return booking.Slot{
		ID:          r.ReservationID,
		ClassroomID: r.ClassroomID,
		Weekday:     time.Weekday(r.DayOfWeek),
		TermStart:   r.TermStart,
		TermEnd:     r.TermEnd,
		Start:       r.StartTime,
		End:         r.EndTime,
		Status:      r.Status,
	}
}

// IsShadow 是否为修改申请生成的影子预约
func (r *Reservation) IsShadow() bool {
	return r.Status == booking.StatusModificationPending && r.RelatedReservationID != nil
}

// Slots 批量转换
func Slots(list []Reservation) []booking.Slot {
	out := make([]booking.Slot, 0, len(list))
	for i := range list {
		out = append(out, list[i].Slot())
	}
	return out
}
