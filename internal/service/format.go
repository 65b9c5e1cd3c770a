package service

import (
	"fmt"
	"strings"
	"time"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
)

const timestampLayout = "2006-01-02T15:04:05Z"

var weekdayNames = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

func weekdayName(d int) string {
	if d < 0 || d >= len(weekdayNames) {
		return fmt.Sprintf("星期%d", d)
	}
	return weekdayNames[d]
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, booking.FormatDate(d))
	}
	return out
}

func joinDates(dates []time.Time) string {
	return strings.Join(formatDates(dates), ", ")
}

func toReservationResponse(r *model.Reservation) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:           r.ReservationID,
		InstructorID: r.InstructorID,
		ClassroomID:  r.ClassroomID,
		TermStart:    booking.FormatDate(r.TermStart),
		TermEnd:      booking.FormatDate(r.TermEnd),
		DayOfWeek:    r.DayOfWeek,
		StartTime:    r.StartTime.String(),
		EndTime:      r.EndTime.String(),
		Activity:     r.Activity,
		Status:       r.Status.String(),
		CreatedAt:    r.CreatedAt.UTC().Format(timestampLayout),
	}
	if r.RelatedReservationID != nil {
		resp.RelatedReservationID = *r.RelatedReservationID
	}
	resp.AllowedActions = make([]string, 0, 2)
	for _, a := range booking.AllowedActions(r.Status) {
		resp.AllowedActions = append(resp.AllowedActions, string(a))
	}
	if r.Classroom != nil {
		resp.ClassroomName = r.Classroom.Name
	}
	if r.Instructor != nil {
		resp.InstructorName = r.Instructor.Name
	}
	return resp
}

func toReservationResponsePtr(r *model.Reservation) *dto.ReservationResponse {
	resp := toReservationResponse(r)
	return &resp
}
