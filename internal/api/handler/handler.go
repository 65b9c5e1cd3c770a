package handler

import "classroom-reservation/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Term        *TermHandler
	Classroom   *ClassroomHandler
	Reservation *ReservationHandler
	Admin       *AdminHandler
	Feedback    *FeedbackHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Term:        NewTermHandler(svc.Term),
		Classroom:   NewClassroomHandler(svc.Classroom),
		Reservation: NewReservationHandler(svc.Reservation),
		Admin:       NewAdminHandler(svc.Reservation),
		Feedback:    NewFeedbackHandler(svc.Feedback),
		Export:      NewExportHandler(svc.Export),
	}
}
