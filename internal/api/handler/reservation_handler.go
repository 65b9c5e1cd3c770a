package handler

import (
	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

// ReservationHandler 教师预约 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc}
}

// Submit 提交预约
// POST /api/v1/reservations
func (h *ReservationHandler) Submit(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 我的预约
// GET /api/v1/reservations/mine
func (h *ReservationHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.reservationSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Calendar 日历事件
// GET /api/v1/reservations/calendar?from=&to=
func (h *ReservationHandler) Calendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	events, err := h.reservationSvc.Calendar(c.Request.Context(), actor, &req)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, events)
}

// GetReservation 预约详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := reservationPathID(c)
	if !ok {
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	r, err := h.reservationSvc.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, r)
}

// RequestModification 申请修改已通过的预约
// POST /api/v1/reservations/:id/modification
func (h *ReservationHandler) RequestModification(c *gin.Context) {
	id, ok := reservationPathID(c)
	if !ok {
		return
	}

	var req dto.ModifyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.RequestModification(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.Created(c, result)
}

// RequestCancellation 申请取消已通过的预约
// POST /api/v1/reservations/:id/cancellation
func (h *ReservationHandler) RequestCancellation(c *gin.Context) {
	id, ok := reservationPathID(c)
	if !ok {
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	r, err := h.reservationSvc.RequestCancellation(c.Request.Context(), actor, id)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, r)
}

// handleReservationError 预约模块错误均为跨模块通用错误
func handleReservationError(c *gin.Context, err error) {
	if !handleCommonError(c, err) {
		response.InternalError(c)
	}
}
