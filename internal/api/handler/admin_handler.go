package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

// AdminHandler 管理员审批 HTTP 处理器
type AdminHandler struct {
	reservationSvc service.ReservationService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(reservationSvc service.ReservationService) *AdminHandler {
	return &AdminHandler{reservationSvc: reservationSvc}
}

// Queue 审批队列
// GET /api/v1/admin/reservations?status=&page=&page_size=
func (h *AdminHandler) Queue(c *gin.Context) {
	var req dto.AdminQueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.reservationSvc.AdminQueue(c.Request.Context(), &req)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Approve 通过预约
// POST /api/v1/admin/reservations/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	h.act(c, h.reservationSvc.Approve)
}

// Reject 驳回预约，原因可选
// POST /api/v1/admin/reservations/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	var req dto.RejectReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	h.act(c, func(ctx context.Context, actor service.Actor, id string) (*dto.ReservationResponse, error) {
		return h.reservationSvc.Reject(ctx, actor, id, req.Reason)
	})
}

// ApproveModification 通过修改申请，id 可为原预约或影子预约
// POST /api/v1/admin/reservations/:id/modification/approve
func (h *AdminHandler) ApproveModification(c *gin.Context) {
	h.settle(c, h.reservationSvc.ApproveModification)
}

// RejectModification 驳回修改申请
// POST /api/v1/admin/reservations/:id/modification/reject
func (h *AdminHandler) RejectModification(c *gin.Context) {
	h.settle(c, h.reservationSvc.RejectModification)
}

// ApproveCancellation 通过取消申请
// POST /api/v1/admin/reservations/:id/cancellation/approve
func (h *AdminHandler) ApproveCancellation(c *gin.Context) {
	h.act(c, h.reservationSvc.ApproveCancellation)
}

// RejectCancellation 驳回取消申请
// POST /api/v1/admin/reservations/:id/cancellation/reject
func (h *AdminHandler) RejectCancellation(c *gin.Context) {
	h.act(c, h.reservationSvc.RejectCancellation)
}

// ── 辅助 ──

type reservationAction func(ctx context.Context, actor service.Actor, id string) (*dto.ReservationResponse, error)

type modificationAction func(ctx context.Context, actor service.Actor, id string) (*dto.ModificationResponse, error)

func (h *AdminHandler) act(c *gin.Context, fn reservationAction) {
	id, ok := reservationPathID(c)
	if !ok {
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	r, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, r)
}

func (h *AdminHandler) settle(c *gin.Context, fn modificationAction) {
	id, ok := reservationPathID(c)
	if !ok {
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}
