package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

// badRequest 请求体绑定失败
func badRequest(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

// handleCommonError 处理跨模块的通用错误，已处理返回 true
func handleCommonError(c *gin.Context, err error) bool {
	var verr *service.ValidationError
	var cerr *service.ConflictError

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", verr.Error())
	case errors.As(err, &cerr):
		response.ConflictWithData(c, 15002, "该时间段与已有预约冲突", dto.ConflictResponse{ConflictingIDs: cerr.IDs()})
	case errors.Is(err, booking.ErrInvalidTransition):
		response.Conflict(c, 15003, "当前状态不允许该操作")
	case errors.Is(err, service.ErrReservationStale):
		response.Conflict(c, 15004, "预约已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 15001, "预约不存在")
	case errors.Is(err, service.ErrModificationNotFound):
		response.NotFound(c, 15005, "未找到对应的修改申请")
	case errors.Is(err, service.ErrClassroomNotFound):
		response.NotFound(c, 16001, "教室不存在")
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 14001, "学期不存在")
	case errors.Is(err, service.ErrNoActiveTerm):
		response.NotFound(c, 14004, "当前没有激活的学期")
	default:
		return false
	}
	return true
}
