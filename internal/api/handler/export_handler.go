package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTerm 导出学期课表
// GET /api/v1/export/terms/:id
func (h *ExportHandler) ExportTerm(c *gin.Context) {
	id, ok := termPathID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTerm(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoReservations):
		response.NotFound(c, 18001, "该学期暂无已通过的预约")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
