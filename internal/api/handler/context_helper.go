package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"classroom-reservation/internal/api/middleware"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextRole)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 组合 user_id 与 role
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	uid, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: uid, Role: role}, true
}

// tokenInfo 当前 Access Token 的 jti 与过期时间（登出用）
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.ContextTokenJTI)
	exp, _ := c.Get(middleware.ContextTokenExp)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// ── 路径参数 ──

type pathIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// MustGetPathID 读取并校验路径参数 :id。
// 主键均为 UUID，格式不合法的 id 不可能命中记录，按 NotFound 处理。
func MustGetPathID(c *gin.Context, code int, message string) (string, bool) {
	var p pathIDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.NotFound(c, code, message)
		return "", false
	}
	return p.ID, true
}

func termPathID(c *gin.Context) (string, bool) { return MustGetPathID(c, 14001, "学期不存在") }

func classroomPathID(c *gin.Context) (string, bool) { return MustGetPathID(c, 16001, "教室不存在") }

func reservationPathID(c *gin.Context) (string, bool) { return MustGetPathID(c, 15001, "预约不存在") }
