package dto

// ── 学期模块 DTO ──

// CreateTermRequest 创建学期请求（新建学期默认未激活）
type CreateTermRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	StartDate string `json:"start_date" binding:"required"` // "2025-09-01"
	EndDate   string `json:"end_date"   binding:"required"` // "2026-01-20"
}

// UpdateTermRequest 更新学期请求
type UpdateTermRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  *bool   `json:"is_active"`
}

// TermListRequest 学期列表查询参数
type TermListRequest struct {
	Search string `form:"search" binding:"omitempty,max=100"`
}

// TermResponse 学期信息响应
type TermResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
