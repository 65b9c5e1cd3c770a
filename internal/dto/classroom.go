package dto

// ── 教室模块 DTO ──

// CreateClassroomRequest 创建教室请求
type CreateClassroomRequest struct {
	Name     string `json:"name"     binding:"required,max=100"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=500"`
}

// ClassroomListRequest 教室列表查询参数
type ClassroomListRequest struct {
	PaginationRequest
	Name string `form:"name" binding:"omitempty,max=100"`
	Sort string `form:"sort" binding:"omitempty,oneof=name rating_desc rating_asc"`
}

// ClassroomResponse 教室信息响应
type ClassroomResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Capacity      int      `json:"capacity"`
	AverageRating *float64 `json:"average_rating"` // 无评价时为 null
	FeedbackCount int64    `json:"feedback_count"`
	CreatedAt     string   `json:"created_at"`
}

// ClassroomDetailResponse 教室详情（含评价，最新在前）
type ClassroomDetailResponse struct {
	ClassroomResponse
	Feedbacks []FeedbackResponse `json:"feedbacks"`
}
