package dto

// ── 评价模块 DTO ──

// CreateFeedbackRequest 提交评价请求
type CreateFeedbackRequest struct {
	ReservationID string `json:"reservation_id" binding:"required,uuid"`
	Rating        int    `json:"rating"         binding:"required,min=1,max=5"`
	Comment       string `json:"comment"        binding:"required"`
}

// FeedbackResponse 评价信息响应
type FeedbackResponse struct {
	ID            string `json:"id"`
	ReservationID string `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	CreatedBy     string `json:"created_by,omitempty"`
	CreatedAt     string `json:"created_at"`
}
