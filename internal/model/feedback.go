package model

import "time"

// Feedback 课后评价表，对应 feedbacks（随预约级联删除）
type Feedback struct {
	FeedbackID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"feedback_id"`
	ReservationID string    `gorm:"type:uuid;not null;index"                       json:"reservation_id"`
	Rating        int       `gorm:"type:smallint;not null"                         json:"rating"`
	Comment       string    `gorm:"type:varchar(500);not null"                     json:"comment"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy     *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`

	// 关联
	Reservation *Reservation `gorm:"foreignKey:ReservationID;references:ReservationID" json:"reservation,omitempty"`
}

// TableName 指定表名
func (Feedback) TableName() string { return "feedbacks" }
