package model

import "time"

// AcademicTerm 学期表，对应 academic_terms
// 同一时刻至多一个 is_active = true（部分唯一索引兜底）
type AcademicTerm struct {
	TermID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"term_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsActive  bool      `gorm:"not null;default:false"                         json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (AcademicTerm) TableName() string { return "academic_terms" }
