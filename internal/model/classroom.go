package model

// Classroom 教室表，对应 classrooms
// name 大小写不敏感唯一（lower(name) 唯一索引）
type Classroom struct {
	ClassroomID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Capacity    int    `gorm:"not null"                                       json:"capacity"`
	BaseModel
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }
