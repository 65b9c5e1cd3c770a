package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classroom-reservation/internal/model"
)

// ClassroomSort 教室列表排序方式
type ClassroomSort string

const (
	ClassroomSortName       ClassroomSort = "name"
	ClassroomSortRatingDesc ClassroomSort = "rating_desc"
	ClassroomSortRatingAsc  ClassroomSort = "rating_asc"
)

// ClassroomFilter 教室列表查询条件
type ClassroomFilter struct {
	Name   string
	Sort   ClassroomSort
	Offset int
	Limit  int
}

// ClassroomStat 教室及其评价汇总
type ClassroomStat struct {
	model.Classroom
	AverageRating *float64 `gorm:"column:average_rating"`
	FeedbackCount int64    `gorm:"column:feedback_count"`
}

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	GetByName(ctx context.Context, name string) (*model.Classroom, error)
	// LockByID 在当前事务中对教室行加 FOR UPDATE 锁，串行化同一教室的冲突检查
	LockByID(ctx context.Context, id string) (*model.Classroom, error)
	List(ctx context.Context, filter ClassroomFilter) ([]ClassroomStat, int64, error)
	GetStat(ctx context.Context, id string) (*ClassroomStat, error)
}

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) Create(ctx context.Context, classroom *model.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepo) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", id).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

// GetByName 大小写不敏感匹配
func (r *classroomRepo) GetByName(ctx context.Context, name string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", name).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) LockByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("classroom_id = ?", id).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) statQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("classrooms AS c").
		Select("c.*, AVG(f.rating)::float8 AS average_rating, COUNT(f.feedback_id) AS feedback_count").
		Joins("LEFT JOIN reservations AS r ON r.classroom_id = c.classroom_id").
		Joins("LEFT JOIN feedbacks AS f ON f.reservation_id = r.reservation_id").
		Group("c.classroom_id")
}

func (r *classroomRepo) List(ctx context.Context, filter ClassroomFilter) ([]ClassroomStat, int64, error) {
	var total int64
	countDB := r.db.WithContext(ctx).Model(&model.Classroom{})
	if filter.Name != "" {
		countDB = countDB.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db := r.statQuery(ctx)
	if filter.Name != "" {
		db = db.Where("c.name ILIKE ?", "%"+filter.Name+"%")
	}
	switch filter.Sort {
	case ClassroomSortRatingDesc:
		db = db.Order("average_rating DESC NULLS LAST").Order("c.name ASC")
	case ClassroomSortRatingAsc:
		db = db.Order("average_rating ASC NULLS LAST").Order("c.name ASC")
	default:
		db = db.Order("c.name ASC")
	}
	if filter.Limit > 0 {
		db = db.Offset(filter.Offset).Limit(filter.Limit)
	}

	var stats []ClassroomStat
	if err := db.Scan(&stats).Error; err != nil {
		return nil, 0, err
	}
	return stats, total, nil
}

func (r *classroomRepo) GetStat(ctx context.Context, id string) (*ClassroomStat, error) {
	var stats []ClassroomStat
	err := r.statQuery(ctx).
		Where("c.classroom_id = ?", id).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &stats[0], nil
}
