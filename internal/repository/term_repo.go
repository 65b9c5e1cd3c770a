package repository

import (
	"context"

	"gorm.io/gorm"

	"classroom-reservation/internal/model"
)

// TermRepository 学期数据访问接口
type TermRepository interface {
	Create(ctx context.Context, term *model.AcademicTerm) error
	GetByID(ctx context.Context, id string) (*model.AcademicTerm, error)
	GetActive(ctx context.Context) (*model.AcademicTerm, error)
	List(ctx context.Context, search string) ([]model.AcademicTerm, error)
	Update(ctx context.Context, term *model.AcademicTerm) error
	Delete(ctx context.Context, id string) error
}

type termRepo struct {
	db *gorm.DB
}

// NewTermRepo 创建 TermRepository 实例
func NewTermRepo(db *gorm.DB) TermRepository {
	return &termRepo{db: db}
}

func (r *termRepo) Create(ctx context.Context, term *model.AcademicTerm) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepo) GetByID(ctx context.Context, id string) (*model.AcademicTerm, error) {
	var term model.AcademicTerm
	err := r.db.WithContext(ctx).
		Where("term_id = ?", id).
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepo) GetActive(ctx context.Context) (*model.AcademicTerm, error) {
	var term model.AcademicTerm
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// List 按开始日期倒序；search 非空时按名称模糊匹配
func (r *termRepo) List(ctx context.Context, search string) ([]model.AcademicTerm, error) {
	var terms []model.AcademicTerm
	db := r.db.WithContext(ctx)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}
	err := db.Order("start_date DESC").Find(&terms).Error
	return terms, err
}

func (r *termRepo) Update(ctx context.Context, term *model.AcademicTerm) error {
	return r.db.WithContext(ctx).Save(term).Error
}

// Delete 物理删除（预约保存的是学期日期副本，不受影响）
func (r *termRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("term_id = ?", id).
		Delete(&model.AcademicTerm{}).Error
}
