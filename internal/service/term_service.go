package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	pkgerrors "classroom-reservation/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrTermNotFound       = errors.New("学期不存在")
	ErrTermDateInvalid    = errors.New("学期结束日期必须晚于开始日期")
	ErrTermActiveConflict = errors.New("已有其他激活的学期，请先停用")
	ErrNoActiveTerm       = errors.New("当前没有激活的学期")
)

// TermService 学期业务接口
type TermService interface {
	Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TermResponse, error)
	GetActive(ctx context.Context) (*dto.TermResponse, error)
	List(ctx context.Context, req *dto.TermListRequest) ([]dto.TermResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error)
	Activate(ctx context.Context, id string, callerID string) (*dto.TermResponse, error)
	Delete(ctx context.Context, id string) error
}

type termService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTermService 创建 TermService 实例
func NewTermService(repo *repository.Repository, logger *zap.Logger) TermService {
	return &termService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *termService) Create(ctx context.Context, req *dto.CreateTermRequest, callerID string) (*dto.TermResponse, error) {
	startDate, endDate, err := parseTermDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	term := &model.AcademicTerm{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  false,
	}
	term.Stamp(callerID)

	if err := s.repo.Term.Create(ctx, term); err != nil {
		s.logger.Error("创建学期失败", zap.Error(err))
		return nil, err
	}

	return toTermResponse(term), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *termService) GetByID(ctx context.Context, id string) (*dto.TermResponse, error) {
	term, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return toTermResponse(term), nil
}

// ────────────────────── GetActive ──────────────────────

func (s *termService) GetActive(ctx context.Context) (*dto.TermResponse, error) {
	term, err := s.repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveTerm
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}
	return toTermResponse(term), nil
}

// ────────────────────── List ──────────────────────

func (s *termService) List(ctx context.Context, req *dto.TermListRequest) ([]dto.TermResponse, error) {
	terms, err := s.repo.Term.List(ctx, req.Search)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TermResponse, 0, len(terms))
	for i := range terms {
		result = append(result, *toTermResponse(&terms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *termService) Update(ctx context.Context, id string, req *dto.UpdateTermRequest, callerID string) (*dto.TermResponse, error) {
	var updated *model.AcademicTerm

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		term, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			term.Name = *req.Name
		}
		start, end := booking.FormatDate(term.StartDate), booking.FormatDate(term.EndDate)
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if term.StartDate, term.EndDate, err = parseTermDates(start, end); err != nil {
			return err
		}

		if req.IsActive != nil && *req.IsActive && !term.IsActive {
			if err := s.ensureNoOtherActive(ctx, tx, term.TermID); err != nil {
				return err
			}
		}
		if req.IsActive != nil {
			term.IsActive = *req.IsActive
		}

		term.Stamp(callerID)
		if err := tx.Term.Update(ctx, term); err != nil {
			return s.mapActiveViolation(err, "更新学期失败", id)
		}
		updated = term
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toTermResponse(updated), nil
}

// ────────────────────── Activate ──────────────────────

// Activate 激活学期。已有其他激活学期时拒绝，不会自动停用旧学期
func (s *termService) Activate(ctx context.Context, id string, callerID string) (*dto.TermResponse, error) {
	active := true
	return s.Update(ctx, id, &dto.UpdateTermRequest{IsActive: &active}, callerID)
}

// ────────────────────── Delete ──────────────────────

func (s *termService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, s.repo, id); err != nil {
		return err
	}

	if err := s.repo.Term.Delete(ctx, id); err != nil {
		s.logger.Error("删除学期失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *termService) load(ctx context.Context, repo *repository.Repository, id string) (*model.AcademicTerm, error) {
	term, err := repo.Term.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		s.logger.Error("查询学期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return term, nil
}

func (s *termService) ensureNoOtherActive(ctx context.Context, repo *repository.Repository, id string) error {
	active, err := repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return err
	}
	if active.TermID != id {
		return ErrTermActiveConflict
	}
	return nil
}

// mapActiveViolation 并发激活时由部分唯一索引兜底
func (s *termService) mapActiveViolation(err error, msg, id string) error {
	if pkgerrors.IsUniqueViolation(err) {
		return ErrTermActiveConflict
	}
	s.logger.Error(msg, zap.String("id", id), zap.Error(err))
	return err
}

func parseTermDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := booking.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("start_date", "日期格式应为 YYYY-MM-DD")
	}
	endDate, err := booking.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("end_date", "日期格式应为 YYYY-MM-DD")
	}
	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, ErrTermDateInvalid
	}
	return startDate, endDate, nil
}

func toTermResponse(term *model.AcademicTerm) *dto.TermResponse {
	return &dto.TermResponse{
		ID:        term.TermID,
		Name:      term.Name,
		StartDate: booking.FormatDate(term.StartDate),
		EndDate:   booking.FormatDate(term.EndDate),
		IsActive:  term.IsActive,
		CreatedAt: term.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt: term.UpdatedAt.UTC().Format(timestampLayout),
	}
}
