package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	pkgerrors "classroom-reservation/pkg/errors"
)

// ── 教室模块业务错误 ──

var (
	ErrClassroomNotFound  = errors.New("教室不存在")
	ErrClassroomNameTaken = errors.New("教室名称已存在")
)

const (
	minClassroomCapacity     = 1
	maxClassroomCapacity     = 500
	maxClassroomNameLength   = 100
	defaultClassroomPageSize = 10
)

// ClassroomService 教室业务接口
type ClassroomService interface {
	Create(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error)
	// List 分页列表，req.PageSize 为 0 时按默认值填充
	List(ctx context.Context, req *dto.ClassroomListRequest) ([]dto.ClassroomResponse, int64, error)
	// Details 教室详情与评价（最新在前）
	Details(ctx context.Context, id string) (*dto.ClassroomDetailResponse, error)
}

type classroomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例
func NewClassroomService(repo *repository.Repository, logger *zap.Logger) ClassroomService {
	return &classroomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classroomService) Create(ctx context.Context, req *dto.CreateClassroomRequest, callerID string) (*dto.ClassroomResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "教室名称不能为空")
	}
	if utf8.RuneCountInString(name) > maxClassroomNameLength {
		return nil, invalid("name", "教室名称不能超过 100 个字符")
	}
	if req.Capacity < minClassroomCapacity || req.Capacity > maxClassroomCapacity {
		return nil, invalid("capacity", "容量必须在 1-500 之间")
	}

	// 名称大小写不敏感唯一，唯一索引兜底并发
	if _, err := s.repo.Classroom.GetByName(ctx, name); err == nil {
		return nil, ErrClassroomNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询教室失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	classroom := &model.Classroom{Name: name, Capacity: req.Capacity}
	classroom.Stamp(callerID)

	if err := s.repo.Classroom.Create(ctx, classroom); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrClassroomNameTaken
		}
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}

	resp := toClassroomResponse(&repository.ClassroomStat{Classroom: *classroom})
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *classroomService) List(ctx context.Context, req *dto.ClassroomListRequest) ([]dto.ClassroomResponse, int64, error) {
	if req.PageSize <= 0 {
		req.PageSize = defaultClassroomPageSize
	}

	stats, total, err := s.repo.Classroom.List(ctx, repository.ClassroomFilter{
		Name:   strings.TrimSpace(req.Name),
		Sort:   repository.ClassroomSort(req.Sort),
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ClassroomResponse, 0, len(stats))
	for i := range stats {
		result = append(result, toClassroomResponse(&stats[i]))
	}
	return result, total, nil
}

// ────────────────────── Details ──────────────────────

func (s *classroomService) Details(ctx context.Context, id string) (*dto.ClassroomDetailResponse, error) {
	stat, err := s.repo.Classroom.GetStat(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	feedbacks, err := s.repo.Feedback.ListByClassroom(ctx, id)
	if err != nil {
		s.logger.Error("查询教室评价失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := &dto.ClassroomDetailResponse{
		ClassroomResponse: toClassroomResponse(stat),
		Feedbacks:         make([]dto.FeedbackResponse, 0, len(feedbacks)),
	}
	for i := range feedbacks {
		resp.Feedbacks = append(resp.Feedbacks, toFeedbackResponse(&feedbacks[i]))
	}
	return resp, nil
}

func toClassroomResponse(stat *repository.ClassroomStat) dto.ClassroomResponse {
	return dto.ClassroomResponse{
		ID:            stat.ClassroomID,
		Name:          stat.Name,
		Capacity:      stat.Capacity,
		AverageRating: stat.AverageRating,
		FeedbackCount: stat.FeedbackCount,
		CreatedAt:     stat.CreatedAt.UTC().Format(timestampLayout),
	}
}
