package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"classroom-reservation/internal/booking"
	"classroom-reservation/internal/repository"
	"classroom-reservation/pkg/holiday"
	"classroom-reservation/pkg/metrics"
)

// HolidayCache 节假日缓存，由 Redis 客户端实现
type HolidayCache interface {
	GetHolidays(ctx context.Context, key string) ([]time.Time, bool, error)
	SetHolidays(ctx context.Context, key string, holidays []time.Time, ttl time.Duration) error
}

// HolidayService 节假日查询
//
// 数据源不可用时按"无节假日"处理，节假日只做提醒，不影响冲突判定。
type HolidayService interface {
	// HolidaysInRange 返回 [start, end] 内的节假日，永不返回错误
	HolidaysInRange(ctx context.Context, start, end time.Time) []time.Time
	// Warm 预热当前激活学期的节假日缓存，返回节假日数量
	Warm(ctx context.Context) (int, error)
}

// holidayFetchTimeout 共享拉取的超时上限，不随单个请求取消
const holidayFetchTimeout = 15 * time.Second

type holidayService struct {
	repo   *repository.Repository
	source holiday.Source
	cache  HolidayCache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewHolidayService 创建 HolidayService 实例，source 与 cache 均可为 nil
func NewHolidayService(
	repo *repository.Repository,
	source holiday.Source,
	cache HolidayCache,
	ttl time.Duration,
	logger *zap.Logger,
) HolidayService {
	return &holidayService{
		repo:   repo,
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ────────────────────── HolidaysInRange ──────────────────────

func (s *holidayService) HolidaysInRange(ctx context.Context, start, end time.Time) []time.Time {
	if s.source == nil {
		return []time.Time{}
	}
	start, end = booking.Date(start), booking.Date(end)
	key := booking.FormatDate(start) + ":" + booking.FormatDate(end)

	if s.cache != nil {
		cached, ok, err := s.cache.GetHolidays(ctx, key)
		if err != nil {
			s.logger.Warn("读取节假日缓存失败", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached
		}
	}

	// 同一区间的并发请求只拉取一次；拉取结果由所有等待者共享，不能绑定首个请求的 ctx
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), holidayFetchTimeout)
		defer cancel()
		holidays, err := s.source.HolidaysInRange(fetchCtx, start, end)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetHolidays(fetchCtx, key, holidays, s.ttl); err != nil {
				s.logger.Warn("写入节假日缓存失败", zap.String("key", key), zap.Error(err))
			}
		}
		return holidays, nil
	})
	if err != nil {
		metrics.HolidayFetchFailures.Inc()
		s.logger.Warn("获取节假日失败，按无节假日处理",
			zap.String("range", key),
			zap.Error(&ExternalServiceError{Service: "holiday", Err: err}),
		)
		return []time.Time{}
	}

	holidays := v.([]time.Time)
	if holidays == nil {
		holidays = []time.Time{}
	}
	return holidays
}

// ────────────────────── Warm ──────────────────────

func (s *holidayService) Warm(ctx context.Context) (int, error) {
	term, err := s.repo.Term.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("无激活学期，跳过节假日预热")
			return 0, nil
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return 0, err
	}

	holidays := s.HolidaysInRange(ctx, term.StartDate, term.EndDate)
	s.logger.Info("节假日缓存预热完成",
		zap.String("term", term.Name),
		zap.Int("holidays", len(holidays)),
	)
	return len(holidays), nil
}
