package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Warmer 节假日缓存预热
type Warmer interface {
	Warm(ctx context.Context) (int, error)
}

// HolidayWarmer 按 cron 表达式定期预热当前学期的节假日缓存
type HolidayWarmer struct {
	cron    *cron.Cron
	warmer  Warmer
	timeout time.Duration
	logger  *zap.Logger
}

// NewHolidayWarmer 创建预热任务，schedule 为标准 5 段 cron 表达式
func NewHolidayWarmer(schedule string, warmer Warmer, timeout time.Duration, logger *zap.Logger) (*HolidayWarmer, error) {
	w := &HolidayWarmer{
		cron:    cron.New(),
		warmer:  warmer,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := w.cron.AddFunc(schedule, w.Run); err != nil {
		return nil, err
	}
	return w, nil
}

// Start 启动调度（非阻塞）
func (w *HolidayWarmer) Start() {
	w.cron.Start()
	w.logger.Info("节假日预热任务已启动")
}

// Stop 停止调度并等待正在执行的任务结束
func (w *HolidayWarmer) Stop(ctx context.Context) {
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
		w.logger.Warn("等待节假日预热任务结束超时")
	}
}

// Run 执行一次预热，失败只记录日志
func (w *HolidayWarmer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	n, err := w.warmer.Warm(ctx)
	if err != nil {
		w.logger.Error("节假日预热失败", zap.Error(err))
		return
	}
	w.logger.Info("节假日预热完成", zap.Int("holidays", n), zap.Duration("elapsed", time.Since(start)))
}
