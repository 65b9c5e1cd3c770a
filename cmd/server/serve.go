package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classroom-reservation/internal/api/handler"
	"classroom-reservation/internal/api/router"
	"classroom-reservation/internal/job"
	"classroom-reservation/internal/repository"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/database"
	"classroom-reservation/pkg/holiday"
	"classroom-reservation/pkg/jwt"
	"classroom-reservation/pkg/mailer"
	"classroom-reservation/pkg/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务（启动前自动执行数据库迁移）",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	// 1. 配置、日志、数据库
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 3. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与节假日缓存将不可用", zap.Error(err))
		rdb = nil
	}

	// 4. 外部协作方：节假日日历、邮件通知
	var holidaySource holiday.Source
	if cfg.Holiday.CalendarURL != "" {
		holidaySource = holiday.NewICSSource(cfg.Holiday.CalendarURL, cfg.Holiday.FetchTimeout)
	}
	sender := mailer.NewSMTPSender(cfg.Mail, logger)
	if !sender.Configured() {
		logger.Warn("SMTP 未配置，通知邮件只记录日志")
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	notifier := service.NewMailNotifier(repo, sender, logger)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, holidaySource, notifier, logger)
	h := handler.NewHandler(svc)

	// 6. 节假日缓存预热任务
	var warmer *job.HolidayWarmer
	if cfg.Holiday.WarmSchedule != "" && holidaySource != nil {
		warmer, err = job.NewHolidayWarmer(cfg.Holiday.WarmSchedule, svc.Holiday, cfg.Holiday.FetchTimeout, logger)
		if err != nil {
			return err
		}
		warmer.Start()
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Setup(cfg, h, jwtMgr, rdb, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("HTTP 服务器异常", zap.Error(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if warmer != nil {
		warmer.Stop(ctx)
	}

	// 等待在途通知发送完毕
	notifier.Wait()

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
	return serveErr
}
