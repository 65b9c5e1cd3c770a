package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classroom-reservation/internal/dto"
	"classroom-reservation/internal/model"
	"classroom-reservation/internal/repository"
	"classroom-reservation/internal/service"
	"classroom-reservation/pkg/database"
	"classroom-reservation/pkg/jwt"
)

// ────────────────────── migrate ──────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down N]",
	Short: "执行或回滚数据库迁移",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMigrate,
}

func runMigrate(_ *cobra.Command, args []string) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	switch args[0] {
	case "up":
		return database.RunMigrations(sqlDB, logger)
	case "down":
		steps := 1
		if len(args) == 2 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return fmt.Errorf("回滚步数必须为正整数: %q", args[1])
			}
		}
		return database.RollbackMigrations(sqlDB, steps, logger)
	default:
		return fmt.Errorf("未知迁移方向: %q（可选 up / down）", args[0])
	}
}

// ────────────────────── create-user ──────────────────────

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "创建管理员或教师账号",
		RunE:  runCreateUser,
	}
)

func init() {
	createUserCmd.Flags().StringVar(&userName, "name", "", "姓名")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "登录邮箱")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "登录密码（至少 8 位）")
	createUserCmd.Flags().StringVar(&userRole, "role", model.RoleInstructor, "角色: admin / instructor")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(_ *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	repo := repository.NewRepository(db)
	authSvc := service.NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, logger)

	user, err := authSvc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
		Role:     userRole,
	})
	if err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}

	logger.Info("用户已创建", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return nil
}
