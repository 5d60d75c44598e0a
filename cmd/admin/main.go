// 管理命令：初始化账号、执行或回滚数据库迁移
//
//	admin adduser -email EMAIL -name NAME [-admin]
//	admin migrate [-down]
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"student-records/backend/config"
	"student-records/backend/internal/repository"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/database"
	"student-records/backend/pkg/jwt"
	applogger "student-records/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	repo := repository.NewRepository(db)
	cli := &commandLine{
		authSvc: service.NewAuthService(repo, jwt.NewManager(&cfg.Auth), nil, logger),
		migrate: func(down bool) error {
			if down {
				return database.RollbackMigrations(sqlDB, logger)
			}
			return database.RunMigrations(sqlDB, logger)
		},
		out: os.Stdout,
	}

	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		logger.Error("命令执行失败", zap.Error(err))
		os.Exit(1)
	}
}
