// @title Shikkha Exam API
// @version 1.0
// @description বাংলা পরীক্ষা তৈরি, সময়সীমাবদ্ধ পরীক্ষা গ্রহণ, স্বয়ংক্রিয় মূল্যায়ন ও ফলাফল

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"shikkha_backend/internal/app"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/delivery"
	"shikkha_backend/internal/i18n"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/service"
	"shikkha_backend/pkg/database"
	"shikkha_backend/pkg/logger"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shikkha",
		Short:        "Bengali exam authoring, delivery and grading service",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "configs", "配置文件目录")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), seedCmd(), takeCmd())

	// 不带子命令时默认启动服务
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, dir, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// 启动时强制执行数据库迁移（即使是 release 模式）
			cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")

			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context(), filepath.Join(dir, "config.yaml"))
		},
	}
	cmd.Flags().Bool("migrate", false, "force schema migration in release mode")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger.InitLogger(cfg)
			defer logger.Log.Sync()

			db, err := database.InitDB(&cfg.Database, true)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
			logger.Log.Info("数据库迁移完成")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a published demo exam",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger.InitLogger(cfg)
			defer logger.Log.Sync()

			db, err := database.InitDB(&cfg.Database, true)
			if err != nil {
				return err
			}
			teacherID, _ := cmd.Flags().GetString("teacher")

			exams := service.NewExamService(
				repository.NewExamRepository(db),
				service.NewArchiveService(cfg),
				service.NewPolicyStore(cfg.Exam),
			)
			ctx := cmd.Context()
			exam, err := exams.CreateExam(ctx, service.DemoExamRequest(teacherID))
			if err != nil {
				return err
			}
			if _, err := exams.PublishExam(ctx, exam.ID, teacherID); err != nil {
				return err
			}
			logger.Log.Info("demo exam created", zap.String("exam_id", exam.ID), zap.Int("total_marks", exam.TotalMarks))
			fmt.Fprintln(cmd.OutOrStdout(), exam.ID)
			return nil
		},
	}
	cmd.Flags().String("teacher", "demo-teacher", "teacher id recorded on the exam")
	return cmd
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <exam-id>",
		Short: "Sit an exam in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			server, _ := f.GetString("server")
			student, _ := f.GetString("student")
			token, _ := f.GetString("token")
			lang, _ := f.GetString("lang")

			if err := i18n.Init("bn"); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := delivery.NewClient(server, token)
			session := delivery.NewSession(delivery.Options{
				StudentID: student,
				Loader:    client,
				Starter:   client,
				Submitter: client,
				Drafts:    client,
				Results:   client,
			})
			runner := &delivery.Runner{
				Session: session,
				In:      cmd.InOrStdin(),
				Out:     cmd.OutOrStdout(),
				Loc:     i18n.NewLocalizer(lang),
			}
			return runner.Run(ctx, args[0])
		},
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:8080", "exam server base URL")
	f.String("student", "", "student id")
	f.String("token", os.Getenv("SHIKKHA_TOKEN"), "bearer token")
	f.String("lang", "bn", "display language (bn, en)")
	return cmd
}
