package app

import (
	"shikkha_backend/docs"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/middleware"
	"shikkha_backend/internal/model"
	"shikkha_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		a.registerExamRoutes(api, c)
		a.registerDraftRoutes(api, c)
		a.registerSubmissionRoutes(api, c)
	}
}

func (a *App) registerExamRoutes(api *gin.RouterGroup, c *controllers) {
	exams := api.Group("/exams")
	{
		// 学生接口
		exams.GET("", c.exam.ListExams)
		exams.GET("/:id/paper", c.exam.GetPaper)
		exams.POST("/:id/attempts", middleware.RoleMiddleware(model.Student), c.exam.StartAttempt)

		// 教师接口，含正确答案
		teacher := exams.Group("")
		teacher.Use(middleware.RoleMiddleware(model.Teacher))
		{
			teacher.POST("", c.exam.CreateExam)
			teacher.GET("/:id", c.exam.GetExam)
			teacher.POST("/:id/publish", c.exam.PublishExam)
		}
	}
}

func (a *App) registerDraftRoutes(api *gin.RouterGroup, c *controllers) {
	drafts := api.Group("/exam-drafts")
	drafts.Use(middleware.RoleMiddleware(model.Student))
	{
		drafts.GET("/:examId", c.draft.GetDraft)
		drafts.PUT("/:examId", c.draft.SaveDraft)
		drafts.DELETE("/:examId", c.draft.DeleteDraft)
	}
}

func (a *App) registerSubmissionRoutes(api *gin.RouterGroup, c *controllers) {
	submissions := api.Group("/exam-submissions")
	{
		submissions.POST("", middleware.RoleMiddleware(model.Student), c.submission.SubmitExam)
		submissions.GET("", c.submission.ListSubmissions)
		submissions.GET("/:id", c.submission.GetSubmission)
		submissions.GET("/:id/result", c.submission.GetResult)
		submissions.POST("/:id/grades", middleware.RoleMiddleware(model.Teacher), c.submission.GradeSubmission)
	}
}
