package controller

import (
	"net/http"
	"shikkha_backend/internal/middleware"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/service"
	"shikkha_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService  *service.ExamService
	DraftService *service.DraftService
}

func NewExamController(examService *service.ExamService, draftService *service.DraftService) *ExamController {
	return &ExamController{ExamService: examService, DraftService: draftService}
}

func pageParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	return page, limit
}

// @Summary 创建试卷
// @Description 校验题目并计算总分与及格分，新试卷默认未发布
// @Tags 试卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exam body service.CreateExamRequest true "试卷信息"
// @Success 201 {object} util.Response{data=model.Exam}
// @Failure 400 {object} util.Response
// @Router /api/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req service.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	// token 中的身份优先于请求体
	if user := util.GetUserFromContext(ctx); user != nil {
		req.TeacherID = user.UserID
		if user.Email != "" {
			req.TeacherEmail = user.Email
		}
	}

	exam, err := c.ExamService.CreateExam(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Created(ctx, exam)
}

// @Summary 试卷列表
// @Tags 试卷
// @Produce json
// @Param teacherId query string false "教师ID"
// @Param subject query string false "科目"
// @Param classLevel query string false "班级"
// @Param examType query string false "考试类型"
// @Param published query bool false "是否已发布"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	filter := repository.ExamFilter{
		TeacherID:  ctx.Query("teacherId"),
		Subject:    ctx.Query("subject"),
		ClassLevel: ctx.Query("classLevel"),
		ExamType:   ctx.Query("examType"),
		Page:       page,
		Limit:      limit,
	}
	if v := ctx.Query("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			util.BadRequest(ctx, "invalid published flag")
			return
		}
		filter.Published = &published
	}
	// 学生只能看到已发布的试卷
	if user := util.GetUserFromContext(ctx); user != nil && user.Role == model.Student {
		published := true
		filter.Published = &published
	}

	exams, total, err := c.ExamService.ListExams(ctx.Request.Context(), filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: exams, Total: total, Page: page, Limit: limit})
}

// @Summary 获取试卷详情（含答案）
// @Tags 试卷
// @Produce json
// @Param id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/exams/{id} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	exam, err := c.ExamService.GetExam(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, exam)
}

// @Summary 获取学生作答用试卷
// @Description 不包含正确答案与解析
// @Tags 试卷
// @Produce json
// @Param id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.Paper}
// @Failure 404 {object} util.Response
// @Router /api/exams/{id}/paper [get]
func (c *ExamController) GetPaper(ctx *gin.Context) {
	paper, err := c.ExamService.GetPaper(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, paper)
}

// @Summary 发布试卷
// @Tags 试卷
// @Produce json
// @Security BearerAuth
// @Param id path string true "试卷ID"
// @Success 200 {object} util.Response{data=model.Exam}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/exams/{id}/publish [post]
func (c *ExamController) PublishExam(ctx *gin.Context) {
	exam, err := c.ExamService.PublishExam(ctx.Request.Context(), ctx.Param("id"), middleware.ActorID(ctx, ""))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, exam)
}

type startAttemptRequest struct {
	StudentID string `json:"studentId"`
}

// @Summary 开始作答
// @Description 记录服务端开始时间，重复调用返回首次时间
// @Tags 试卷
// @Accept json
// @Produce json
// @Param id path string true "试卷ID"
// @Param body body startAttemptRequest true "学生ID"
// @Success 200 {object} util.Response{data=service.AttemptInfo}
// @Router /api/exams/{id}/attempts [post]
func (c *ExamController) StartAttempt(ctx *gin.Context) {
	var req startAttemptRequest
	// 携带 token 时可以不传请求体
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	info, err := c.DraftService.StartAttempt(ctx.Request.Context(), ctx.Param("id"), studentID(ctx, req.StudentID))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, info)
}
