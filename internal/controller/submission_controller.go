package controller

import (
	"bytes"
	"net/http"
	"shikkha_backend/internal/i18n"
	"shikkha_backend/internal/middleware"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/result"
	"shikkha_backend/internal/service"
	"shikkha_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
	ResultService     *service.ResultService
}

func NewSubmissionController(submissionService *service.SubmissionService, resultService *service.ResultService) *SubmissionController {
	return &SubmissionController{SubmissionService: submissionService, ResultService: resultService}
}

// studentID 学生 token 中的身份优先于请求参数
func studentID(ctx *gin.Context, fallback string) string {
	if user := util.GetUserFromContext(ctx); user != nil && user.Role == model.Student {
		return user.UserID
	}
	return fallback
}

// ownsSubmission 学生只能查看自己的提交
func ownsSubmission(ctx *gin.Context, owner string) bool {
	user := util.GetUserFromContext(ctx)
	return user == nil || user.Role != model.Student || user.UserID == owner
}

// @Summary 提交试卷
// @Description 服务端重新评分，客户端提交的分数一律忽略
// @Tags 提交
// @Accept json
// @Produce json
// @Param submission body service.SubmitExamRequest true "作答"
// @Success 201 {object} util.Response{data=model.ExamSubmission}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/exam-submissions [post]
func (c *SubmissionController) SubmitExam(ctx *gin.Context) {
	var req service.SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.StudentID = studentID(ctx, req.StudentID)

	sub, err := c.SubmissionService.SubmitExam(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err, http.StatusBadRequest)
		return
	}
	util.Created(ctx, sub)
}

// @Summary 提交列表
// @Tags 提交
// @Produce json
// @Param examId query string false "试卷ID"
// @Param studentId query string false "学生ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/exam-submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	filter := repository.SubmissionFilter{
		ExamID:    ctx.Query("examId"),
		StudentID: studentID(ctx, ctx.Query("studentId")),
		Page:      page,
		Limit:     limit,
	}
	subs, total, err := c.SubmissionService.ListSubmissions(ctx.Request.Context(), filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: subs, Total: total, Page: page, Limit: limit})
}

// @Summary 获取提交详情
// @Tags 提交
// @Produce json
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=model.ExamSubmission}
// @Failure 404 {object} util.Response
// @Router /api/exam-submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	sub, err := c.SubmissionService.GetSubmission(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	if !ownsSubmission(ctx, sub.StudentID) {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, sub)
}

// @Summary 获取成绩单
// @Description format=text 时按 Accept-Language 输出纯文本
// @Tags 提交
// @Produce json
// @Produce plain
// @Param id path string true "提交ID"
// @Param format query string false "json 或 text"
// @Param lang query string false "bn 或 en"
// @Success 200 {object} util.Response{data=result.Result}
// @Failure 404 {object} util.Response
// @Router /api/exam-submissions/{id}/result [get]
func (c *SubmissionController) GetResult(ctx *gin.Context) {
	res, err := c.ResultService.GetResult(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	if !ownsSubmission(ctx, res.StudentID) {
		util.Forbidden(ctx)
		return
	}

	if ctx.Query("format") == "text" {
		var buf bytes.Buffer
		if err := result.Render(&buf, res, i18n.FromContext(ctx.Request.Context())); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		ctx.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}
	util.Success(ctx, res)
}

// @Summary 人工评分
// @Description 仅适用于待人工评分的创意题，不修改提交记录
// @Tags 提交
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Param grades body service.GradeSubmissionRequest true "评分"
// @Success 200 {object} util.Response{data=[]model.ExamSubmissionGrade}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/exam-submissions/{id}/grades [post]
func (c *SubmissionController) GradeSubmission(ctx *gin.Context) {
	var req service.GradeSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	grades, err := c.SubmissionService.GradeSubmission(ctx.Request.Context(), ctx.Param("id"), middleware.ActorID(ctx, ctx.Query("graderId")), req)
	if err != nil {
		util.RespondError(ctx, err, http.StatusBadRequest)
		return
	}
	util.Success(ctx, grades)
}
