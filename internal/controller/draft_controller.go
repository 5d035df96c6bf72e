package controller

import (
	"net/http"
	"shikkha_backend/internal/service"
	"shikkha_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DraftController struct {
	DraftService *service.DraftService
}

func NewDraftController(draftService *service.DraftService) *DraftController {
	return &DraftController{DraftService: draftService}
}

// @Summary 保存作答草稿
// @Tags 草稿
// @Accept json
// @Produce json
// @Param examId path string true "试卷ID"
// @Param studentId query string false "学生ID"
// @Param draft body service.SaveDraftRequest true "草稿"
// @Success 200 {object} util.Response{data=model.ExamDraft}
// @Router /api/exam-drafts/{examId} [put]
func (c *DraftController) SaveDraft(ctx *gin.Context) {
	var req service.SaveDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	draft, err := c.DraftService.SaveDraft(ctx.Request.Context(), ctx.Param("examId"), studentID(ctx, ctx.Query("studentId")), req)
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, draft)
}

// @Summary 获取作答草稿
// @Tags 草稿
// @Produce json
// @Param examId path string true "试卷ID"
// @Param studentId query string false "学生ID"
// @Success 200 {object} util.Response{data=model.ExamDraft}
// @Failure 404 {object} util.Response
// @Router /api/exam-drafts/{examId} [get]
func (c *DraftController) GetDraft(ctx *gin.Context) {
	draft, err := c.DraftService.GetDraft(ctx.Request.Context(), ctx.Param("examId"), studentID(ctx, ctx.Query("studentId")))
	if err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, draft)
}

// @Summary 删除作答草稿
// @Tags 草稿
// @Produce json
// @Param examId path string true "试卷ID"
// @Param studentId query string false "学生ID"
// @Success 200 {object} util.Response
// @Router /api/exam-drafts/{examId} [delete]
func (c *DraftController) DeleteDraft(ctx *gin.Context) {
	if err := c.DraftService.DeleteDraft(ctx.Request.Context(), ctx.Param("examId"), studentID(ctx, ctx.Query("studentId"))); err != nil {
		util.RespondError(ctx, err, http.StatusInternalServerError)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
