package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/delivery"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/service"
	"shikkha_backend/internal/util"
	"shikkha_backend/pkg/database"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: gin.TestMode},
		JWT:       config.JWTConfig{Enabled: false, Secret: testSecret, ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Redis:     config.RedisConfig{DraftTTL: time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 100000, WindowMinutes: 1},
		Exam:      config.DefaultExamPolicy(),
		I18n:      config.I18nConfig{DefaultLanguage: "bn"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenSQLiteMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	a := New(cfg, db, rdb)
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return a, srv
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode %s: %v", env.Data, err)
	}
	return v
}

func TestCreateExamEndpoint(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	code, env := call(t, srv, http.MethodPost, "/api/exams", "", service.CreateExamRequest{TeacherID: "t-1"})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("empty questions: %d %+v", code, env)
	}

	code, env = call(t, srv, http.MethodPost, "/api/exams", "", service.DemoExamRequest("t-1"))
	if code != http.StatusCreated {
		t.Fatalf("create: %d %+v", code, env)
	}
	exam := decode[model.Exam](t, env)
	if exam.TotalMarks != 13 || exam.IsPublished {
		t.Fatalf("exam = %+v", exam)
	}

	code, env = call(t, srv, http.MethodGet, "/api/exams/missing", "", nil)
	if code != http.StatusNotFound || env.Message != "Exam not found" {
		t.Fatalf("missing exam: %d %+v", code, env)
	}

	code, env = call(t, srv, http.MethodGet, "/api/exams?teacherId=t-1", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	page := decode[struct {
		Total int64 `json:"total"`
	}](t, env)
	if page.Total != 1 {
		t.Fatalf("list total = %d", page.Total)
	}
}

func TestSubmissionEndpointErrors(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	code, env := call(t, srv, http.MethodPost, "/api/exam-submissions", "", map[string]any{
		"examId": "missing", "studentId": "s-1", "answers": map[string]any{},
	})
	if code != http.StatusNotFound || env.Message != "Exam not found" {
		t.Fatalf("missing exam: %d %+v", code, env)
	}

	code, _ = call(t, srv, http.MethodPost, "/api/exam-submissions", "", map[string]any{"studentId": "s-1"})
	if code != http.StatusBadRequest {
		t.Fatalf("missing examId: %d", code)
	}

	code, env = call(t, srv, http.MethodGet, "/api/exam-submissions/nope", "", nil)
	if code != http.StatusNotFound || env.Message != "Submission not found" {
		t.Fatalf("missing submission: %d %+v", code, env)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	code, env := call(t, srv, http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"redis":"up"`) {
		t.Fatalf("health: %d %s", code, env.Data)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "http_requests_total") {
		t.Fatal("metrics missing request counter")
	}
}

// 完整流程：教师出题发布，学生通过终端客户端作答，查看成绩
func TestDeliveryClientAgainstServer(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))
	ctx := context.Background()

	_, env := call(t, srv, http.MethodPost, "/api/exams", "", service.DemoExamRequest("t-1"))
	exam := decode[model.Exam](t, env)
	if code, _ := call(t, srv, http.MethodPost, "/api/exams/"+exam.ID+"/publish", "", nil); code != http.StatusOK {
		t.Fatalf("publish: %d", code)
	}

	client := delivery.NewClient(srv.URL, "")
	s := delivery.NewSession(delivery.Options{
		StudentID:    "s-1",
		Loader:       client,
		Starter:      client,
		Submitter:    client,
		Drafts:       client,
		Results:      client,
		TickInterval: -1,
		DraftEvery:   1,
	})
	if err := s.Load(ctx, exam.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	paper := s.Paper()
	if paper.DurationSeconds() != 1200 || s.Remaining() > 1200 {
		t.Fatalf("paper duration %d remaining %d", paper.DurationSeconds(), s.Remaining())
	}

	// 选择题答对前两题，第三题答错，创意题作答两个小题
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.AnswerOption(paper.Questions[0].ID, 0))
	must(s.AnswerOption(paper.Questions[1].ID, 1))
	must(s.AnswerOption(paper.Questions[2].ID, 0))
	must(s.AnswerPart(paper.Questions[3].ID, "ক", "সবুজ রঞ্জক পদার্থ"))
	must(s.AnswerPart(paper.Questions[3].ID, "খ", "শ্বেতসার থাকার কারণে"))
	s.Tick(ctx)
	if err := s.LastError(); err != nil {
		t.Fatalf("draft flush: %v", err)
	}

	draft, err := client.LoadDraft(ctx, exam.ID, "s-1")
	if err != nil || draft == nil || len(draft.Answers) != 4 {
		t.Fatalf("server draft = %+v, %v", draft, err)
	}

	sub, err := s.Submit(ctx, delivery.TriggerManual)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.ObtainedMarks != 2 || sub.CorrectAnswers != 2 || sub.IncorrectAnswers != 1 || sub.PendingManual != 1 {
		t.Fatalf("submission = %+v", sub)
	}

	if d, err := client.LoadDraft(ctx, exam.ID, "s-1"); err != nil || d != nil {
		t.Fatalf("draft should be gone after submit: %+v, %v", d, err)
	}

	res, err := s.ViewResults(ctx)
	if err != nil {
		t.Fatalf("ViewResults: %v", err)
	}
	if res.ObtainedMarks != 2 || res.Passed || len(res.Questions) != 4 {
		t.Fatalf("result = %+v", res)
	}
	if res.Questions[2].CorrectAnswer == nil || res.Questions[2].CorrectAnswer.OptionIndex != 2 {
		t.Fatalf("correct answer for q3 = %+v", res.Questions[2].CorrectAnswer)
	}

	code, env := call(t, srv, http.MethodPost, "/api/exam-submissions/"+sub.ID+"/grades?graderId=t-1", "", service.GradeSubmissionRequest{
		Grades: []service.QuestionGrade{{QuestionID: paper.Questions[3].ID, PointsEarned: 3}},
	})
	if code != http.StatusOK {
		t.Fatalf("grade: %d %+v", code, env)
	}

	resp, err := http.Get(srv.URL + "/api/exam-submissions/" + sub.ID + "/result?format=text&lang=en")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(text), "Marks obtained: 5/13") || !strings.Contains(string(text), "Passed") {
		t.Fatalf("text result:\n%s", text)
	}
}

func TestJWTIdentityOverridesBody(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWT.Enabled = true
	_, srv := newTestApp(t, cfg)

	teacher, _ := util.GenerateJWT("t-9", model.Teacher, "t9@example.com", testSecret, time.Hour)
	student, _ := util.GenerateJWT("s-9", model.Student, "", testSecret, time.Hour)
	other, _ := util.GenerateJWT("s-10", model.Student, "", testSecret, time.Hour)

	if code, _ := call(t, srv, http.MethodPost, "/api/exams", "", service.DemoExamRequest("x")); code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", code)
	}
	if code, _ := call(t, srv, http.MethodPost, "/api/exams", student, service.DemoExamRequest("x")); code != http.StatusForbidden {
		t.Fatalf("student create: %d", code)
	}

	_, env := call(t, srv, http.MethodPost, "/api/exams", teacher, service.DemoExamRequest("spoofed"))
	exam := decode[model.Exam](t, env)
	if exam.TeacherID != "t-9" || exam.TeacherEmail != "t9@example.com" {
		t.Fatalf("exam owner = %q %q", exam.TeacherID, exam.TeacherEmail)
	}

	code, env := call(t, srv, http.MethodPost, "/api/exam-submissions", student, map[string]any{
		"examId": exam.ID, "studentId": "spoofed", "answers": map[string]any{},
	})
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %+v", code, env)
	}
	sub := decode[model.ExamSubmission](t, env)
	if sub.StudentID != "s-9" {
		t.Fatalf("student id = %q", sub.StudentID)
	}

	if code, _ := call(t, srv, http.MethodGet, "/api/exam-submissions/"+sub.ID, other, nil); code != http.StatusForbidden {
		t.Fatalf("other student read: %d", code)
	}
	if code, _ := call(t, srv, http.MethodGet, "/api/exam-submissions/"+sub.ID+"/result", student, nil); code != http.StatusOK {
		t.Fatalf("own result: %d", code)
	}
}

func TestConfigCallbackUpdatesPolicy(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))

	next := testConfig(t)
	next.Exam.PassingRatio = 0.5
	next.Exam.AllowMultipleAttempts = false
	a.ApplyConfig(next)
	if got := a.Policy.Get(); got.PassingRatio != 0.5 || got.AllowMultipleAttempts {
		t.Fatalf("policy = %+v", got)
	}

	bad := testConfig(t)
	bad.Exam.PassingRatio = 2
	a.ApplyConfig(bad)
	if a.Policy.Get().PassingRatio != 0.5 {
		t.Fatal("invalid policy applied")
	}
}
