package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"shikkha_backend/internal/model"
	"testing"
	"time"
)

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if status < 300 {
		body["data"] = data
	} else if msg, ok := data.(string); ok {
		body["message"] = msg
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestClientLoadPaper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/exams/exam-1/paper":
			writeEnvelope(w, http.StatusOK, samplePaper(30))
		default:
			writeEnvelope(w, http.StatusNotFound, "Exam not found")
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "")
	p, err := c.LoadPaper(context.Background(), "exam-1")
	if err != nil {
		t.Fatalf("LoadPaper: %v", err)
	}
	if p.Duration != 30 || len(p.Questions) != 3 || p.Questions[2].SubQuestions[3].Points != 4 {
		t.Fatalf("paper = %+v", p)
	}

	_, err = c.LoadPaper(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Exam not found" {
		t.Fatalf("api error = %#v", err)
	}
}

func TestClientSubmitSendsTokenAndPayload(t *testing.T) {
	var got SubmitRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/exam-submissions" {
			writeEnvelope(w, http.StatusNotFound, "not found")
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			writeEnvelope(w, http.StatusBadRequest, err.Error())
			return
		}
		sub := model.ExamSubmission{ExamID: got.ExamID, StudentID: got.StudentID, ObtainedMarks: 2}
		sub.ID = "sub-9"
		writeEnvelope(w, http.StatusCreated, sub)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-123")
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub, err := c.Submit(context.Background(), SubmitRequest{
		ExamID:    "exam-1",
		StudentID: "student-1",
		Answers:   model.Answers{"q1": model.OptionAnswer(1), "q3": model.PartsAnswer(map[string]string{"ক": "উত্তর"})},
		TimeSpent: 95,
		StartedAt: &started,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.ID != "sub-9" || sub.ObtainedMarks != 2 {
		t.Fatalf("submission = %+v", sub)
	}
	if auth != "Bearer token-123" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.TimeSpent != 95 || *got.Answers["q1"].Option != 1 || got.Answers["q3"].Parts["ক"] != "উত্তর" {
		t.Errorf("server received %+v", got)
	}
}

func TestClientDrafts(t *testing.T) {
	var saved Draft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/exam-drafts/exam-1" || r.URL.Query().Get("studentId") != "student-1" {
			writeEnvelope(w, http.StatusNotFound, "Draft not found")
			return
		}
		switch r.Method {
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&saved)
			writeEnvelope(w, http.StatusOK, saved)
		case http.MethodGet:
			writeEnvelope(w, http.StatusOK, saved)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx := context.Background()

	d, err := c.LoadDraft(ctx, "exam-1", "student-2")
	if err != nil || d != nil {
		t.Fatalf("missing draft = %v, %v; want nil, nil", d, err)
	}

	in := Draft{Answers: model.Answers{"q2": model.OptionAnswer(0)}, Flagged: []string{"q1"}, CurrentIndex: 2, RemainingSeconds: 300}
	if err := c.SaveDraft(ctx, "exam-1", "student-1", in); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	d, err = c.LoadDraft(ctx, "exam-1", "student-1")
	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if d.CurrentIndex != 2 || d.RemainingSeconds != 300 || *d.Answers["q2"].Option != 0 {
		t.Fatalf("draft = %+v", d)
	}
}

func TestClientStartAttemptAndResult(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/exams/exam-1/attempts":
			writeEnvelope(w, http.StatusOK, map[string]any{"examId": "exam-1", "studentId": "student-1", "startedAt": started})
		case "/api/exam-submissions/sub-1/result":
			writeEnvelope(w, http.StatusOK, map[string]any{"submissionId": "sub-1", "obtainedMarks": 7, "totalMarks": 13})
		default:
			writeEnvelope(w, http.StatusInternalServerError, "boom")
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx := context.Background()
	at, err := c.StartAttempt(ctx, "exam-1", "student-1")
	if err != nil || !at.Equal(started) {
		t.Fatalf("StartAttempt = %v, %v", at, err)
	}
	r, err := c.FetchResult(ctx, "sub-1")
	if err != nil || r.ObtainedMarks != 7 {
		t.Fatalf("FetchResult = %+v, %v", r, err)
	}
	if _, err := c.FetchResult(ctx, "sub-2"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("server error mapped to %v", err)
	}
}
