package util

import (
	"shikkha_backend/internal/model"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("teacher-7", model.Teacher, "t@example.com", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	claims, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "teacher-7" || claims.Role != model.Teacher {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, _ := GenerateJWT("s1", model.Student, "", "secret", time.Hour)
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Error("expected wrong secret to fail")
	}
	expired, _ := GenerateJWT("s1", model.Student, "", "secret", -time.Minute)
	if _, err := ParseJWT(expired, "secret"); err == nil {
		t.Error("expected expired token to fail")
	}
}
