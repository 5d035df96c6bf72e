package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrAttemptExists    = errors.New("exam already submitted by this student")
	ErrLateSubmission   = errors.New("submission received after the exam time limit")
	ErrInvalidGrade     = errors.New("invalid manual grade")
	ErrDraftsDisabled   = errors.New("draft store is not configured")
)

// ValidationError 创建/提交请求结构不合法
type ValidationError struct {
	Err error
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError 引用的实体不存在
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Message is the user facing text, e.g. "Exam not found".
func (e *NotFoundError) Message() string {
	return e.Entity + " not found"
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
