package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotOwner        = errors.New("writer is not owner")
	ErrAnswersNotOwned = errors.New("answers should contain only answers written by the question owner or be empty")
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string
	Message string
}

// ValidationError 长度等约束不满足，可包含多个字段
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Map 供 handler 输出
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

type validator struct {
	fields []FieldError
}

func (v *validator) check(ok bool, field, msg string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: msg})
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
