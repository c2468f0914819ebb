// Package apperr 提供带类别的业务错误。服务层把可预期的校验失败
// 逐条累积后一次性返回，处理器按类别映射 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Kind 错误类别
type Kind int

const (
	Internal           Kind = iota // 未预期失败，细节只进日志
	NotFound                       // 引用的实体不存在
	ValidationFailed               // 业务规则校验失败
	StateConflict                  // 状态门禁不满足
	DuplicateInput                 // 批内重复输入
	IntegrityViolation             // 提交会破坏账目一致性（如库存为负）
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ValidationFailed:
		return "validation_failed"
	case StateConflict:
		return "state_conflict"
	case DuplicateInput:
		return "duplicate_input"
	case IntegrityViolation:
		return "integrity_violation"
	}
	return "internal"
}

// Error 单条业务错误
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New 构造业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf 构造带格式化消息的业务错误
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 把底层错误包装为业务错误，原始错误保留在链上供日志使用
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// KindOf 取错误链上第一条业务错误的类别；累积错误取各条中最严重的一类。
// 非业务错误一律视为 Internal。
func KindOf(err error) Kind {
	if err == nil {
		return Internal
	}
	worst := Kind(-1)
	for _, e := range multierr.Errors(err) {
		var ae *Error
		if errors.As(e, &ae) {
			if severity(ae.Kind) > severity(worst) {
				worst = ae.Kind
			}
		} else {
			return Internal
		}
	}
	if worst < 0 {
		return Internal
	}
	return worst
}

// Messages 展开累积错误为逐条可读消息
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

// Is 错误链上是否含有指定类别
func Is(err error, kind Kind) bool {
	for _, e := range multierr.Errors(err) {
		var ae *Error
		if errors.As(e, &ae) && ae.Kind == kind {
			return true
		}
	}
	return false
}

// severity 用于在累积错误中挑选对调用方最有信息量的类别：
// 一致性冲突 > 状态冲突 > 未找到 > 重复 > 校验失败。
func severity(k Kind) int {
	switch k {
	case IntegrityViolation:
		return 5
	case StateConflict:
		return 4
	case NotFound:
		return 3
	case DuplicateInput:
		return 2
	case ValidationFailed:
		return 1
	}
	return 0
}
