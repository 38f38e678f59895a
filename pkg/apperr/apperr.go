package apperr

import (
	"errors"
	"fmt"
)

// Code 稳定错误码，对外暴露的唯一错误标识。
// 存储层原始错误信息不允许直接透出（避免泄露底层表结构）。
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAccessDenied    Code = "ACCESS_DENIED"
	CodeNoSchemaMatched Code = "NO_SCHEMA_MATCHED"
	CodeConflict        Code = "CONFLICT"
	CodeTransient       Code = "TRANSIENT"
	CodeInternal        Code = "INTERNAL"
)

// Error 携带稳定错误码的业务错误。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New 构造带码错误。
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap 包装底层错误并附加稳定错误码；message 面向调用方，cause 仅用于日志。
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf 提取错误码；非 *Error 一律归为 INTERNAL。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is 判断错误是否携带指定错误码。
func Is(err error, code Code) bool { return CodeOf(err) == code }
