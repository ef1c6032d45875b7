package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haierkeys/cloudnav-sync-service/internal/middleware"
	"github.com/haierkeys/cloudnav-sync-service/pkg/code"
)

// AppError 统一应用错误结构体
// 包含错误码、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Status 始终为 false，与成功响应的 Res 结构保持一致
	Status bool `json:"status"`
	// Message 错误消息
	Message string `json:"message"`
	// Data 附加数据，例如冲突时的 currentVersion
	Data interface{} `json:"data,omitempty"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`

	httpStatus int
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap 实现 errors.Unwrap 接口，支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode 返回对应的 HTTP 状态码
func (e *AppError) StatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:       c.Code(),
		Message:    c.Msg(),
		Data:       c.Data(),
		Details:    c.Details(),
		Cause:      cause,
		Timestamp:  time.Now(),
		httpStatus: c.StatusCode(),
	}
}

// WithTraceID 设置 TraceID 并返回自身（链式调用）
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ErrorResponse 统一错误响应处理
// 从 gin.Context 获取 TraceID，将错误转换为 AppError 并返回 JSON 响应
func ErrorResponse(c *gin.Context, err error) {
	traceID := middleware.GetTraceIDFromGin(c)

	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.TraceID = traceID
		c.Set("status_code", appErr.StatusCode())
		c.JSON(appErr.StatusCode(), appErr)
		return
	}

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		response := NewAppError(codeErr, err).WithTraceID(traceID)
		c.Set("status_code", response.StatusCode())
		c.JSON(response.StatusCode(), response)
		return
	}

	// 未知错误，返回内部错误，不暴露原始信息
	response := NewAppError(code.ErrorServerInternal, err).WithTraceID(traceID)
	c.Set("status_code", response.StatusCode())
	c.JSON(response.StatusCode(), response)
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
