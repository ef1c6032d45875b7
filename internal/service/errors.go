package service

import "errors"

// ParamError 请求参数不合法
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return e.Field + ": " + e.Reason
}

// ErrBackupDisabled 未配置服务端备份存储
var ErrBackupDisabled = errors.New("backup storage not configured")
