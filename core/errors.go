package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），底层原因通过 Cause 透传，可被 errors.Is / errors.As 识别
//
// 使用场景：
//   - 数据准备：DATA_SHAPE, ENCODING
//   - 超参搜索：CANDIDATE_SEARCH_EXHAUSTED
//   - 最终训练：FINAL_FIT_FAILED
//   - 模型落盘：PERSISTENCE
type DomainError struct {
	Code    string // 错误代码（如 "DATA_SHAPE", "PERSISTENCE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "search", "persist"）
	Cause   error  // 底层原因（可选）
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code string, cause error, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 训练流程错误代码
	ErrorCodeDataShape                = "DATA_SHAPE"                 // 输入表结构不符合预期
	ErrorCodeEncoding                 = "ENCODING"                   // 类别值不在编码映射中
	ErrorCodeCandidateSearchExhausted = "CANDIDATE_SEARCH_EXHAUSTED" // 候选模型所有参数组合均训练失败
	ErrorCodeFinalFitFailed           = "FINAL_FIT_FAILED"           // 最终模型训练失败
	ErrorCodePersistence              = "PERSISTENCE"                // 模型无法写入/读取存储
)

// 模块名称常量
const (
	ModuleDataset = "dataset" // 数据准备模块
	ModuleSearch  = "search"  // 超参搜索模块
	ModuleTrainer = "trainer" // 最终训练模块
	ModulePersist = "persist" // 模型持久化模块
	ModuleStore   = "store"   // 存储模块
	ModuleSelect  = "select"  // 候选选择模块

	ModuleCandidate = "candidate" // 候选模型注册模块
	ModuleConfig    = "config"    // 配置模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsDataShape 检查错误是否为 DATA_SHAPE
func IsDataShape(err error) bool {
	return hasCode(err, ErrorCodeDataShape)
}

// IsEncoding 检查错误是否为 ENCODING
func IsEncoding(err error) bool {
	return hasCode(err, ErrorCodeEncoding)
}

// IsCandidateSearchExhausted 检查错误是否为 CANDIDATE_SEARCH_EXHAUSTED
func IsCandidateSearchExhausted(err error) bool {
	return hasCode(err, ErrorCodeCandidateSearchExhausted)
}

// IsFinalFitFailed 检查错误是否为 FINAL_FIT_FAILED
func IsFinalFitFailed(err error) bool {
	return hasCode(err, ErrorCodeFinalFitFailed)
}

// IsPersistence 检查错误是否为 PERSISTENCE
func IsPersistence(err error) bool {
	return hasCode(err, ErrorCodePersistence)
}
