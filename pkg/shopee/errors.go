package shopee

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential 店铺没有可用的 access token / refresh token
var ErrMissingCredential = errors.New("店铺缺少可用的授权凭证")

// RemoteError Shopee 平台返回的失败
// 包含 HTTP 状态码、平台业务错误码和原始响应体，便于排查
type RemoteError struct {
	Path       string
	StatusCode int
	Code       string // 平台业务错误码，如 error_auth / error_param
	Message    string
	RequestID  string
	Body       []byte // 原始响应体
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("shopee api 错误 [%s]: %s (%s)", e.Path, e.Message, e.Code)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("shopee api 错误 [%s]: HTTP %d: %s", e.Path, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("shopee 请求失败 [%s]: %s", e.Path, e.Message)
}

// InvalidToken 判断是否为 access token 失效类错误
// 平台在 token 过期时返回 2xx + 业务错误码，这是唯一允许自动恢复的失败
func (e *RemoteError) InvalidToken() bool {
	switch e.Code {
	case "error_auth", "invalid_access_token":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "invalid access_token")
}

// TruncatedError 分页遍历达到页数上限，平台仍声称有下一页
// 已收集的结果有效，属于部分成功而非硬失败
type TruncatedError struct {
	Pages int // 已拉取的页数
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("分页遍历在 %d 页后被截断，平台仍报告存在下一页", e.Pages)
}
