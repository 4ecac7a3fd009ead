package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/capflow/types"
)

// maxErrorBody 限制读取的上游错误体大小
const maxErrorBody = 64 << 10

// MapHTTPError 将上游 HTTP 失败映射为 types.ProviderError。
// 能解析出错误体时消息保留在 Upstream 中，Message 留空；
// 否则原始文本作为 Message。
func MapHTTPError(provider string, status int, body []byte) *types.ProviderError {
	pe := &types.ProviderError{
		Provider: provider,
		Kind:     types.KindForStatus(status),
		Upstream: &types.UpstreamResponse{StatusCode: status},
	}

	text := ""
	if parsed := ParseErrorBody(body); parsed != nil {
		pe.Upstream.Body = parsed
		text = parsed.Error.Message
	} else {
		text = strings.TrimSpace(string(body))
		if len(text) > 512 {
			text = text[:512]
		}
		if text == "" {
			text = http.StatusText(status)
		}
		pe.Message = text
	}

	// 部分服务商以 400 返回额度不足
	if status == http.StatusBadRequest && isQuotaMessage(text) {
		pe.Kind = types.ProviderErrQuota
	}
	return pe
}

func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "credit") ||
		strings.Contains(lower, "billing")
}

// ParseErrorBody 解析常见的错误响应格式，无法识别时返回 nil。
//
// 支持:
//   - {"error": {"message": "..."}}（OpenAI、Groq、Gemini）
//   - {"error": "..."}
//   - {"err_code": "...", "err_msg": "..."}（Deepgram）
func ParseErrorBody(data []byte) *types.UpstreamErrorBody {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var nested struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && len(nested.Error) > 0 {
		var detail types.UpstreamErrorDetail
		if err := json.Unmarshal(nested.Error, &detail); err == nil && detail.Message != "" {
			return &types.UpstreamErrorBody{Error: &detail}
		}
		var flat string
		if err := json.Unmarshal(nested.Error, &flat); err == nil && flat != "" {
			return &types.UpstreamErrorBody{Error: &types.UpstreamErrorDetail{Message: flat}}
		}
	}

	var dg struct {
		Code    string `json:"err_code"`
		Message string `json:"err_msg"`
	}
	if err := json.Unmarshal(data, &dg); err == nil && dg.Message != "" {
		return &types.UpstreamErrorBody{Error: &types.UpstreamErrorDetail{Message: dg.Message, Code: dg.Code}}
	}
	return nil
}

// ReadHTTPError 读取失败响应体并映射为 ProviderError
func ReadHTTPError(provider string, resp *http.Response) *types.ProviderError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &types.ProviderError{
			Provider: provider,
			Kind:     types.KindForStatus(resp.StatusCode),
			Upstream: &types.UpstreamResponse{StatusCode: resp.StatusCode},
			Message:  "read error response: " + err.Error(),
			Cause:    err,
		}
	}
	return MapHTTPError(provider, resp.StatusCode, body)
}

// TransportError 将请求发送失败映射为 ProviderError。
// 上下文取消与超时保留各自的 Kind，其余视为网络错误。
func TransportError(provider string, err error) *types.ProviderError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.AsProviderError(provider, err)
	}
	return &types.ProviderError{
		Provider: provider,
		Kind:     types.ProviderErrNetwork,
		Message:  err.Error(),
		Cause:    err,
	}
}

// Do 发送请求，失败时返回 ProviderError，成功时将 JSON 响应解码到 out。
func Do(client *http.Client, provider string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return TransportError(provider, err)
	}
	defer SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		return ReadHTTPError(provider, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.ProviderError{
			Provider: provider,
			Kind:     types.ProviderErrUpstream,
			Message:  "decode response: " + err.Error(),
			Cause:    err,
		}
	}
	return nil
}

// DoJSON 以 JSON 请求体调用 endpoint 并解码 JSON 响应
func DoJSON(ctx context.Context, client *http.Client, provider, endpoint string, headers func(*http.Request), in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &types.ProviderError{
			Provider: provider,
			Kind:     types.ProviderErrInvalidRequest,
			Message:  "encode request: " + err.Error(),
			Cause:    err,
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &types.ProviderError{
			Provider: provider,
			Kind:     types.ProviderErrInvalidRequest,
			Message:  fmt.Sprintf("build request: %v", err),
			Cause:    err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if headers != nil {
		headers(req)
	}
	return Do(client, provider, req, out)
}

// ChooseModel 按优先级选择模型（请求 > 默认）
func ChooseModel(requested, defaultModel string) string {
	if requested != "" {
		return requested
	}
	return defaultModel
}

// BearerTokenHeaders 返回设置 Bearer token 认证头的函数
func BearerTokenHeaders(apiKey string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// SafeCloseBody 安全关闭 HTTP 响应体并忽略错误
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
