package providers

import (
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/capflow/internal/tlsutil"
)

// BaseProviderConfig 所有 Provider 共享的基础配置字段。
// 通过嵌入此结构体，各 Provider 的 Config 自动获得 APIKey、BaseURL、Model、Timeout 四个字段。
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// WithDefaults 为空字段填充默认值
func (c BaseProviderConfig) WithDefaults(baseURL, model string, timeout time.Duration) BaseProviderConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = timeout
	}
	return c
}

// Endpoint 拼接 BaseURL 与路径
func (c BaseProviderConfig) Endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// HasCredentials 报告是否配置了 API Key
func (c BaseProviderConfig) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// HTTPClient 返回带 TLS 加固与超时的客户端
func (c BaseProviderConfig) HTTPClient() *http.Client {
	return tlsutil.SecureHTTPClient(c.Timeout)
}
