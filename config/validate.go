package config

import (
	"fmt"
	"strings"

	"github.com/BaSui01/capflow/types"
)

var (
	knownCapabilities = map[string]bool{"audio": true, "vision": true, "embedding": true}
	knownLogLevels    = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	knownDrivers      = map[string]bool{"postgres": true, "sqlite": true}
)

// Validate 验证配置，所有问题合并为一个 *types.ConfigError
func (c *Config) Validate() error {
	var errs []string

	// 验证服务器配置
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, "rate limit must not be negative")
	}

	// 验证日志配置
	if !knownLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	// 验证数据库配置
	if c.Database.Enabled && !knownDrivers[c.Database.Driver] {
		errs = append(errs, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}

	// 验证服务商配置
	for _, id := range c.Models.ProviderIDs() {
		for _, capName := range c.Models.Providers[id].Capabilities {
			if !knownCapabilities[capName] {
				errs = append(errs, fmt.Sprintf("models.providers.%s: unknown capability %q", id, capName))
			}
		}
	}

	// 验证媒体配置
	errs = append(errs, c.Tools.Media.validate()...)

	if len(errs) > 0 {
		return types.NewConfigError(types.ErrConfigInvalid, "", strings.Join(errs, "; "))
	}
	return nil
}

func (m MediaToolsConfig) validate() []string {
	var errs []string
	if m.Concurrency < 0 {
		errs = append(errs, "tools.media.concurrency must not be negative")
	}
	if m.Timeout < 0 {
		errs = append(errs, "tools.media.timeout must not be negative")
	}
	if m.MaxBytes < 0 {
		errs = append(errs, "tools.media.max_bytes must not be negative")
	}
	errs = append(errs, validateModels("tools.media.models", m.Models, true)...)

	for _, name := range []string{"audio", "vision", "embedding"} {
		sec := m.ForCapability(name)
		prefix := "tools.media." + name
		if sec.Concurrency < 0 || sec.Timeout < 0 || sec.MaxBytes < 0 || sec.MaxTokens < 0 || sec.Dimensions < 0 {
			errs = append(errs, prefix+": limits must not be negative")
		}
		errs = append(errs, validateModels(prefix+".models", sec.Models, false)...)
	}
	return errs
}

func validateModels(field string, models []MediaModelConfig, scoped bool) []string {
	var errs []string
	for i, m := range models {
		if strings.TrimSpace(m.Provider) == "" {
			errs = append(errs, fmt.Sprintf("%s[%d]: provider is required", field, i))
		}
		if !scoped && len(m.Capabilities) > 0 {
			errs = append(errs, fmt.Sprintf("%s[%d]: capabilities is only allowed in shared models", field, i))
		}
		for _, c := range m.Capabilities {
			if !knownCapabilities[c] {
				errs = append(errs, fmt.Sprintf("%s[%d]: unknown capability %q", field, i, c))
			}
		}
	}
	return errs
}
