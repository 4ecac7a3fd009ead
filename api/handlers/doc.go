// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 capflow HTTP API 的请求处理器实现。

# 概述

handlers 包实现能力运行、决策调试与健康检查端点，
所有 Handler 均遵循标准 net/http 接口，路由使用 Go 1.22 的
方法 + 路径模式（r.PathValue 读取路径参数）。

# 核心类型

  - CapabilityHandler — 能力运行（POST /api/v1/capabilities/{capability}/run）与能力列表
  - DebugHandler      — 最近决策、单个决策与 Provider 失败统计
  - HealthHandler     — 服务健康检查（/health, /healthz, /ready, /version）
  - Response          — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo         — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter    — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（严格模式，超限返回 413）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 运行结果原样返回：disabled / unavailable / error 也以 200 返回，
    结果体现在 decision.outcome 中
  - 决策查询：无过滤时读 Redis 缓存，带过滤或缓存失败时查询数据库
  - 可选健康检查：RegisterOptionalCheck 注册的检查失败时状态为 degraded
*/
package handlers
