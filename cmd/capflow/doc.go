// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 capflow 服务端程序入口。

# 概述

cmd/capflow 是媒体理解能力运行器的可执行入口，提供 HTTP API 服务、
单次能力运行、健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）、Prometheus 指标采集以及 OpenTelemetry 追踪。

# 核心类型

  - Server      — 主服务器，管理 API、Metrics 双端口及优雅关闭
  - components  — 运行期依赖：Provider 注册表、Runner、决策缓存与审计日志
  - Middleware  — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、run（单次运行，结果输出 JSON）、
    migrate（决策日志表结构迁移）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、Metrics、
    RequestLogger、CORS、RateLimiter（基于 IP）、APIKeyAuth、MaxBodyBytes
  - 决策存储：Redis 最近决策缓存与数据库审计日志均为可选，不可用时仅告警
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
