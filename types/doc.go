// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 capflow 的全局共享错误类型。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 config、llm、api 等上层
模块提供统一的错误契约，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — API 层结构化错误，含 HTTP 状态码与 Retryable 标记
  - ConfigError       — 启动期配置错误（注册表构建、配置校验），从不重试
  - ProviderError     — 单次 Provider 调用失败，Runner 据此回退到下一个候选
  - ProviderErrorKind — 失败分类：auth、rate_limit、quota、timeout、upstream 等

# 主要能力

  - 错误码提取：GetErrorCode 同时识别 Error 与 ConfigError
  - 状态码映射：KindForStatus 将上游 HTTP 状态映射为 ProviderErrorKind
  - 错误归一化：AsProviderError 将任意调用失败（含 context 取消/超时）转换为 ProviderError
  - 上游消息提取：UpstreamMessage 读取 {"error":{"message":...}} 响应体
*/
package types
