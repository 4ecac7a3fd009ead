// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
# 概述

包 providers 提供能力 Provider 共享的 HTTP 接入层，是 speech、vision、
embedding 各服务商实现的公共基础。

# 核心类型

  - BaseProviderConfig — 所有 Provider 共享的基础配置（APIKey、BaseURL、Model、Timeout）

# 核心函数

  - MapHTTPError / ReadHTTPError — 将上游 HTTP 失败映射为 types.ProviderError，
    保留解析后的错误体
  - ParseErrorBody — 识别 OpenAI、Gemini、Deepgram 等常见错误体格式
  - TransportError — 区分网络错误与上下文取消/超时
  - Do / DoJSON — 发送请求并解码 JSON 响应
  - ChooseModel — 按优先级选择模型（请求 > 默认）
*/
package providers
