// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 batch 提供批量调用结果中错误信息的统一提取与格式化能力。

# 概述

Provider 的批量接口（以及能力运行器的多次候选尝试）会产生一组
输出行，每行可能携带顶层 error.message，也可能只在
response.body.error.message 中携带上游错误。本包定义统一的
OutputLine 结构，并按固定优先级挑选最有价值的一条错误信息。

# 核心接口

  - OutputLine：单条批量输出（顶层 error 与嵌套 response.body.error）。
  - ExtractBatchErrorMessage：按列表顺序找到第一条带错误的行，
    优先返回其顶层消息，否则返回嵌套消息。
  - FormatUnavailableBatchError：错误文件不可读时的固定前缀诊断文本。
  - FromError：将 Go error（含 types.ProviderError）转换为 OutputLine。
*/
package batch
