// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 embedding 提供文本嵌入（Embedding）接口与多服务商实现，
并将其适配为 capability.Embedder。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed 与 ID 方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - InputType：输入类型枚举，包括 query、document、semantic。
  - BaseProvider：公共基类，封装 HTTP 客户端、凭证检查与能力适配。

# 主要能力

  - 多服务商支持：内置 OpenAI 与 Google Gemini 两种实现。
  - 输入类型映射：将统一 InputType 转换为 Gemini 的 taskType。
  - 批量嵌入：Gemini 多输入时使用 batchEmbedContents 端点。
  - 维度控制：支持 OpenAI dimensions 与 Gemini outputDimensionality。

# 使用方式

	cfg := embedding.DefaultOpenAIConfig()
	cfg.APIKey = "sk-..."
	provider := embedding.NewOpenAIProvider(cfg)

	res, err := provider.GenerateEmbedding(ctx, &capability.EmbeddingRequest{Input: "搜索关键词"})
*/
package embedding
