// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 vision 提供图像描述接入层，将多模态聊天接口适配为
capability.ImageDescriber。

# 主要能力

  - OpenAI 适配：OpenAIProvider 调用 /chat/completions，
    以 image_url（data URL 或远程 URL）传入图像。
  - Gemini 适配：GeminiProvider 调用 :generateContent，
    以 inline_data 或 file_data 传入图像。
  - 类型检查：未声明 MIME 时按内容嗅探，非图像数据直接拒绝。
  - 错误映射：上游失败统一映射为 types.ProviderError。
*/
package vision
