// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 speech 提供语音识别 (STT) 接入层，将多个服务商适配为
capability.AudioTranscriber。

# 核心接口

  - STTProvider：语音转文本接口，包含 Transcribe、ID 与 SupportedFormats 方法。
  - STTRequest / STTResponse：STT 标准化请求与响应模型。
  - Segment：带时间戳的转录片段。

# 主要能力

  - OpenAI 兼容适配：OpenAISTTProvider 调用 /audio/transcriptions，
    同时服务 OpenAI（gpt-4o-mini-transcribe、whisper-1）与 Groq。
  - Deepgram 适配：DeepgramProvider 调用 /listen，支持语言检测与智能格式化。
  - 错误映射：上游失败统一映射为 types.ProviderError，并保留解析后的错误体。
*/
package speech
