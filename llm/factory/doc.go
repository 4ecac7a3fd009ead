// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 factory 按 models.providers 配置创建 Provider 并填充 capability.Registry。

# 支持的类型

  - openai：语音转写、图像描述、文本嵌入
  - groq：语音转写（OpenAI 兼容接口）
  - deepgram：语音转写
  - gemini：图像描述、文本嵌入

# 凭证解析

依次使用 api_key、api_key_env 指向的环境变量、类型对应的默认环境变量
（OPENAI_API_KEY / GROQ_API_KEY / DEEPGRAM_API_KEY / GEMINI_API_KEY）。
没有凭证的 Provider 仍会注册，但自动模式会跳过它。
*/
package factory
