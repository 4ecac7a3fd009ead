// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 capability 实现能力运行器（Capability Runner）：针对一次能力请求
（音频转写、图像描述、文本嵌入），决定能力是否启用、选择哪个
Provider/模型、调用 Provider，并输出可断言的决策记录。

# 概述

运行流程为 Runner.Run → Resolve → Registry.Invoke → RunResult。
配置在进入解析前由 MergeConfig 一次性合并为不可变的 Config；
Resolver 只读取合并后的结果，不直接读取原始配置层。

# 核心接口

  - Registry：Provider 注册表。注册时通过类型断言绑定
    AudioTranscriber / ImageDescriber / Embedder 实现，重复 ID 返回 ConfigError。
  - Resolve：三态开关（auto/on/off）与显式模型列表决定候选顺序，
    auto 模式下仅选择持有凭证的 Provider，注册顺序是唯一的排序依据。
  - Runner：每个附件独立执行候选循环，首个成功即停止；失败被记录而不中断
    其他附件；输出顺序与附件输入顺序一致。
  - Decision：结果分类为 success / disabled / unavailable / error，
    部分成功时 Partial 为 true，并给出 Succeeded / Total 计数。
  - DecisionSink：运行结束后接收决策副本（Redis 缓存、数据库审计日志）。

# 使用方式

	reg := capability.NewRegistry()
	reg.MustRegister("openai", provider)

	runner := capability.NewRunner(reg, capability.WithLogger(logger))
	cfg := capability.MergeConfig(capability.CapabilityAudio, appCfg.Tools.Media)
	result := runner.Run(ctx, capability.CapabilityAudio, cfg, attachments)
	if result.Decision.Outcome == capability.OutcomeSuccess {
		fmt.Println(result.Outputs[0].Text)
	}
*/
package capability
