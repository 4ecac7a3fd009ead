// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package testutil 提供能力运行器测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，
避免重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertOutcome 校验运行结果分类与输出数量
  - 异步断言: AssertEventuallyTrue 支持超时轮询等待条件满足
  - 数据工具: WriteTempMedia / MustJSON / MustParseJSON

# 子包

  - testutil/mocks: MockCapabilityProvider（能力 Provider）与
    MockDecisionSink（决策接收器），支持 Builder 模式与错误注入
  - testutil/fixtures: 音频、图像与文本附件样例

# 使用示例

	ctx := testutil.TestContext(t)
	p := mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio)
	reg := capability.NewRegistry().MustRegister("openai", p)
	res := capability.NewRunner(reg).Run(ctx, capability.CapabilityAudio, cfg, atts)
	testutil.AssertOutcome(t, res, capability.OutcomeSuccess, 1)
*/
package testutil
