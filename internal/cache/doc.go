// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，并在其上实现最近运行决策缓存。

# 概述

本包封装 go-redis 客户端。Manager 负责连接生命周期管理，包括初始化、
健康检查与优雅关闭，支持可选 TLS 加密连接。DecisionCache 实现
capability.DecisionSink，把每次运行的决策写入 Redis，供调试接口查询。

# 核心类型

  - Manager：缓存管理器，提供 Get/Set/MGet 等基础操作，
    GetJSON/SetJSON 便捷序列化方法，以及定长列表 PushCapped/Range。
  - Config：缓存配置，包含地址、密码、连接池大小、默认 TTL、
    TLS 开关与健康检查间隔等参数。
  - DecisionCache：决策缓存，按运行 ID 存储决策并维护最近列表。

# 主要能力

  - 健康检查：后台定时 Ping 检测，异常时通过 zap 日志告警。
  - 命中统计：通过 HitRecorder 上报命中与未命中。
  - 错误语义：提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数。
*/
package cache
