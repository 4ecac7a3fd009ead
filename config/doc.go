// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package config 提供 capflow 的配置管理功能。
//
// 配置来自默认值、YAML 文件与 CAPFLOW_ 前缀的环境变量，
// 媒体理解相关配置（tools.media）保持原始分层结构，
// 由 capability.MergeConfig 在运行前合并为单一视图。
package config
