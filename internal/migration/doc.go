// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理决策审计日志的数据库 Schema，支持 PostgreSQL 与
SQLite，基于 golang-migrate 实现。

# 概述

本包通过 embed.FS 内嵌各数据库方言的 SQL 迁移文件，结合
golang-migrate 引擎实现版本化的 Schema 变更管理。迁移生成的
capability_decisions / capability_attempts 表与 internal/database
的 GORM 模型一致；生产环境可关闭 database.auto_migrate，改由
`capflow migrate up` 显式建表。

# 核心接口与类型

  - Migrator：迁移器接口，定义 Up/Down/DownAll/Steps/Goto/Force/
    Version/Status/Info/Close 等完整操作集。
  - DefaultMigrator：Migrator 的默认实现，封装 golang-migrate 实例，
    关闭时一并释放传入的数据库连接。
  - Config：迁移配置，包含数据库类型、迁移表名与锁超时。
  - DatabaseType：数据库类型枚举（postgres/sqlite）。
  - MigrationStatus / MigrationInfo：迁移状态与摘要信息。
  - CLI：命令行交互层，封装 Migrator 提供格式化输出。

# 主要能力

  - 工厂函数：NewMigratorFromConfig / NewMigratorFromDatabaseConfig
    复用 internal/database 的连接方式（pgx 与纯 Go sqlite）。
  - CLI 集成：CLI 类型提供 RunUp/RunDown/RunStatus/RunInfo 等
    面向终端的格式化操作。
*/
package migration
