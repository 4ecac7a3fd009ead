// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接与连接池管理，并在其上实现
能力运行的决策审计日志。

# 核心类型

  - PoolManager：连接池管理器，持有 GORM DB 实例与底层 sql.DB，
    提供 DB()、Ping()、Stats()、WithTransaction()、Close() 等方法，
    后台健康检查定时探活并上报连接数。
  - PoolConfig：连接池配置，sqlite 固定为单连接。
  - DecisionLog：实现 capability.DecisionSink，把决策写入
    capability_decisions 表、把每次 Provider 调用写入 capability_attempts 表。

# 驱动

  - postgres：gorm.io/driver/postgres
  - sqlite：github.com/glebarez/sqlite（纯 Go，无需 cgo）
*/
package database
