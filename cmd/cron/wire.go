//go:build wireinject
// +build wireinject

package main

import (
	"os"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// CronApp holds the usecases the scheduler drives.
type CronApp struct {
	dispatchUsecase *biz.DispatchUsecase
}

// wireApp 初始化应用
func wireApp(*conf.Bootstrap) (*CronApp, func(), error) {
	panic(wire.Build(
		newLogger,

		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}

// newLogger 创建 logger
func newLogger(c *conf.Bootstrap) log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "gurbani-vyakhya-cron",
	)
}
