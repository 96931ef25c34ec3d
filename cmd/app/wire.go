//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/clima-widget/internal/bootstrap"
	"github.com/yanqian/clima-widget/internal/domain/weather"
	"github.com/yanqian/clima-widget/internal/domain/widget"
	"github.com/yanqian/clima-widget/internal/infra/config"
	"github.com/yanqian/clima-widget/internal/infra/dispatch"
	httpiface "github.com/yanqian/clima-widget/internal/interface/http"
	"github.com/yanqian/clima-widget/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideWeatherConfig,
		provideWidgetConfig,
		provideWeatherClient,
		provideWeatherStore,
		weather.NewService,
		dispatch.NewImmediateDispatcher,
		wire.Bind(new(widget.Dispatcher), new(*dispatch.ImmediateDispatcher)),
		widget.NewRegistry,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
