package main

import (
	"fmt"
	"net/http"
	"time"

	"greenidle/app/handler"
	"greenidle/app/middleware"
	"greenidle/app/router"
	"greenidle/internal/jobs"
	"greenidle/internal/model"
	"greenidle/internal/service"
	"greenidle/internal/store"
	"greenidle/pkg/archive"
	"greenidle/pkg/config"
	"greenidle/pkg/logger"
	"greenidle/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// initConfig loads configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger configures the global logger
func (app *Application) initLogger() error {
	return logger.Init()
}

// initStores creates the in-memory stores. All coordinator state lives
// here for the process lifetime; nothing survives a restart.
func (app *Application) initStores() error {
	mc := app.config.Machine
	defaults := model.MachineConfig{
		Enabled:              true,
		CPUPauseThreshold:    mc.CPUPauseThreshold,
		TaskMaxSeconds:       mc.TaskMaxSeconds,
		PostTaskSleepSeconds: mc.PostTaskSleepSeconds,
		PluginsRequired:      mc.Plugins,
		NightMode: model.NightMode{
			Enabled:      mc.NightMode.Enabled,
			StartHour:    mc.NightMode.StartHour,
			EndHour:      mc.NightMode.EndHour,
			CPUThreshold: mc.NightMode.CPUThreshold,
		},
	}

	app.machines = store.NewMachineStore(defaults)
	app.jobStore = store.NewJobStore()
	app.credentials = store.NewCredentialStore()
	app.results = store.NewResultLog()
	app.limiter = ratelimit.New()
	return nil
}

// initArchive connects the optional Redis result mirror
func (app *Application) initArchive() error {
	if !app.config.Archive.Enabled {
		return nil
	}

	sink, err := archive.NewSink(app.ctx, app.config.Archive.Addr, app.config.Archive.Password, app.config.Archive.DB)
	if err != nil {
		return err
	}
	app.sink = sink
	app.registerCleanup(func() {
		if err := sink.Close(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close archive: %v", err)
		}
	})
	return nil
}

// initServices wires the service layer
func (app *Application) initServices() error {
	app.machineService = service.NewMachineService(app.machines, app.credentials)

	var archiver service.ResultArchiver
	if app.sink != nil {
		archiver = app.sink
	}
	app.taskService = service.NewTaskService(app.jobStore, app.machines, app.results, archiver)
	app.jobService = service.NewJobService(app.jobStore)
	app.aggregator = service.NewAggregator(app.jobStore)
	app.statusService = service.NewStatusService(app.machines, app.jobStore)
	return nil
}

// initJobs registers background maintenance jobs
func (app *Application) initJobs() error {
	app.jobsManager = jobs.NewManager(app.ctx)

	widest := app.config.Auth.LegacyRate.WindowSeconds
	for _, w := range []int{app.config.Auth.SignedRate.WindowSeconds, app.config.Auth.RegisterRate.WindowSeconds} {
		if w > widest {
			widest = w
		}
	}
	app.jobsManager.Register(jobs.NewLimiterPruneJob(app.limiter, time.Duration(widest)*time.Second))
	app.jobsManager.Register(jobs.NewGaugeRefreshJob(app.statusService))
	return nil
}

// initHandlers wires the handler layer
func (app *Application) initHandlers() error {
	app.gateway = middleware.NewGateway(app.credentials, app.limiter)
	app.machineHandler = handler.NewMachineHandler(app.machineService)
	app.taskHandler = handler.NewTaskHandler(app.taskService)
	app.jobHandler = handler.NewJobHandler(app.jobService, app.aggregator)
	app.statusHandler = handler.NewStatusHandler(app.statusService)
	return nil
}

// initHTTPServer configures gin and the HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()

	r := router.NewRouter(app.gateway, app.machineHandler, app.taskHandler, app.jobHandler, app.statusHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}
