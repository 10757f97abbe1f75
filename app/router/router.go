package router

import (
	"greenidle/app/handler"
	"greenidle/app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router Router
type Router struct {
	gateway        *middleware.Gateway
	machineHandler *handler.MachineHandler
	taskHandler    *handler.TaskHandler
	jobHandler     *handler.JobHandler
	statusHandler  *handler.StatusHandler
}

// NewRouter creates a new Router
func NewRouter(gateway *middleware.Gateway, machineHandler *handler.MachineHandler, taskHandler *handler.TaskHandler, jobHandler *handler.JobHandler, statusHandler *handler.StatusHandler) *Router {
	return &Router{
		gateway:        gateway,
		machineHandler: machineHandler,
		taskHandler:    taskHandler,
		jobHandler:     jobHandler,
		statusHandler:  statusHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	// Client-facing surface, everything behind the auth gateway
	client := engine.Group("/")
	client.Use(r.gateway.Handler())
	{
		client.POST("/register", r.gateway.RegisterLimit(), r.machineHandler.Register)
		client.POST("/heartbeat", r.machineHandler.Heartbeat)
		client.GET("/config", r.machineHandler.GetConfig)
		client.GET("/task", r.taskHandler.Next)
		client.POST("/report", r.taskHandler.Report)
	}

	// Public status surface
	engine.GET("/status", r.statusHandler.Status)
	engine.GET("/status/stream", r.statusHandler.Stream)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Administrative surface
	admin := engine.Group("/admin")
	admin.Use(middleware.AdminAuth())
	{
		jobs := admin.Group("/jobs")
		{
			jobs.POST("", r.jobHandler.Create)
			jobs.GET("", r.jobHandler.List)
			jobs.GET("/:job_id", r.jobHandler.Get)
			jobs.GET("/:job_id/aggregate", r.jobHandler.Aggregate)
		}

		machines := admin.Group("/machines/:machine_id")
		{
			machines.GET("/config", r.machineHandler.AdminGetConfig)
			machines.PUT("/config", r.machineHandler.AdminSetConfig)
			machines.POST("/enable", r.machineHandler.AdminEnable)
			machines.POST("/disable", r.machineHandler.AdminDisable)
			machines.POST("/rename", r.machineHandler.AdminRename)
		}

		admin.POST("/tasks/:task_id/release", r.taskHandler.AdminRelease)
	}

	// Health check
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
