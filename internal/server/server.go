package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/service"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

const (
	REQUEST_TIMEOUT_MARGIN = 10 * time.Second
)

type Server struct {
	port           uint
	httpLog        bool
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	registry       *service.Registry
	requestTimeout time.Duration
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, registry *service.Registry) *http.Server {
	NewServer := &Server{
		port:           cfg.Port,
		rootContext:    rootContext,
		masterActor:    masterActor,
		registry:       registry,
		httpLog:        cfg.HttpLog,
		requestTimeout: cfg.FrameTaskTimeout() + REQUEST_TIMEOUT_MARGIN,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: NewServer.requestTimeout + 5*time.Second,
	}

	return server
}
