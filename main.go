package main

import (
	"log"
	"net/http"

	"github.com/saveligulas/pet-feeder-network/docs"
	"github.com/saveligulas/pet-feeder-network/internal/api"
	"github.com/saveligulas/pet-feeder-network/internal/clock"
	"github.com/saveligulas/pet-feeder-network/internal/config"
	"github.com/saveligulas/pet-feeder-network/internal/devicelink"
	"github.com/saveligulas/pet-feeder-network/internal/feeder"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 初始化 SQLite 数据库
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open db", zap.Error(err))
	}

	svc := feeder.NewService(db, clock.System(), logger, cfg.RegistrationTTL)

	// set swagger info
	docs.SwaggerInfo.Title = "Pet Feeder API"
	docs.SwaggerInfo.Version = "v0.1.0"

	r := gin.Default()

	api.RegisterRoutes(r, svc, db)

	// swagger UI route (embedded docs package) - ensure UI loads embedded /swagger/doc.json
	// Register the wildcard route first to avoid gin routing conflicts.
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	// ensure visiting /swagger goes to the UI index (temporary redirect)
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	// TCP link for the reader/dispenser firmware.
	link := devicelink.NewServer(svc, logger)
	go func() {
		if err := link.Listen(cfg.DeviceAddr); err != nil {
			logger.Fatal("device link exit", zap.Error(err))
		}
	}()

	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("server exit", zap.Error(err))
	}
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
