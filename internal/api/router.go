package api

import (
	"net/http"

	"github.com/saveligulas/pet-feeder-network/internal/feeder"
	"github.com/saveligulas/pet-feeder-network/internal/handlers"
	"github.com/saveligulas/pet-feeder-network/internal/store"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, svc *feeder.Service, db *store.SQLiteStore) {
	// Scan endpoint for the reader firmware; path kept compatible with the
	// device side.
	r.POST("/tag", func(c *gin.Context) {
		handlers.ScanHandler(c, svc)
	})

	api := r.Group("/api")
	{
		api.POST("/registration", func(c *gin.Context) {
			handlers.BeginRegistrationHandler(c, svc)
		})
		api.GET("/registration", func(c *gin.Context) {
			handlers.PollRegistrationHandler(c, svc)
		})

		api.POST("/pets", func(c *gin.Context) {
			handlers.CreatePetHandler(c, db)
		})
		api.GET("/pets", func(c *gin.Context) {
			handlers.ListPetsHandler(c, db)
		})
		api.DELETE("/pets/:id", func(c *gin.Context) {
			handlers.DeletePetHandler(c, db)
		})

		api.GET("/activity", func(c *gin.Context) {
			handlers.ActivityHandler(c, svc)
		})
		api.DELETE("/activity", func(c *gin.Context) {
			handlers.ClearActivityHandler(c, svc)
		})
	}

	// 测试服务器存活用的接口
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Note: Swagger UI is served by gin-swagger at /swagger/*any (embedded docs)
}
