package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type HealthController struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Progress *service.ProgressService
	Sync     *service.SyncService
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, progress *service.ProgressService, sync *service.SyncService) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Progress: progress, Sync: sync}
}

// HealthCheck reports component status. The service stays up when storage
// tiers are down; progress then lives in memory only, which the
// storageAvailable flag surfaces.
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	dbStatus := "up"
	if sqlDB, err := c.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}
	components["database"] = dbStatus

	redisStatus := "up"
	if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
		redisStatus = "down"
	}
	components["redis"] = redisStatus

	state, _ := c.Sync.State()

	util.Success(ctx, gin.H{
		"status":           "ok",
		"components":       components,
		"storageAvailable": c.Progress.StorageAvailable(),
		"syncState":        string(state),
	})
}
