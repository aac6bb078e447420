package database

import (
	"Backend-QA-Portal/src/logger"

	"github.com/hibiken/asynq"
)

var AsynqClient *asynq.Client

// InitAsynq initializes Asynq client only if Redis is available
func InitAsynq() {
	log := logger.Component("database")
	if RedisClient == nil || RedisURI == "" {
		log.Warn().Msg("⚠️ Redis not available. Asynq client will not be initialized.")
		return
	}

	AsynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: RedisURI})
	log.Info().Msg("✅ Asynq Client initialized successfully")
}
