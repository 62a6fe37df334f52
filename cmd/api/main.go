package main

import (
	"log"

	"provet-system/config"
	"provet-system/internal/database"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	r := setupRouter(cfg, db, redisClient)

	log.Printf("API listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
