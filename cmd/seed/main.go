package main

import (
	"log"

	"wasitku_backend/internals/configs"
	database "wasitku_backend/internals/databases"
	"wasitku_backend/internals/seeds"
)

// Seeds a database without starting the API. Run from the repo root so the
// JSON fixture paths resolve.
func main() {
	configs.LoadEnv()

	db := configs.InitSeederDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("[SEED] migrate failed: %v", err)
	}
	seeds.RunAllSeeds(db)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
