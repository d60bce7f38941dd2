package seeds

import (
	"log"

	"gorm.io/gorm"

	users "wasitku_backend/internals/seeds/users/auth"
	"wasitku_backend/internals/seeds/tests"
)

// RunAllSeeds is idempotent; paths are relative to the repo root.
func RunAllSeeds(db *gorm.DB) {
	log.Println("[SEED] start")

	//* Learn
	tests.SeedTestsFromJSON(db, "internals/seeds/tests/data_tests.json")

	//* Users
	users.SeedUsersFromJSON(db, "internals/seeds/users/auth/data_users.json")

	log.Println("[SEED] done")
}
