package auth

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"wasitku_backend/internals/constants"
	authRepo "wasitku_backend/internals/features/users/auth/repository"
	authService "wasitku_backend/internals/features/users/auth/service"
	profileModel "wasitku_backend/internals/features/users/profiles/model"
	userModel "wasitku_backend/internals/features/users/user/model"
)

type UserSeed struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
}

// SeedUsersFromJSON creates confirmed demo accounts through the same path as
// registration, then applies the seeded role. Existing emails are skipped.
func SeedUsersFromJSON(db *gorm.DB, filePath string) {
	log.Println("[SEED] reading", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("[SEED] read %s: %v", filePath, err)
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		log.Fatalf("[SEED] decode %s: %v", filePath, err)
	}

	ctx := context.Background()
	for _, data := range inputs {
		if _, err := authRepo.FindUserByEmail(db, data.Email); err == nil {
			log.Printf("[SEED] user %s exists, skipped", data.Email)
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[SEED] lookup %s: %v", data.Email, err)
			continue
		}

		hashed, err := authService.HashPassword(data.Password)
		if err != nil {
			log.Printf("[SEED] hash password for %s: %v", data.Email, err)
			continue
		}
		now := time.Now().UTC()
		user := userModel.UserModel{
			Email:            data.Email,
			Password:         hashed,
			IsActive:         true,
			EmailConfirmedAt: &now,
		}
		if _, err := authRepo.CreateAccount(ctx, db, &user, data.Name, nil); err != nil {
			log.Printf("[SEED] create %s: %v", data.Email, err)
			continue
		}

		if data.Role != "" && data.Role != constants.RoleUser && constants.IsValidRole(data.Role) {
			if err := db.Model(&profileModel.ProfileModel{}).
				Where("id = ?", user.ID).
				Update("role", data.Role).Error; err != nil {
				log.Printf("[SEED] role for %s: %v", data.Email, err)
			}
		}
		log.Printf("[SEED] user %s created", data.Email)
	}
}
