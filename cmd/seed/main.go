// Seeds the admin account and the hidden operator account. Safe to run
// repeatedly; existing accounts are left untouched.
package main

import (
	"errors"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/himilo-dev/homeman-api/internal/config"
	"github.com/himilo-dev/homeman-api/internal/db"
	"github.com/himilo-dev/homeman-api/internal/logger"
	"github.com/himilo-dev/homeman-api/internal/models"
	"github.com/himilo-dev/homeman-api/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		panic(err)
	}
	log := zap.L()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	seed(gdb, log, models.User{
		Name:     "HOME-MAN Admin",
		Email:    "admin@homeman.app",
		Role:     models.RoleAdmin,
		Location: "hargeisa",
	}, "ChangeMe123!")

	// Operator account, flagged hidden so it never shows in pro listings.
	seed(gdb, log, models.User{
		Name:     "Operator",
		Email:    "operator@homeman.app",
		Role:     models.RolePro,
		Location: "hargeisa",
		IsHidden: true,
	}, "ChangeMe123!")
}

func seed(gdb *gorm.DB, log *zap.Logger, u models.User, password string) {
	var existing models.User
	err := gdb.Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		log.Info("account already exists", zap.String("email", u.Email))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("seed lookup failed", zap.Error(err))
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Fatal("hash failed", zap.Error(err))
	}
	u.Password = hashed

	if err := gdb.Create(&u).Error; err != nil {
		log.Fatal("seed create failed", zap.Error(err))
	}
	log.Info("account seeded", zap.String("email", u.Email), zap.String("role", string(u.Role)))
}
