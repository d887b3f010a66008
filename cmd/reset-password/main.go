package main

import (
	"context"
	"flag"
	"log"

	"cafe-stock/internal/config"
	"cafe-stock/internal/repository"
	"cafe-stock/internal/service"
	"cafe-stock/pkg/database"
	"cafe-stock/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", service.BootstrapUsername, "user whose password is reset")
	password := flag.String("password", service.BootstrapPassword, "new password")
	flag.Parse()

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.LoadEnv()

	zapLog, err := logger.New(logger.Config{IsDevelopment: true, Level: cfg.Logger.Level})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, zapLog, false)
	if err != nil {
		zapLog.Fatal("connect database", zap.Error(err))
	}

	// 3. Find user
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByUsername(ctx, *username)
	if err != nil {
		zapLog.Fatal("user not found", zap.String("username", *username), zap.Error(err))
	}

	// 4. Hash new password
	if err := user.SetPassword(*password); err != nil {
		zapLog.Fatal("hash password", zap.Error(err))
	}

	// 5. Update and sign out every session
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUsers := users.WithTx(tx)
		if err := txUsers.UpdatePassword(ctx, user.ID, user.Password); err != nil {
			return err
		}
		return txUsers.UpdateTokenVersion(ctx, user.ID, uuid.New().String())
	})
	if err != nil {
		zapLog.Fatal("update password", zap.Error(err))
	}

	zapLog.Info("password reset, existing sessions signed out", zap.String("username", user.Username))
}
