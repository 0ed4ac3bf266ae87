package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/internal/repository"
	"github.com/noah-isme/edumanage-api/internal/service"
	"github.com/noah-isme/edumanage-api/pkg/config"
	"github.com/noah-isme/edumanage-api/pkg/database"
	"github.com/noah-isme/edumanage-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	users := service.NewUserService(repository.NewUserRepository(db), nil, logr)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create administrator ===")
	fullName := prompt(reader, "Full name: ")
	email := prompt(reader, "Email: ")

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		logr.Fatal("failed to read password", zap.Error(err))
	}

	user, err := users.Create(context.Background(), dto.CreateUserRequest{
		Email:    email,
		FullName: fullName,
		Role:     models.RoleAdmin,
		Password: string(password),
	})
	if err != nil {
		logr.Fatal("failed to create administrator", zap.Error(err))
	}
	fmt.Printf("created administrator %s (id %d)\n", user.Email, user.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
