// Command createadmin bootstraps the first administrator account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"farm_ops_backend/internal/config"
	"farm_ops_backend/internal/database"
	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/pkg/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

func main() {
	username := flag.String("username", "admin", "login name of the new administrator")
	email := flag.String("email", "", "email address of the new administrator")
	password := flag.String("password", "", "initial password (or set ADMIN_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if err := validateInput(*username, *email, *password); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user := &models.User{
		Username: strings.TrimSpace(*username),
		Email:    strings.ToLower(strings.TrimSpace(*email)),
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	}
	created, err := repositories.NewUserRepository(db).CreateUser(ctx, db, user, string(hashed))
	if err != nil {
		log.Fatal().Err(err).Str("username", user.Username).Msg("Failed to create administrator")
	}
	utils.LogInfo("Administrator created", map[string]interface{}{"id": created.ID, "username": created.Username})
}

func validateInput(username, email, password string) error {
	switch {
	case utils.IsEmpty(username):
		return fmt.Errorf("username is required")
	case !utils.IsValidEmail(email):
		return fmt.Errorf("a valid -email is required")
	case !utils.IsValidPasswordLength(password, minPasswordLength):
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
