// Command admin bootstraps an administrator account. Self-service
// registration never grants the admin role, so the first admin has to be
// created out of band, directly against the database.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/dealkeeper/internal/server/config"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/dmitrijs2005/dealkeeper/internal/server/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func getUserName(reader *bufio.Reader) (string, error) {
	fmt.Print("Admin username\n> ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func getPassword() ([]byte, error) {
	fmt.Print("Admin password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	username, err := getUserName(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	password, err := getPassword()
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword(password, cfg.BcryptCost)
	if err != nil {
		return err
	}

	sm, err := storage.NewPostgresRedisManager(cfg.DatabaseDSN, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer sm.Close()

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	}

	if err := sm.Credentials().Create(ctx, user); err != nil {
		return err
	}

	fmt.Printf("admin %q created (id %s)\n", user.UserName, user.ID)
	return nil
}

func main() {
	cfg := config.LoadConfig()
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
