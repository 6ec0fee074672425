// Command keygen creates development credentials: a random JWT signing secret, or a
// bearer token signed with the configured JWT_SECRET.
//
//	go run ./cmd/keygen secret
//	go run ./cmd/keygen token -user <id> -email <email> -ttl 24h
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/internal/service"
	"github.com/aihubhq/aihub/pkg/logger"
)

const secretBytes = 32

var loadConfig = config.Load

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: keygen secret | keygen token -user <id> [-email <email>] [-ttl 24h]")
	}

	switch args[0] {
	case "secret":
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Generated JWT secret (set as JWT_SECRET):")
		fmt.Fprintln(out, secret)
		return nil
	case "token":
		return mintToken(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func mintToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.String("user", "", "user id placed in the sub claim")
	email := fs.String("email", "", "email claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return errors.New("-user is required")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	auth, err := service.NewAuthService(service.AuthServiceConfig{
		JWTSecret: cfg.Security.JWTSecret,
		JWTIssuer: cfg.Security.JWTIssuer,
		Logger:    logger.NewLoggerWithLevel("error"),
	})
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken(*userID, *email, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
