// Команда issue-token выпускает JWT для клиента API.
//
//	CONFIG_PATH=./config/local.yaml issue-token -subject telegram-bot -role bot
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
)

func main() {
	subject := flag.String("subject", "", "client name stored in the sub claim")
	role := flag.String("role", jwt.RoleBot, "client role: bot or admin")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *subject == "" {
		logger.Error("subject is required")
		os.Exit(2)
	}

	cfg := config.MustLoad()
	if cfg.JWTSecretKey == "" {
		logger.Error("jwt_secret_key is not set")
		os.Exit(1)
	}

	token, err := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*subject, *role)
	if err != nil {
		logger.Error("failed to generate token", sl.Err(err))
		os.Exit(1)
	}
	fmt.Println(token)
}
