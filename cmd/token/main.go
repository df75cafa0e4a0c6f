package main

import (
	"fmt"
	"os"

	"pos-inventory/internal/config"
	"pos-inventory/internal/logger"
	"pos-inventory/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// token prints a bearer token for an operator, signed with the API's JWT_SECRET
func main() {
	userID := pflag.String("user", "", "operator id carried in the user_id claim")
	role := pflag.String("role", service.RoleCashier, "operator role: admin or cashier")
	ttl := pflag.Duration("ttl", service.DefaultTokenExpiration, "token lifetime")
	pflag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if *userID == "" {
		pflag.Usage()
		os.Exit(2)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := service.NewTokenService(cfg.JWT.Secret).IssueToken(*userID, *role, *ttl)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err), zap.String("role", *role))
	}

	log.Debug("Token issued", zap.String("user_id", *userID), zap.String("role", *role), zap.Duration("ttl", *ttl))
	fmt.Println(token)
}
