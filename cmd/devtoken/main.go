// Package main prints a signed bearer token for local development and manual testing.
// Tokens carry identity only; admin rights come from the user_roles table.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"eventregistration/config"
	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/domain"
)

func main() {
	var (
		userID   = flag.String("user-id", "", "subject (user ID) of the token")
		email    = flag.String("email", "", "email claim")
		verified = flag.Bool("verified", true, "email_verified claim")
		ttl      = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	if *userID == "" || *email == "" {
		log.Fatal("-user-id and -email are required")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to issue development tokens in production")
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(domain.Principal{
		UserID:        *userID,
		Email:         *email,
		EmailVerified: *verified,
	}, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
