package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pocketwatcher/internal/auth"
	"pocketwatcher/internal/cli"
	"pocketwatcher/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	user := flag.String("user", "", "owner ID placed in the token subject")
	expiresIn := flag.Duration("expires", cfg.JWTExpiresIn, "token lifetime")
	flag.Parse()

	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatalf("JWT_SECRET must be set and at least 32 characters")
	}
	if *expiresIn < time.Minute {
		log.Fatalf("token lifetime %v is shorter than one minute", *expiresIn)
	}

	token, exp, err := auth.NewTokenService(cfg.JWTSecret, *expiresIn).GenerateToken(*user)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.UTC().Format(time.RFC3339))
}
