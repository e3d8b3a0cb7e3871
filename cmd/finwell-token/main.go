// Command finwell-token prints a bearer token for a user id, signed with
// JWT_SECRET, for local use against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"finwell/internal/auth"
	"finwell/internal/cli"
	"finwell/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	user := flag.String("user", "", "owner id to embed in the token")
	ttl := flag.Duration("ttl", cfg.JWTTTL, "token lifetime")
	flag.Parse()

	if strings.TrimSpace(*user) == "" {
		fmt.Fprintln(os.Stderr, "usage: finwell-token -user <id> [-ttl 24h]")
		os.Exit(2)
	}
	if len(cfg.JWTSecret) < 32 {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set to at least 32 bytes")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, *ttl).Generate(strings.TrimSpace(*user))
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
