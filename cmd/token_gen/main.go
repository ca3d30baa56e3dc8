package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/tokens"
)

// Mints an operator bearer token for the destructive endpoints.
func main() {
	subject := flag.String("subject", "operator", "Token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	key := os.Getenv("JWT_SIGNING_KEY")
	if key == "" {
		log.Fatal("ENV JWT_SIGNING_KEY required")
	}

	token, err := tokens.NewManager(key).GenerateToken(*subject, *ttl)
	if err != nil {
		log.Fatalf("Token generation failed: %v", err)
	}
	fmt.Println(token)
}
