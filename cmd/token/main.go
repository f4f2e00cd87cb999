// Command token prints an operator JWT for GET /v1/status, signed with
// JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iliyamo/hello-db/internal/config"
	"github.com/iliyamo/hello-db/internal/utils"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *subject, utils.RoleOperator, *ttl)
	if err != nil {
		log.Fatalf("token: %v (is JWT_SECRET set?)", err)
	}
	fmt.Fprintln(os.Stdout, tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
