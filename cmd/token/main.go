// Command token prints a signed API token for local development, using the
// server's secret key and token validity.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/remotefiles/internal/flagx"
	"github.com/dmitrijs2005/remotefiles/internal/server/auth"
	"github.com/dmitrijs2005/remotefiles/internal/server/config"
)

func main() {
	var userID string
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	fs.StringVar(&userID, "user", "dev", "user id to put into the token")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-user", "--user"}))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	token, err := auth.GenerateToken(userID, []byte(cfg.SecretKey), cfg.TokenValidityDuration)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
}
