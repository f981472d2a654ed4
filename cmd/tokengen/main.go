// Command tokengen mints an access token for an account, signed with the
// server's secret key. Identity is issued outside branchkeeper; this is the
// development stand-in for that issuer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/server/auth"
)

func main() {
	account := flag.String("account", "", "account id to embed in the token")
	secret := flag.String("s", os.Getenv("SECRET_KEY"), "JWT HMAC secret key")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *account == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := auth.GenerateToken(*account, []byte(*secret), *ttl)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tok)
}
