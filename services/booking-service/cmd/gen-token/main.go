// Command gen-token mints an HS256 access token for local testing.
//
//	JWT_SECRET=dev gen-token -sub ranim -role admin -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/pkg/auth"
)

func main() {
	_ = godotenv.Load(".env")

	sub := flag.String("sub", "", "username placed in the sub claim")
	role := flag.String("role", auth.RoleUser, "user or admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime, 0 for no expiry")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	flag.Parse()

	if *sub == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != auth.RoleUser && *role != auth.RoleAdmin {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	tok, err := auth.CreateAccessToken(*secret, *sub, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(tok)
}
