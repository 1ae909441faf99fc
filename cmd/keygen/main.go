// Command keygen prints a fresh ENCRYPTION_KEY for the credential vault.
// With --jwt it also prints a JWT_SECRET and a bearer token signed with it,
// for trying the API locally with AUTH_ENABLED=true.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/SscSPs/wallet_ledger/internal/platform/vault"
	"github.com/SscSPs/wallet_ledger/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	withJWT := pflag.Bool("jwt", false, "also print a JWT secret and a signed development token")
	subject := pflag.String("subject", "", "token subject (random UUID when empty)")
	issuer := pflag.String("issuer", "wallet-ledger", "token issuer; must match JWT_ISSUER")
	ttl := pflag.Duration("ttl", 24*time.Hour, "token lifetime")
	pflag.Parse()

	key, err := vault.GenerateKey()
	if err != nil {
		fail("generate encryption key", err)
	}
	fmt.Printf("ENCRYPTION_KEY=%s\n", key)

	if !*withJWT {
		return
	}

	secret, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		fail("generate jwt secret", err)
	}
	if *subject == "" {
		*subject = uuid.NewString()
	}
	token, err := utils.GenerateJWT(*subject, secret, *ttl, *issuer)
	if err != nil {
		fail("sign token", err)
	}
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Printf("JWT_ISSUER=%s\n", *issuer)
	fmt.Printf("# Authorization: Bearer %s\n", token)
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "keygen: failed to %s: %v\n", step, err)
	os.Exit(1)
}
