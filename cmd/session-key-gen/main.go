package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"event-board.backend/pkg/crypto"
)

const (
	sessionKeyHexLen = 64
	minSecretHexLen  = 32
)

func main() {
	secretLen := flag.Int("jwt-hex-len", 64, "JWT secret length in hex chars (must be even, at least 32)")
	flag.Parse()

	if err := run(os.Stdout, *secretLen); err != nil {
		log.Fatal(err)
	}
}

func validateInputs(secretHexLen int) error {
	if secretHexLen < minSecretHexLen || secretHexLen%2 != 0 {
		return fmt.Errorf("invalid jwt-hex-len: %d (must be even and at least %d)", secretHexLen, minSecretHexLen)
	}
	return nil
}

// buildSecrets returns a SESSION_ENCRYPTION_KEY (AES-256, hex) and a JWT_SECRET.
func buildSecrets(secretHexLen int) (string, string, error) {
	if err := validateInputs(secretHexLen); err != nil {
		return "", "", err
	}
	sessionKey, err := crypto.GenerateRandomHex(sessionKeyHexLen / 2)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate session key: %w", err)
	}
	jwtSecret, err := crypto.GenerateRandomHex(secretHexLen / 2)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return sessionKey, jwtSecret, nil
}

func run(w io.Writer, secretHexLen int) error {
	sessionKey, jwtSecret, err := buildSecrets(secretHexLen)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Generated secrets")
	fmt.Fprintf(w, "SESSION_ENCRYPTION_KEY=%s\n", sessionKey)
	fmt.Fprintf(w, "JWT_SECRET=%s\n", jwtSecret)
	return nil
}
