// authorize-strava performs the one-time OAuth bootstrap against Strava.
// It prints the consent URL, waits for the authorization code from the
// redirect, exchanges it for a token, and writes the configured token file.
// After this runs once, sync-activities keeps the token fresh on its own.
//
// Usage: go run ./scripts/authorize-strava
//
// Configuration comes from config.yaml plus the standard environment
// overrides; STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET must be set. The
// redirect URI must match the OAuth application's settings on Strava.
//
// Flags:
//
//	-config     Path to the YAML config file (default: config.yaml)
//	-redirect   OAuth redirect URI registered with the application
//	            (default: http://localhost:8080)
//	-code       Authorization code from the redirect; when omitted the code
//	            is read interactively from stdin
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/config"
	"github.com/paceline-ai/paceline-engine/pkg/logging"
	"github.com/paceline-ai/paceline-engine/pkg/strava"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	redirectURI := flag.String("redirect", "http://localhost:8080", "OAuth redirect URI")
	code := flag.String("code", "", "authorization code from the redirect")
	flag.Parse()

	if err := run(*configPath, *redirectURI, *code); err != nil {
		fmt.Fprintf(os.Stderr, "authorize-strava: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, redirectURI, code string) error {
	cfg, err := config.LoadFrom(configPath, "dev")
	if err != nil {
		return err
	}
	if cfg.Strava.ClientID == "" || cfg.Strava.ClientSecret == "" {
		return fmt.Errorf("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET must be set")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store := strava.NewTokenStore(cfg.Strava.TokenFile)
	client := strava.NewClient(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.PerPage, store, logger)

	if code == "" {
		fmt.Println("Open this URL in a browser and approve access:")
		fmt.Println()
		fmt.Println("  " + client.AuthorizationURL(redirectURI))
		fmt.Println()
		fmt.Print("Enter the authorization code from the redirect URL: ")

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("no authorization code provided")
		}
		code = strings.TrimSpace(scanner.Text())
	}
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := client.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		return fmt.Errorf("%s", logging.SanitizeError(err))
	}

	fmt.Printf("Token saved to %s (expires %s)\n",
		cfg.Strava.TokenFile, time.Unix(token.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}
