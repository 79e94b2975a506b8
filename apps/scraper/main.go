package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stackbundle/partnerhub/internal/discord"
	"github.com/stackbundle/partnerhub/internal/discord/ingest"
	"go.uber.org/zap"
)

// scraper is the daily batch job that pulls guild members from Discord,
// buckets them by join date and traffic source, and pushes the counts
// to the analytics API. It runs to completion and exits.
func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	token := os.Getenv("DISCORD_BOT_TOKEN")
	guildID := os.Getenv("DISCORD_GUILD_ID")
	analyticsURL := os.Getenv("ANALYTICS_URL")
	analyticsToken := os.Getenv("ANALYTICS_TOKEN")
	if analyticsToken == "" {
		// CREDENTIALS_SECRET is the name older deployments set for the
		// push token.
		analyticsToken = os.Getenv("CREDENTIALS_SECRET")
	}
	if token == "" || guildID == "" || analyticsURL == "" {
		log.Fatal("DISCORD_BOT_TOKEN, DISCORD_GUILD_ID and ANALYTICS_URL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	pipeline := ingest.NewPipeline(
		log,
		discord.NewClient(token),
		ingest.NewAnalyticsClient(analyticsURL, analyticsToken),
		guildID,
		ingest.Options{
			SourceRoles:  parseRoleMap(os.Getenv("SOURCE_ROLE_MAP")),
			PaymentRoles: parseRoleSet(os.Getenv("PAYMENT_ROLE_IDS")),
		},
	)

	if err := pipeline.Run(ctx); err != nil {
		log.Fatal("scrape failed", zap.Error(err))
	}
	log.Info("scrape complete")
}

// parseRoleMap parses "roleID=source,roleID=source" pairs.
func parseRoleMap(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		id, source, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || id == "" || source == "" {
			continue
		}
		out[id] = source
	}
	return out
}

// parseRoleSet parses a comma separated list of role ids.
func parseRoleSet(raw string) map[string]bool {
	out := map[string]bool{}
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out[id] = true
	}
	return out
}
