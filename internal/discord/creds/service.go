package creds

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stackbundle/partnerhub/internal/discord"
	"go.uber.org/zap"
)

// cacheTTL keeps parsed credentials hot briefly so the distribution
// channel is not re-read on every request.
const cacheTTL = 60 * time.Second

const fetchLimit = 25

var ErrNoCredentials = errors.New("no_credentials")

// MessageSource reads recent channel messages, newest first.
type MessageSource interface {
	Messages(ctx context.Context, channelID string, limit int) ([]discord.Message, error)
}

// Service resolves the latest posted credentials for a channel, cached
// in redis with a short TTL.
type Service struct {
	log    *zap.Logger
	source MessageSource
	cache  *redis.Client
}

func NewService(log *zap.Logger, source MessageSource, cache *redis.Client) *Service {
	return &Service{
		log:    log.Named("discord.creds"),
		source: source,
		cache:  cache,
	}
}

func (s *Service) Latest(ctx context.Context, channelID string) (Credentials, error) {
	if cached, ok := s.fromCache(ctx, channelID); ok {
		return cached, nil
	}

	messages, err := s.source.Messages(ctx, channelID, fetchLimit)
	if err != nil {
		return Credentials{}, err
	}

	for _, msg := range messages {
		if creds, ok := Parse(msg); ok {
			s.store(ctx, channelID, creds)
			return creds, nil
		}
	}
	return Credentials{}, ErrNoCredentials
}

func cacheKey(channelID string) string {
	return "discord:creds:" + channelID
}

func (s *Service) fromCache(ctx context.Context, channelID string) (Credentials, bool) {
	if s.cache == nil {
		return Credentials{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(channelID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("credentials cache read", zap.Error(err))
		}
		return Credentials{}, false
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, false
	}
	return creds, true
}

func (s *Service) store(ctx context.Context, channelID string, creds Credentials) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(channelID), raw, cacheTTL).Err(); err != nil {
		s.log.Warn("credentials cache write", zap.Error(err))
	}
}
