package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/observability"
)

// KeyPrefix namespaces every cache entry.
const KeyPrefix = "prism:cache:"

// ResponseCache stores canonical responses in Redis hashes keyed by a digest
// of the request.
type ResponseCache struct {
	client redis.Cmdable
}

// NewResponseCache creates a new Redis response cache.
func NewResponseCache(client redis.Cmdable) *ResponseCache {
	return &ResponseCache{client: client}
}

type keyMessage struct {
	Role  domain.Role    `json:"role"`
	Text  string         `json:"content"`
	Parts []domain.Part  `json:"parts,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

type keyMaterial struct {
	Provider          string         `json:"provider"`
	Model             string         `json:"model"`
	Messages          []keyMessage   `json:"messages"`
	SystemInstruction string         `json:"system_instruction,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty"`
	MaxTokens         *int           `json:"max_tokens,omitempty"`
	ThinkingBudget    *int           `json:"thinking_budget,omitempty"`
	Params            map[string]any `json:"params,omitempty"`
}

// Key derives the cache key for a request served by provider. Internal message
// metadata and display options do not affect the key.
func Key(provider string, req *domain.ChatRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	material := keyMaterial{
		Provider:          provider,
		Model:             req.Model,
		Messages:          make([]keyMessage, 0, len(req.Messages)),
		SystemInstruction: req.Options.SystemInstruction,
		Temperature:       req.Options.Temperature,
		MaxTokens:         req.Options.MaxTokens,
		ThinkingBudget:    req.Options.ThinkingBudget,
		Params:            req.Options.Params,
	}
	for _, m := range req.Messages {
		material.Messages = append(material.Messages, keyMessage{
			Role:  m.Role,
			Text:  m.Content,
			Parts: m.Parts,
			Extra: m.Extra(),
		})
	}

	data, err := json.Marshal(material)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}

	sum := sha256.Sum256(data)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get returns the stored response, or domain.ErrCacheMiss.
func (c *ResponseCache) Get(ctx context.Context, provider string, req *domain.ChatRequest) (*domain.Response, error) {
	key, err := Key(provider, req)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)

	data, err := c.client.HGet(ctx, key, "data").Result()
	if errors.Is(err, redis.Nil) {
		logger.Debug("cache miss", observability.String("key", key))
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var resp domain.Response
	if unmarshalErr := json.Unmarshal([]byte(data), &resp); unmarshalErr != nil {
		logger.Warn("failed to decode cache entry",
			observability.String("key", key),
			observability.Error(unmarshalErr))
		return nil, domain.ErrCacheMiss
	}

	return &resp, nil
}

// Set stores resp for the request. A non-positive ttl stores without expiry.
func (c *ResponseCache) Set(
	ctx context.Context,
	provider string,
	req *domain.ChatRequest,
	resp *domain.Response,
	ttl time.Duration,
) error {
	if resp == nil {
		return errors.New("response cannot be nil")
	}

	key, err := Key(provider, req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("storing cache entry",
		observability.String("key", key),
		observability.Int("data_size", len(data)))

	pipe := c.client.Pipeline()

	pipe.HSet(ctx, key,
		"data", string(data),
		"provider", provider,
		"model", req.Model,
		"cached_at", time.Now().Unix(),
	)

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		logger.Error("cache store failed", observability.Error(execErr))
		return fmt.Errorf("failed to store cache entry: %w", execErr)
	}

	return nil
}
