package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"corpchat-backend/internal/models"
)

// Usage counters live in one hash per provider:
//
//	chat:usage:<provider>  outcome:<outcome> -> n, model:<name> -> n
const (
	usageKeyPrefix     = "chat:usage:"
	outcomeFieldPrefix = "outcome:"
	modelFieldPrefix   = "model:"

	maxModelNameLen = 128
)

type UsageRepo struct {
	client *redis.Client
}

func NewUsageRepo(client *redis.Client) *UsageRepo {
	return &UsageRepo{client: client}
}

// Record counts one chat request. Message content is never stored. Model
// names come from the client, so only successful requests with a name of
// sane length get a model counter.
func (r *UsageRepo) Record(ctx context.Context, provider, model, outcome string) error {
	key := usageKeyPrefix + provider

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, outcomeFieldPrefix+outcome, 1)
	if outcome == models.OutcomeSuccess && model != "" && len(model) <= maxModelNameLen {
		pipe.HIncrBy(ctx, key, modelFieldPrefix+model, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Snapshot returns the counters of every provider seen so far.
func (r *UsageRepo) Snapshot(ctx context.Context) (*models.UsageReport, error) {
	report := &models.UsageReport{Providers: map[string]*models.ProviderUsage{}}

	iter := r.client.Scan(ctx, 0, usageKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		report.Providers[strings.TrimPrefix(key, usageKeyPrefix)] = parseUsage(fields)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan usage keys: %w", err)
	}

	return report, nil
}

func parseUsage(fields map[string]string) *models.ProviderUsage {
	usage := &models.ProviderUsage{Models: map[string]int64{}}
	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == outcomeFieldPrefix+models.OutcomeSuccess:
			usage.Success = n
		case field == outcomeFieldPrefix+models.OutcomeBlocked:
			usage.Blocked = n
		case field == outcomeFieldPrefix+models.OutcomeError:
			usage.Error = n
		case strings.HasPrefix(field, modelFieldPrefix):
			usage.Models[strings.TrimPrefix(field, modelFieldPrefix)] = n
		}
	}
	return usage
}
