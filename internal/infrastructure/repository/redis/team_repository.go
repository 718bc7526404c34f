package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gilangnh/matchday/internal/domain/team"
)

const defaultKeyPrefix = "matchday:team:"

// TeamRepository persists team display mappings in redis, one hash per team
// display name.
type TeamRepository struct {
	client    *goredis.Client
	keyPrefix string
}

func NewTeamRepository(client *goredis.Client, keyPrefix string) *TeamRepository {
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &TeamRepository{client: client, keyPrefix: keyPrefix}
}

func (r *TeamRepository) Get(ctx context.Context, name string) (team.Info, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.key(name)).Result()
	if err != nil {
		return team.Info{}, false, fmt.Errorf("read team mapping %q: %w", name, err)
	}
	if len(fields) == 0 {
		return team.Info{}, false, nil
	}

	return team.Info{
		ShortName: fields["short_name"],
		Emoji:     fields["emoji"],
	}, true, nil
}

func (r *TeamRepository) Save(ctx context.Context, name string, info team.Info) error {
	if err := r.client.HSet(ctx, r.key(name),
		"short_name", info.ShortName,
		"emoji", info.Emoji,
	).Err(); err != nil {
		return fmt.Errorf("save team mapping %q: %w", name, err)
	}
	return nil
}

func (r *TeamRepository) key(name string) string {
	return r.keyPrefix + name
}
