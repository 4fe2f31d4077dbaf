package cache

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

const maxTxAttempts = 8

// RedisStore keeps values as plain keys and tags as redis sets of member keys.
// Each entry also records its own tags so invalidation can drop it from every
// set it joined. Tag generations live in counters bumped by InvalidateTags.
//
// Every key shares the "{namespace}" hash tag so multi-key commands and
// transactions stay in one cluster slot.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
}

var _ interfaces.CacheStore = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "pageblocks"
	}
	return &RedisStore{client: client, namespace: "{" + namespace + "}"}
}

func (r *RedisStore) valueKey(key string) string   { return r.namespace + ":v:" + key }
func (r *RedisStore) tagKey(tag string) string     { return r.namespace + ":t:" + tag }
func (r *RedisStore) versionKey(tag string) string { return r.namespace + ":g:" + tag }
func (r *RedisStore) indexKey(key string) string   { return r.namespace + ":k:" + key }

func (r *RedisStore) entryKey(member string) string {
	return strings.TrimPrefix(member, r.namespace+":v:")
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set writes the value and its tag memberships in one transaction. A
// concurrent write to the same key wins over this one.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	_, err := r.write(ctx, key, value, tags, ttl, nil)
	return err
}

func (r *RedisStore) TagVersions(ctx context.Context, tags ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(tags))
	if len(tags) == 0 {
		return out, nil
	}
	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = r.versionKey(tag)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, tag := range tags {
		out[tag] = parseVersion(values[i])
	}
	return out, nil
}

// SetIfCurrent watches the generation counters in versions and skips the
// write when any of them moved.
func (r *RedisStore) SetIfCurrent(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration, versions map[string]int64) (bool, error) {
	return r.write(ctx, key, value, tags, ttl, versions)
}

func (r *RedisStore) write(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration, versions map[string]int64) (bool, error) {
	member := r.valueKey(key)
	index := r.indexKey(key)

	guarded := make([]string, 0, len(versions))
	for tag := range versions {
		guarded = append(guarded, tag)
	}
	slices.Sort(guarded)
	watched := []string{index}
	for _, tag := range guarded {
		watched = append(watched, r.versionKey(tag))
	}

	stored := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if len(guarded) > 0 {
			current, err := tx.MGet(ctx, watched[1:]...).Result()
			if err != nil {
				return err
			}
			for i, tag := range guarded {
				if parseVersion(current[i]) != versions[tag] {
					return nil
				}
			}
		}

		previous, err := tx.SMembers(ctx, index).Result()
		if err != nil {
			return err
		}
		var stale map[string][]string
		if ttl > 0 {
			if stale, err = r.expiredMembers(ctx, tx, tags, member); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, tag := range previous {
				pipe.SRem(ctx, r.tagKey(tag), member)
			}
			for tag, members := range stale {
				pipe.SRem(ctx, r.tagKey(tag), toAny(members)...)
			}
			pipe.Del(ctx, index)
			pipe.Set(ctx, member, value, ttl)
			for _, tag := range tags {
				pipe.SAdd(ctx, r.tagKey(tag), member)
				pipe.SAdd(ctx, index, tag)
			}
			if ttl > 0 && len(tags) > 0 {
				pipe.Expire(ctx, index, ttl)
			}
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, watched...)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// expiredMembers lists, per tag, members whose value key is gone. Entries with
// a ttl expire without an invalidation, so writing one sweeps its tag sets.
func (r *RedisStore) expiredMembers(ctx context.Context, tx *redis.Tx, tags []string, skip string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, tag := range tags {
		members, err := tx.SMembers(ctx, r.tagKey(tag)).Result()
		if err != nil {
			return nil, err
		}
		members = slices.DeleteFunc(members, func(m string) bool { return m == skip })
		if len(members) == 0 {
			continue
		}
		checks := make([]*redis.IntCmd, len(members))
		if _, err := tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, m := range members {
				checks[i] = pipe.Exists(ctx, m)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		for i, check := range checks {
			if check.Val() == 0 {
				out[tag] = append(out[tag], members[i])
			}
		}
	}
	return out, nil
}

// InvalidateTags bumps each tag's generation, then removes the tagged entries
// from every tag set they joined.
func (r *RedisStore) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := r.client.Incr(ctx, r.versionKey(tag)).Err(); err != nil {
			return err
		}
		if err := r.invalidateTag(ctx, tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisStore) invalidateTag(ctx context.Context, tag string) error {
	setKey := r.tagKey(tag)
	drop := func(tx *redis.Tx) error {
		members, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}
		indexes := make([]*redis.StringSliceCmd, len(members))
		if len(members) > 0 {
			if _, err := tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
				for i, m := range members {
					indexes[i] = pipe.SMembers(ctx, r.indexKey(r.entryKey(m)))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, m := range members {
				for _, other := range indexes[i].Val() {
					if other != tag {
						pipe.SRem(ctx, r.tagKey(other), m)
					}
				}
				pipe.Del(ctx, m, r.indexKey(r.entryKey(m)))
			}
			pipe.Del(ctx, setKey)
			return nil
		})
		return err
	}

	for range maxTxAttempts {
		err := r.client.Watch(ctx, drop, setKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// Clear removes every key under the namespace.
func (r *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := r.namespace + ":*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func parseVersion(value any) int64 {
	s, ok := value.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
