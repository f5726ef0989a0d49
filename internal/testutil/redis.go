//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
)

// SeedReplies loads recorded replies from a JSON seed file into the test
// database. The format is { "<device>": { "<identity key>": <reply>, ... } };
// each reply is stored at newtcheck:<device>:<identity key>. Seeded keys are
// removed when the test ends.
func SeedReplies(t *testing.T, seedFile string) {
	t.Helper()

	data, err := os.ReadFile(seedFile)
	if err != nil {
		t.Fatalf("reading seed file %s: %v", seedFile, err)
	}
	var devices map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &devices); err != nil {
		t.Fatalf("parsing seed file %s: %v", seedFile, err)
	}

	client := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: RedisDB})
	ctx := context.Background()

	var keys []string
	pipe := client.TxPipeline()
	for device, replies := range devices {
		for id, reply := range replies {
			key := "newtcheck:" + device + ":" + id
			pipe.Set(ctx, key, []byte(reply), 0)
			keys = append(keys, key)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		client.Close()
		t.Fatalf("seeding replies: %v", err)
	}

	t.Cleanup(func() {
		defer client.Close()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})
}
