package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/util"
)

const keyPrefix = "newtcheck"

// Store keeps device replies in Redis under
// newtcheck:<device>:<identity-key>, one JSON value per key.
type Store struct {
	client *redis.Client
	// TTL expires recorded replies; zero keeps them.
	TTL time.Duration
}

// NewStore connects lazily to the Redis server at addr.
func NewStore(addr string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// NewStoreFromClient wraps an existing client.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Key returns the Redis key for one device reply.
func Key(device string, req Request) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, device, req.Key())
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Put records one reply.
func (s *Store) Put(ctx context.Context, device string, req Request, reply any) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encoding reply for '%s': %w", req.Text, err)
	}
	return s.client.Set(ctx, Key(device, req), data, s.TTL).Err()
}

// Get returns the recorded reply. A missing key is util.ErrCommandFailed;
// an unreachable server is a device-level failure.
func (s *Store) Get(ctx context.Context, device string, req Request) (any, error) {
	data, err := s.client.Get(ctx, Key(device, req)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: no recorded reply for '%s'", util.ErrCommandFailed, req.Text)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewDeviceError(device, fmt.Errorf("replay store: %w", err))
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: decoding recorded reply for '%s': %v", util.ErrCommandFailed, req.Text, err)
	}
	return v, nil
}

// Clear deletes every reply recorded for device and returns how many keys
// were removed.
func (s *Store) Clear(ctx context.Context, device string) (int, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, fmt.Sprintf("%s:%s:*", keyPrefix, device), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Replay answers requests from a Store, standing in for live devices.
type Replay struct {
	Store *Store
}

// Connect fails with a device-level error when the store is unreachable.
func (r *Replay) Connect(ctx context.Context, dev *inventory.Device) error {
	if err := r.Store.Ping(ctx); err != nil {
		return NewDeviceError(dev.Name, fmt.Errorf("replay store: %w", err))
	}
	return nil
}

func (r *Replay) Close(*inventory.Device) error { return nil }

func (r *Replay) Send(ctx context.Context, dev *inventory.Device, req Request) (any, error) {
	return r.Store.Get(ctx, dev.Name, req)
}

// Recorder wraps a transport and records every successful reply.
type Recorder struct {
	Inner Transport
	Store *Store
}

func (r *Recorder) Connect(ctx context.Context, dev *inventory.Device) error {
	if c, ok := r.Inner.(Connector); ok {
		return c.Connect(ctx, dev)
	}
	return nil
}

func (r *Recorder) Close(dev *inventory.Device) error {
	if c, ok := r.Inner.(Connector); ok {
		return c.Close(dev)
	}
	return nil
}

// Send forwards req and records the reply. A failed write is logged; the
// reply is still returned.
func (r *Recorder) Send(ctx context.Context, dev *inventory.Device, req Request) (any, error) {
	reply, err := r.Inner.Send(ctx, dev, req)
	if err != nil {
		return nil, err
	}
	if perr := r.Store.Put(ctx, dev.Name, req, reply); perr != nil {
		util.WithDevice(dev.Name).Warnf("Recording '%s' failed: %v", req.Text, perr)
	}
	return reply, nil
}
