package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// ValkeyClient caches BasicAuth lookups and derived event availability.
// Everything here is best-effort: a miss or an error always falls back to
// the database.
type ValkeyClient struct {
	client       rueidis.Client
	usersHashKey string
}

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	if cfg.UsersHashKey == "" {
		cfg.UsersHashKey = "users:auth"
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       client,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

func authCacheField(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordHash))
}

func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	field := authCacheField(email, passwordHash)

	userIDStr, err := v.client.Do(ctx,
		v.client.B().Hget().Key(v.usersHashKey).Field(field).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	field := authCacheField(email, passwordHash)

	return v.client.Do(ctx,
		v.client.B().Hset().Key(v.usersHashKey).
			FieldValue().FieldValue(field, strconv.FormatInt(userID, 10)).
			Build()).Error()
}

// GetAvailabilityRaw returns the cached availability JSON for an event.
func (v *ValkeyClient) GetAvailabilityRaw(ctx context.Context, eventID int64) ([]byte, error) {
	key := fmt.Sprintf("events:availability:%d", eventID)

	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// SetAvailability caches availability JSON with a short TTL. Availability is
// display data; the reservation path never reads it.
func (v *ValkeyClient) SetAvailability(ctx context.Context, eventID int64, raw []byte) error {
	key := fmt.Sprintf("events:availability:%d", eventID)

	return v.client.Do(ctx,
		v.client.B().Set().Key(key).Value(rueidis.BinaryString(raw)).
			Ex(5 * time.Second).Build()).Error()
}

func (v *ValkeyClient) Close() error {
	v.client.Close()
	return nil
}
