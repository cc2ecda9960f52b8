package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/AzielCF/az-funnel/core/config"
	valkeylib "github.com/valkey-io/valkey-go"
)

const DefaultConnectTimeout = 5 * time.Second

type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// ConfigFromDatabase maps the application database settings to a client Config.
func ConfigFromDatabase(db coreconfig.DatabaseConfig) Config {
	return Config{
		Address:   db.ValkeyAddress,
		Password:  db.ValkeyPassword,
		DB:        db.ValkeyDB,
		KeyPrefix: db.ValkeyKeyPrefix,
	}
}

// Client wraps valkey-go with the application key prefix.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient connects and pings within the connect timeout. Close it when done.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
		Password:    cfg.Password,
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{inner: inner, keyPrefix: prefix}, nil
}

func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the prefix: Key("media", "preview") -> "azfunnel:media:preview".
func (c *Client) Key(parts ...string) string {
	return c.keyPrefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsNil reports whether err is a Valkey NIL reply.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
