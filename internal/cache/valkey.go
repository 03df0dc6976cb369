// Package cache holds the Valkey (Redis-compatible) connection shared
// by the session store and the full-page cache for anonymous traffic.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectValkey dials the Valkey server and verifies it is reachable
// before the HTTP server starts taking requests. Sessions and the page
// cache share the returned client.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         0,
		ClientName: "modernblog",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect valkey at %s: %w", addr, err)
	}

	slog.Info("valkey ready", "addr", addr)
	return client, nil
}
