package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestConnectPingsServer(t *testing.T) {
	server := miniredis.RunT(t)

	conn, err := Connect(context.Background(), Options{Addr: server.Addr(), RetryDelay: time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	if err := conn.Client.Set(context.Background(), "php_weight", "0", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := server.Get("php_weight"); got != "0" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestConnectGivesUpWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Connect(ctx, Options{Addr: "127.0.0.1:1", RetryDelay: 10 * time.Millisecond}, nil)
	if err == nil {
		t.Fatalf("expected connect to fail")
	}
}

func TestConnectRequiresAddr(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}, nil); err == nil {
		t.Fatalf("expected missing addr error")
	}
}
