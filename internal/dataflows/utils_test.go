package dataflows

import (
	"errors"
	"testing"
	"time"
)

func TestCacheManagerRoundTrip(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Hour, true)

	in := map[string]string{"symbol": "BTC"}
	if err := cache.Set("test", "method", "key", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out map[string]string
	if !cache.Get("test", "method", "key", &out) {
		t.Fatal("expected cache hit")
	}
	if out["symbol"] != "BTC" {
		t.Errorf("got %q, want BTC", out["symbol"])
	}
}

func TestCacheManagerMiss(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Hour, true)

	var out string
	if cache.Get("test", "method", "missing", &out) {
		t.Error("expected cache miss for absent key")
	}
}

func TestCacheManagerDisabled(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Hour, false)

	cache.Set("test", "method", "key", "value")
	var out string
	if cache.Get("test", "method", "key", &out) {
		t.Error("disabled cache should never hit")
	}
}

func TestCacheManagerStaleRead(t *testing.T) {
	cache := NewCacheManager(t.TempDir(), time.Nanosecond, true)

	cache.Set("test", "method", "key", "value")
	time.Sleep(time.Millisecond)

	var out string
	if cache.Get("test", "method", "key", &out) {
		t.Error("expired entry should miss on Get")
	}
	if !cache.GetStale("test", "method", "key", &out) {
		t.Fatal("GetStale should return expired entries")
	}
	if out != "value" {
		t.Errorf("got %q, want value", out)
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	err := WithRetry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	err := WithRetry(cfg, func() error { return errors.New("always fails") })
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("BTC"); err != nil {
		t.Errorf("BTC should be valid: %v", err)
	}
	if err := ValidateSymbol(""); err == nil {
		t.Error("empty symbol should be invalid")
	}
	if err := ValidateSymbol("THISNAMEISWAYTOOLONG"); err == nil {
		t.Error("overlong symbol should be invalid")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol(" btc "); got != "BTC" {
		t.Errorf("got %q, want BTC", got)
	}
}
