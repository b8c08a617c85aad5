package storage

import (
	"testing"
)

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-redis-url"); err == nil {
		t.Error("NewRedisStore(bad url) did not error")
	}
}
