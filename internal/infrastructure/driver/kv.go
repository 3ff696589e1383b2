package driver

import (
	"errors"
	"time"
)

// ErrKeyNotFound the key has no value in the store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueDB define a key-value storage interface.
// Implementations report a missing key as ErrKeyNotFound.
type KeyValueDB interface {
	SetEX(key string, value string, expiration time.Duration) error
	Get(key string) (string, error)
	Exists(key string) (bool, error)
	Del(keys ...string) error
	Ping() error
}
