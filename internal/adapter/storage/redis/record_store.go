package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solana-vend-gateway/internal/core/domain"
	"solana-vend-gateway/internal/core/ports"
	"solana-vend-gateway/pkg/apperror"

	goredis "github.com/redis/go-redis/v9"
)

const casRetries = 3

// RecordStore implements ports.TransactionStore on Redis. Values are
// AES-256-GCM sealed JSON, so price and recipient metadata stay
// confidential regardless of how much the Redis deployment is trusted.
//
// TTL is enforced in two layers: the record carries its own expiry,
// checked on every read, and the Redis key gets a native TTL at twice the
// record TTL as a backstop so storage converges even without the sweeper.
type RecordStore struct {
	client *goredis.Client
	encSvc ports.EncryptionService
	prefix string
}

// NewRecordStore creates a Redis-backed encrypted payment record store.
func NewRecordStore(client *goredis.Client, encSvc ports.EncryptionService) *RecordStore {
	return &RecordStore{
		client: client,
		encSvc: encSvc,
		prefix: "payment:",
	}
}

// Put persists a record under its memo with the given TTL.
func (s *RecordStore) Put(ctx context.Context, memo string, record *domain.PaymentRecord, ttl time.Duration) error {
	sealed, err := s.seal(record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+memo, sealed, 2*ttl).Err(); err != nil {
		return fmt.Errorf("redis record put: %w", err)
	}
	return nil
}

// Get returns the record for memo, or nil if it is absent or its TTL has
// elapsed. Callers cannot distinguish the two cases.
func (s *RecordStore) Get(ctx context.Context, memo string) (*domain.PaymentRecord, error) {
	val, err := s.client.Get(ctx, s.prefix+memo).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis record get: %w", err)
	}

	record, err := s.open(val)
	if err != nil {
		return nil, err
	}
	if record.ExpiredAt(time.Now().UTC()) {
		return nil, nil
	}
	return record, nil
}

// CompareAndSet replaces the stored record iff its current status equals
// expected and is not terminal. It runs as an optimistic WATCH transaction
// and retries on concurrent modification; a status mismatch returns false
// without effect.
func (s *RecordStore) CompareAndSet(ctx context.Context, memo string, expected domain.PaymentStatus, record *domain.PaymentRecord) (bool, error) {
	key := s.prefix + memo

	var swapped bool
	txf := func(tx *goredis.Tx) error {
		swapped = false

		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		current, err := s.open(val)
		if err != nil {
			return err
		}
		// Terminal states admit no further transitions, whatever the
		// caller expected.
		if current.Status != expected || current.IsTerminal() || current.ExpiredAt(time.Now().UTC()) {
			return nil
		}

		sealed, err := s.seal(record)
		if err != nil {
			return err
		}

		remaining, err := tx.PTTL(ctx, key).Result()
		if err != nil {
			return err
		}
		if remaining < 0 {
			remaining = 0 // no native expiry on the key
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, sealed, remaining)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return swapped, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue // lost the race, re-read and retry
		}
		return false, fmt.Errorf("redis record cas: %w", err)
	}
	return false, fmt.Errorf("redis record cas: %w", goredis.TxFailedErr)
}

// Delete removes a record. Deleting an absent key is a no-op.
func (s *RecordStore) Delete(ctx context.Context, memo string) error {
	if err := s.client.Del(ctx, s.prefix+memo).Err(); err != nil {
		return fmt.Errorf("redis record delete: %w", err)
	}
	return nil
}

// ScanExpired walks the record keyspace and returns the memos of records
// whose TTL has elapsed but which still occupy storage. Values that no
// longer decrypt are reported too: they can never be served again.
func (s *RecordStore) ScanExpired(ctx context.Context) ([]string, error) {
	var expired []string
	now := time.Now().UTC()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		memo := key[len(s.prefix):]

		val, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			continue // evicted between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("redis record scan get: %w", err)
		}

		record, err := s.open(val)
		if err != nil || record.ExpiredAt(now) {
			expired = append(expired, memo)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis record scan: %w", err)
	}
	return expired, nil
}

func (s *RecordStore) seal(record *domain.PaymentRecord) (string, error) {
	plain, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	sealed, err := s.encSvc.Seal(plain)
	if err != nil {
		return "", apperror.ErrEncryptionFailure(fmt.Errorf("seal record: %w", err))
	}
	return sealed, nil
}

func (s *RecordStore) open(val string) (*domain.PaymentRecord, error) {
	plain, err := s.encSvc.Open(val)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("open record: %w", err))
	}
	record := &domain.PaymentRecord{}
	if err := json.Unmarshal(plain, record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}
