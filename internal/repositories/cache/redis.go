// Package cache provides a Redis-backed read cache decorating the wallet
// repository. Only point lookups are cached; ledger writes and history reads
// always go to PostgreSQL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

// walletTTL bounds staleness: a cached wallet that slips past invalidation is
// served for at most this long.
const walletTTL = 5 * time.Minute

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// CachingWalletRepository wraps a WalletRepositoryWithTx with a Redis
// read-through cache for wallet lookups. Cache failures degrade to direct
// database reads, never to request failures.
type CachingWalletRepository struct {
	portsrepo.WalletRepositoryWithTx
	client *redis.Client
}

func NewCachingWalletRepository(inner portsrepo.WalletRepositoryWithTx, client *redis.Client) *CachingWalletRepository {
	return &CachingWalletRepository{
		WalletRepositoryWithTx: inner,
		client:                 client,
	}
}

var _ portsrepo.WalletRepositoryWithTx = (*CachingWalletRepository)(nil)

func walletIDKey(walletID string) string {
	return fmt.Sprintf("wallet:id:%s", walletID)
}

func walletUserKey(userID string) string {
	return fmt.Sprintf("wallet:user:%s", userID)
}

// FindWalletByID serves from cache when possible, falling back to the database.
func (r *CachingWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if wallet := r.getCached(ctx, walletIDKey(walletID)); wallet != nil {
		return wallet, nil
	}

	wallet, err := r.WalletRepositoryWithTx.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	r.setCached(ctx, wallet)
	return wallet, nil
}

// FindWalletByUserID serves from cache when possible, falling back to the database.
func (r *CachingWalletRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if wallet := r.getCached(ctx, walletUserKey(userID)); wallet != nil {
		return wallet, nil
	}

	wallet, err := r.WalletRepositoryWithTx.FindWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.setCached(ctx, wallet)
	return wallet, nil
}

// SaveWallet passes through and primes the cache on success.
func (r *CachingWalletRepository) SaveWallet(ctx context.Context, wallet domain.Wallet) error {
	if err := r.WalletRepositoryWithTx.SaveWallet(ctx, wallet); err != nil {
		return err
	}
	r.setCached(ctx, &wallet)
	return nil
}

// UpdateWalletStatusInTx passes through and drops the cached wallet.
func (r *CachingWalletRepository) UpdateWalletStatusInTx(ctx context.Context, tx pgx.Tx, walletID string, status domain.WalletStatus, updatedBy string, updatedAt time.Time) error {
	if err := r.WalletRepositoryWithTx.UpdateWalletStatusInTx(ctx, tx, walletID, status, updatedBy, updatedAt); err != nil {
		return err
	}
	r.invalidate(ctx, walletID)
	return nil
}

// UpdateWalletBalanceInTx passes through and drops the cached wallet. The
// invalidation happens before the surrounding transaction commits, so the TTL
// is what bounds the race with concurrent re-caching.
func (r *CachingWalletRepository) UpdateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, newBalance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	if err := r.WalletRepositoryWithTx.UpdateWalletBalanceInTx(ctx, tx, walletID, newBalance, updatedBy, updatedAt); err != nil {
		return err
	}
	r.invalidate(ctx, walletID)
	return nil
}

func (r *CachingWalletRepository) getCached(ctx context.Context, key string) *domain.Wallet {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.GetLoggerFromCtx(ctx).Warn("wallet cache read failed", "key", key, "error", err)
		}
		return nil
	}

	var wallet domain.Wallet
	if err := json.Unmarshal([]byte(val), &wallet); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("wallet cache entry corrupt, dropping", "key", key, "error", err)
		r.client.Del(ctx, key)
		return nil
	}
	return &wallet
}

func (r *CachingWalletRepository) setCached(ctx context.Context, wallet *domain.Wallet) {
	data, err := json.Marshal(wallet)
	if err != nil {
		return
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, walletIDKey(wallet.WalletID), data, walletTTL)
	pipe.Set(ctx, walletUserKey(wallet.UserID), data, walletTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("wallet cache write failed", "walletID", wallet.WalletID, "error", err)
	}
}

func (r *CachingWalletRepository) invalidate(ctx context.Context, walletID string) {
	keys := []string{walletIDKey(walletID)}
	if wallet := r.getCached(ctx, walletIDKey(walletID)); wallet != nil {
		keys = append(keys, walletUserKey(wallet.UserID))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("wallet cache invalidation failed", "walletID", walletID, "error", err)
	}
}
