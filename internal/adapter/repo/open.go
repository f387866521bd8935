package repo

import (
	"context"
	"fmt"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
)

// Open connects the storage driver named by cfg.StoreDriver and returns its
// repositories. The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*domain.Store, error) {
	switch cfg.StoreDriver {
	case infra.StoreDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return &domain.Store{
			Accounts:  NewAccountRepository(runner),
			Donations: NewDonationRepository(runner),
			Ping:      pool.Ping,
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case infra.StoreDriverMongo:
		db, err := infra.NewMongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		accounts := NewMongoAccountRepository(db)
		donations := NewMongoDonationRepository(db)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, fmt.Errorf("account indexes: %w", err)
		}
		if err := donations.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, fmt.Errorf("donation indexes: %w", err)
		}
		return &domain.Store{
			Accounts:  accounts,
			Donations: donations,
			Ping: func(ctx context.Context) error {
				return db.Client().Ping(ctx, nil)
			},
			Close: db.Client().Disconnect,
		}, nil

	case infra.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return NewMemoryStore().Store(), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
