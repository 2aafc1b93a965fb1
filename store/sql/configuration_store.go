package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-custody/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ConfigurationRowID identifies the single configuration row of a custody
// database.
const ConfigurationRowID = "6f0a3c1e-8d4b-4f5e-9a71-2c3d4e5f6a7b"

type ConfigurationStore struct {
	db   *bun.DB
	repo repository.Repository[*configurationRecord]
}

func NewConfigurationStore(db *bun.DB) (*ConfigurationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*configurationRecord](db, configurationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid configuration repository wiring: %w", err)
		}
	}
	return &ConfigurationStore{db: db, repo: repo}, nil
}

func (s *ConfigurationStore) Load(ctx context.Context) (core.Configuration, error) {
	if s == nil || s.db == nil {
		return core.Configuration{}, fmt.Errorf("sqlstore: configuration store is not configured")
	}
	record, err := s.find(ctx, s.db)
	if err != nil {
		return core.Configuration{}, err
	}
	if record == nil {
		return core.Configuration{}, core.ErrConfigurationNotFound
	}
	return record.toDomain()
}

func (s *ConfigurationStore) Save(ctx context.Context, cfg core.Configuration) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: configuration store is not configured")
	}
	updatedAt := cfg.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.find(ctx, tx)
		if err != nil {
			return err
		}
		if existing == nil {
			record := &configurationRecord{
				ID:            ConfigurationRowID,
				Owner:         accountKey(cfg.Owner),
				SourceAsset:   accountKey(cfg.SourceAsset),
				Custodian:     accountKey(cfg.Custodian),
				WrapEnabled:   cfg.WrapEnabled,
				UnwrapEnabled: cfg.UnwrapEnabled,
				CreatedAt:     updatedAt,
				UpdatedAt:     updatedAt,
			}
			_, err := s.repo.CreateTx(ctx, tx, record)
			return err
		}
		_, err = tx.NewUpdate().
			Model((*configurationRecord)(nil)).
			Set("owner = ?", accountKey(cfg.Owner)).
			Set("source_asset = ?", accountKey(cfg.SourceAsset)).
			Set("custodian = ?", accountKey(cfg.Custodian)).
			Set("wrap_enabled = ?", cfg.WrapEnabled).
			Set("unwrap_enabled = ?", cfg.UnwrapEnabled).
			Set("updated_at = ?", updatedAt).
			Where("id = ?", ConfigurationRowID).
			Exec(ctx)
		return err
	})
}

func (s *ConfigurationStore) find(ctx context.Context, db bun.IDB) (*configurationRecord, error) {
	record := &configurationRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", ConfigurationRowID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *configurationRecord) toDomain() (core.Configuration, error) {
	owner, err := parseAccount(r.Owner)
	if err != nil {
		return core.Configuration{}, err
	}
	sourceAsset, err := parseAccount(r.SourceAsset)
	if err != nil {
		return core.Configuration{}, err
	}
	custodian, err := parseAccount(r.Custodian)
	if err != nil {
		return core.Configuration{}, err
	}
	return core.Configuration{
		Owner:         owner,
		SourceAsset:   sourceAsset,
		Custodian:     custodian,
		WrapEnabled:   r.WrapEnabled,
		UnwrapEnabled: r.UnwrapEnabled,
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}
