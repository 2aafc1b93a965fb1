package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-custody/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	conversionJournal  *ConversionJournal
	unitOfWork         *UnitOfWork
	configurationStore *ConfigurationStore
	cachedConfig       *CachedConfigurationStore
	sourceAdmin        *SourceAdmin
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.RepositoryFactory, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.unitOfWork != nil && f.configurationStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

// UseConfigurationCache routes configuration reads through cacheService.
func (f *RepositoryFactory) UseConfigurationCache(cacheService repositorycache.CacheService) error {
	if f == nil || f.configurationStore == nil {
		return fmt.Errorf("sqlstore: repository factory stores are not built")
	}
	cached, err := NewCachedConfigurationStore(f.configurationStore, cacheService)
	if err != nil {
		return err
	}
	f.cachedConfig = cached
	return nil
}

func (f *RepositoryFactory) UnitOfWork() core.UnitOfWork {
	if f == nil || f.unitOfWork == nil {
		return nil
	}
	return f.unitOfWork
}

func (f *RepositoryFactory) ConfigurationStore() core.ConfigurationStore {
	if f == nil {
		return nil
	}
	if f.cachedConfig != nil {
		return f.cachedConfig
	}
	if f.configurationStore == nil {
		return nil
	}
	return f.configurationStore
}

func (f *RepositoryFactory) ConversionReader() core.ConversionReader {
	if f == nil || f.conversionJournal == nil {
		return nil
	}
	return f.conversionJournal
}

func (f *RepositoryFactory) ConversionJournal() *ConversionJournal {
	if f == nil {
		return nil
	}
	return f.conversionJournal
}

func (f *RepositoryFactory) SourceAdmin() *SourceAdmin {
	if f == nil {
		return nil
	}
	return f.sourceAdmin
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	journal, err := NewConversionJournal(f.db)
	if err != nil {
		return err
	}
	uow, err := NewUnitOfWork(f.db, journal)
	if err != nil {
		return err
	}
	configurationStore, err := NewConfigurationStore(f.db)
	if err != nil {
		return err
	}
	sourceAdmin, err := NewSourceAdmin(uow)
	if err != nil {
		return err
	}
	f.conversionJournal = journal
	f.unitOfWork = uow
	f.configurationStore = configurationStore
	f.sourceAdmin = sourceAdmin
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
