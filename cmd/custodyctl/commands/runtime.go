package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-custody/adapters/gologger"
	"github.com/goliatone/go-custody/core"
	custodymigrations "github.com/goliatone/go-custody/migrations"
	sqlstore "github.com/goliatone/go-custody/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"gopkg.in/yaml.v3"
)

type dbConfig struct {
	driver string
	dsn    string
	debug  bool
}

func (c dbConfig) GetDebug() bool                { return c.debug }
func (c dbConfig) GetDriver() string             { return c.driver }
func (c dbConfig) GetServer() string             { return c.dsn }
func (c dbConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c dbConfig) GetOtelIdentifier() string     { return "custodyctl" }

// runtime is everything a subcommand needs once the database is open.
type runtime struct {
	client      *persistence.Client
	factory     *sqlstore.RepositoryFactory
	coordinator *core.Coordinator
	logger      *gologger.ZerologLogger
}

func (r *runtime) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func openRuntime(ctx context.Context, opts *rootOptions) (*runtime, error) {
	driver := strings.TrimSpace(opts.driver)
	dialectName, err := custodymigrations.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.dsn) == "" {
		return nil, fmt.Errorf("custodyctl: --dsn is required")
	}

	sqlDB, err := sql.Open(sqlDriverName(dialectName), opts.dsn)
	if err != nil {
		return nil, fmt.Errorf("custodyctl: open database: %w", err)
	}
	if dialectName == custodymigrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	cfg := dbConfig{driver: driver, dsn: opts.dsn, debug: opts.debugSQL}
	var client *persistence.Client
	if dialectName == custodymigrations.DialectPostgres {
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	} else {
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("custodyctl: persistence client: %w", err)
	}
	if err := custodymigrations.Apply(ctx, client, dialectName); err != nil {
		_ = client.Close()
		return nil, err
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if opts.cacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = opts.cacheTTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("custodyctl: configuration cache: %w", err)
		}
		if err := factory.UseConfigurationCache(cacheService); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	logger := gologger.NewZerologWriterLogger(opts.logOutput(), opts.logLevel)
	coordinatorOpts := []core.Option{
		core.WithRepositoryFactory(factory),
		core.WithLoggerProvider(gologger.NewZerologProvider(logger.Zerolog())),
	}
	if strings.TrimSpace(opts.configPath) != "" {
		values, err := readConfigFile(opts.configPath)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		coordinatorOpts = append(coordinatorOpts,
			core.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticRawConfigLoader{Values: values})),
		)
	}

	coordinator, err := core.NewCoordinator(core.Config{
		Owner:     strings.TrimSpace(opts.owner),
		Custodian: strings.TrimSpace(opts.custodian),
	}, coordinatorOpts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &runtime{client: client, factory: factory, coordinator: coordinator, logger: logger}, nil
}

func sqlDriverName(dialect string) string {
	if dialect == custodymigrations.DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// readConfigFile decodes a YAML or JSON file into the raw map the cfgx
// provider consumes.
func readConfigFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("custodyctl: read config: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("custodyctl: decode config %s: %w", path, err)
	}
	return values, nil
}
