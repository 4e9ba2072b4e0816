package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/lukas-andre/alergias-app-sub001/internal/dictionary"
	"github.com/lukas-andre/alergias-app-sub001/internal/diet"
	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/pipeline"
	"github.com/lukas-andre/alergias-app-sub001/internal/risk"
	"github.com/lukas-andre/alergias-app-sub001/internal/secrets"
	"github.com/lukas-andre/alergias-app-sub001/internal/sqlitedb"
	"github.com/lukas-andre/alergias-app-sub001/internal/synonym"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

const (
	defaultRPCTimeout      = 10 * time.Second
	defaultPostgresTimeout = 5 * time.Second
)

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output_paths", []string{"stderr"})

	viper.SetDefault("synonyms.backend", string(types.BackendMemory))
	viper.SetDefault("synonyms.min_similarity", synonym.DefaultMinSimilarity)
	viper.SetDefault("synonyms.limit", synonym.MaxMatchesPerSurface)
	viper.SetDefault("synonyms.concurrency", 4)
	viper.SetDefault("synonyms.rpc_function", synonym.DefaultRPCFunction)
	viper.SetDefault("synonyms.rpc_timeout", defaultRPCTimeout)
	viper.SetDefault("synonyms.cache.ttl", 24*time.Hour)

	viper.SetDefault("store.path", sqlitedb.DefaultPath)
	viper.SetDefault("risk.low_confidence_threshold", risk.DefaultLowConfidenceThreshold)
}

// resources owns whatever a command opened so it can be closed once.
type resources struct {
	closers []func()
	dict    *dictionary.Store
}

func (r *resources) add(fn func()) { r.closers = append(r.closers, fn) }

func (r *resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// openStore opens the local SQLite database.
func openStore(res *resources) (*sql.DB, error) {
	db, err := sqlitedb.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	res.add(func() { db.Close() })
	return db, nil
}

// openDictionary opens the SQLite dictionary, seeding it on first use.
func openDictionary(ctx context.Context, res *resources) (*dictionary.Store, error) {
	if res.dict != nil {
		return res.dict, nil
	}
	db, err := openStore(res)
	if err != nil {
		return nil, err
	}
	store, err := dictionary.NewStore(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSeeded(ctx, io.Discard); err != nil {
		return nil, fmt.Errorf("seeding dictionary: %w", err)
	}
	res.dict = store
	return store, nil
}

// buildMatcher returns the configured synonym backend, wrapped in the
// Redis cache when one is configured.
func buildMatcher(ctx context.Context, sc types.SynonymConfig, res *resources) (synonym.Matcher, error) {
	var m synonym.Matcher

	switch sc.Backend {
	case "", types.BackendMemory:
		seed, err := dictionary.DefaultSeed()
		if err != nil {
			return nil, err
		}
		m = synonym.NewTrigramMatcher(seed.Synonyms)

	case types.BackendSQLite:
		store, err := openDictionary(ctx, res)
		if err != nil {
			return nil, err
		}
		m = store

	case types.BackendPostgres:
		dsn := loadedSecrets.Resolve(sc.PostgresDSN, secrets.PostgresDSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres backend: set synonyms.postgres_dsn or .secrets/%s", secrets.PostgresDSN)
		}
		pool, err := synonym.OpenPostgres(ctx, dsn, defaultPostgresTimeout)
		if err != nil {
			return nil, err
		}
		res.add(pool.Close)
		m = synonym.NewPostgresMatcher(pool, "")

	case types.BackendRPC:
		if sc.RPCURL == "" {
			return nil, fmt.Errorf("rpc backend: synonyms.rpc_url is required")
		}
		timeout := sc.RPCTimeout
		if timeout <= 0 {
			timeout = defaultRPCTimeout
		}
		m = &synonym.RPCMatcher{
			Client:   &http.Client{Timeout: timeout},
			BaseURL:  sc.RPCURL,
			Function: sc.RPCFunction,
			APIKey:   loadedSecrets.Resolve(sc.RPCKey, secrets.RPCKey),
		}

	default:
		return nil, fmt.Errorf("unknown synonym backend %q (memory, sqlite, postgres, rpc)", sc.Backend)
	}

	if sc.Cache.RedisAddr != "" {
		cc := sc.Cache
		cc.RedisPassword = loadedSecrets.Resolve(cc.RedisPassword, secrets.RedisPassword)
		rdb := synonym.NewRedisClient(cc)
		res.add(func() { rdb.Close() })
		m = synonym.NewCachedMatcher(m, rdb, cc.TTL, logger)
	}
	return m, nil
}

// loadRules returns the configured diet rules.
func loadRules() (*diet.Rules, error) {
	if cfg.Risk.RulesFile == "" {
		return diet.DefaultRules(), nil
	}
	return diet.LoadRules(cfg.Risk.RulesFile)
}

// eNumberIndex returns the E-number table: from the SQLite store when that
// is the synonym backend, otherwise from the built-in seed.
func eNumberIndex(ctx context.Context, res *resources) (map[string]types.ENumberEntry, error) {
	if cfg.Synonyms.Backend == types.BackendSQLite {
		store, err := openDictionary(ctx, res)
		if err != nil {
			return nil, err
		}
		entries, err := store.ENumbers(ctx)
		if err != nil {
			return nil, err
		}
		return (&dictionary.Seed{ENumbers: entries}).ENumberIndex(), nil
	}
	seed, err := dictionary.DefaultSeed()
	if err != nil {
		return nil, err
	}
	return seed.ENumberIndex(), nil
}

// buildPipeline wires every stage from cfg. exact replaces fuzzy matching
// with bidirectional substring matching over the built-in dictionary.
func buildPipeline(ctx context.Context, res *resources, exact bool) (*pipeline.Pipeline, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	enumbers, err := eNumberIndex(ctx, res)
	if err != nil {
		return nil, err
	}
	evaluator := risk.NewEvaluator(rules, enumbers, cfg.Risk.LowConfidenceThreshold)

	var m synonym.Matcher
	minSim := cfg.Synonyms.MinSimilarity
	if exact {
		seed, err := dictionary.DefaultSeed()
		if err != nil {
			return nil, err
		}
		m = synonym.NewExactMatcher(seed.Synonyms)
		minSim = 1.0
	} else {
		m, err = buildMatcher(ctx, cfg.Synonyms, res)
		if err != nil {
			return nil, err
		}
	}

	expander := synonym.NewExpander(m, logger, cfg.Synonyms.Concurrency).WithLimit(cfg.Synonyms.Limit)
	logger.Debug("pipeline ready",
		logging.String("backend", m.Name()),
		logging.Float64("min_similarity", minSim))
	return pipeline.New(expander, evaluator, minSim, logger), nil
}
