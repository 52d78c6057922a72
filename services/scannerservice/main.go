package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/core/pricecache"
	"github.com/monadarb/go_monad_discovery/common/core/pricegraph"
	"github.com/monadarb/go_monad_discovery/common/core/quoteaggregator"
	"github.com/monadarb/go_monad_discovery/common/external/chainclient"
	"github.com/monadarb/go_monad_discovery/common/external/subgraphs"
	"github.com/monadarb/go_monad_discovery/common/helpers/envhelper"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/common/repo/tokenrepo"
	"github.com/monadarb/go_monad_discovery/services/scannerservice/src/scannerservice"
)

func main() {
	env, err := envhelper.GetEnv()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chainClient, err := chainclient.New(chainclient.ChainClientConfig{
		RpcHttp: env.MONAD_RPC_HTTP,
		RpcWs:   env.MONAD_RPC_WS,
		ChainID: env.CHAIN_ID,
	})
	if err != nil {
		panic(err)
	}
	defer chainClient.Close()

	tokenRepo, err := tokenrepo.New(tokenrepo.TokenRepoConfig{
		ChainID:  env.CHAIN_ID,
		ListPath: env.TOKEN_LIST_PATH,
	})
	if err != nil {
		panic(err)
	}

	poolCacheRepo, err := poolregistry.NewCacheRepo(ctx, poolregistry.PoolCacheRepoConfig{
		RedisServer: env.REDIS_SERVER,
	})
	if err != nil {
		panic(err)
	}

	registry, err := poolregistry.New(poolregistry.PoolRegistryConfig{
		ChainID: env.CHAIN_ID,
	}, poolregistry.PoolRegistryDependencies{
		CacheRepo: poolCacheRepo,
	})
	if err != nil {
		panic(err)
	}

	aggregator, err := quoteaggregator.New(quoteaggregator.QuoteAggregatorConfig{}, quoteaggregator.QuoteAggregatorDependencies{
		Chain:  chainClient,
		Logger: logger,
	})
	if err != nil {
		panic(err)
	}

	priceCache := pricecache.New(pricecache.PriceCacheConfig{})

	engine, err := pricegraph.New(pricegraph.PriceGraphEngineConfig{}, pricegraph.PriceGraphEngineDependencies{
		Tokens:     tokenRepo,
		Aggregator: aggregator,
		PriceCache: priceCache,
		Registry:   registry,
		Logger:     logger,
	})
	if err != nil {
		panic(err)
	}

	var subgraphClient subgraphs.SubgraphClient
	if env.SUBGRAPH_API_TOKEN != "" {
		subgraphClient, err = subgraphs.NewSubgraphClient(subgraphs.SubgraphClientConfig{
			APIKey: env.SUBGRAPH_API_TOKEN,
		})
		if err != nil {
			panic(err)
		}
	}

	scanner, err := scannerservice.New(scannerservice.ScannerServiceConfig{
		ChainID:      env.CHAIN_ID,
		ScanInterval: time.Duration(env.SCAN_INTERVAL_SECONDS) * time.Second,
	}, scannerservice.ScannerServiceDependencies{
		Engine:   engine,
		Registry: registry,
		Subgraph: subgraphClient,
		Logger:   logger,
	})
	if err != nil {
		panic(err)
	}

	if err := scanner.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("scanner stopped", zap.Error(err))
	}
}
