package scannerservice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/core/pricegraph"
	"github.com/monadarb/go_monad_discovery/common/external/subgraphs"
	"github.com/monadarb/go_monad_discovery/common/helpers"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/services/scannerservice/src/scannererrors"
)

const defaultScanInterval = 30 * time.Second

type ScannerService interface {
	// ScanOnce runs a single discovery pass and logs its outcome.
	ScanOnce(ctx context.Context) error
	// Start seeds the pool registry when a subgraph client is wired, then
	// scans on a ticker until ctx is cancelled, reloading mirrored pool
	// discoveries before each ticked pass.
	Start(ctx context.Context) error
}

type ScannerServiceConfig struct {
	ChainID      uint
	ScanInterval time.Duration
}

type ScannerServiceDependencies struct {
	Engine   pricegraph.PriceGraphEngine
	Registry poolregistry.PoolRegistry
	// Subgraph seeds the registry at startup. Nil skips the seed pass.
	Subgraph subgraphs.SubgraphClient
	Logger   *zap.Logger
}

func (d *ScannerServiceDependencies) validate() error {
	if d.Engine == nil {
		return scannererrors.ErrNilEngine
	}
	if d.Registry == nil {
		return scannererrors.ErrNilRegistry
	}
	return nil
}

type scannerService struct {
	config       ScannerServiceConfig
	dependencies ScannerServiceDependencies
	logger       *zap.Logger
}

func New(config ScannerServiceConfig, dependencies ScannerServiceDependencies) (ScannerService, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = defaultScanInterval
	}

	service := &scannerService{
		config:       config,
		dependencies: dependencies,
		logger:       dependencies.Logger,
	}

	return service, nil
}

func (s *scannerService) Start(ctx context.Context) error {
	s.seedRegistry(ctx)

	if err := s.ScanOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return scannererrors.ErrCtxDone
		case <-ticker.C:
			s.reloadRegistry()
			if err := s.ScanOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *scannerService) ScanOnce(ctx context.Context) error {
	result, err := s.dependencies.Engine.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return scannererrors.ErrCtxDone
		}
		s.logger.Error("scan failed", zap.Error(err))
		return nil
	}

	s.logger.Info("scan finished",
		zap.Int("scanned", result.TotalScanned),
		zap.Int("opportunities", result.Count),
		zap.Int("rejections", len(result.Rejections)),
		zap.Float64("elapsed_ms", result.TotalTimeMs),
	)

	if result.Best == nil {
		s.logger.Info("no profitable opportunity this pass")
		return nil
	}

	for _, line := range result.Best.Logs {
		s.logger.Info(line)
	}
	s.logger.Info("best opportunity",
		zap.String("strategy", result.Best.Strategy),
		zap.Float64("tier_usd", result.Best.TierUSD),
		zap.Strings("path", result.Best.Path),
		zap.Float64("profit_pct", result.Best.ProfitPct),
		zap.Float64("net_profit_usd", result.Best.NetProfitUSD),
	)
	for i, opportunity := range result.Ranking {
		s.logger.Debug("ranking entry",
			zap.Int("rank", i+1),
			zap.String("opportunity", helpers.GetJSONString(opportunity)),
		)
	}

	return nil
}

// reloadRegistry picks up pools other processes mirrored into redis
// since the last pass, so sentinel discoveries reach a running scanner.
func (s *scannerService) reloadRegistry() {
	added, err := s.dependencies.Registry.Reload()
	if err != nil {
		s.logger.Warn("registry reload failed", zap.Error(err))
		return
	}
	if added > 0 {
		s.logger.Info("registry picked up mirrored pools", zap.Int("pools", added))
	}
}

func (s *scannerService) seedRegistry(ctx context.Context) {
	if s.dependencies.Subgraph == nil {
		return
	}

	seeds, err := s.dependencies.Subgraph.GetPoolSeeds(ctx, s.config.ChainID)
	if err != nil {
		s.logger.Warn("subgraph seed pass failed", zap.Error(err))
		return
	}

	for _, record := range seeds {
		s.dependencies.Registry.Set(record)
	}
	s.logger.Info("seeded pool registry", zap.Int("pools", len(seeds)))
}
