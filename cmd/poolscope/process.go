package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolscope/internal/chain"
	"poolscope/internal/config"
	"poolscope/internal/metadata"
	"poolscope/internal/model"
	"poolscope/internal/pipeline"
	"poolscope/internal/pricing"
	"poolscope/internal/storage"
	"poolscope/internal/storage/postgres"
)

func runProcess(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildMetadataSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
	}

	pipe, err := pipeline.New(pipeline.Config{
		FactoryAddress: cfg.Factory,
		Params:         params,
	}, source, pipeline.NewStores(), logger)
	if err != nil {
		return err
	}

	checkpoints := pipeline.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled)
	resumeFrom := uint64(0)
	if cp, ok, err := checkpoints.Load(); err != nil {
		return err
	} else if ok {
		resumeFrom = cp.LastProcessedBlock
		logger.Info("resuming after checkpoint", zap.Uint64("block", resumeFrom))
	}

	logger.Info("process start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("factory", cfg.Factory),
		zap.Bool("postgres", pgStore != nil),
	)

	if err := processBlocks(ctx, cfg, pipe, checkpoints, pgStore, resumeFrom, logger); err != nil {
		return err
	}

	return writeSnapshot(ctx, cfg, pipe, pgStore, logger)
}

func processBlocks(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline, checkpoints *pipeline.CheckpointStore, pgStore *postgres.Store, resumeFrom uint64, logger *zap.Logger) error {
	file, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	lineNum := 0
	processed := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var block model.Block
		if err := json.Unmarshal(line, &block); err != nil {
			return fmt.Errorf("parse block at line %d: %w", lineNum, err)
		}
		if block.Number <= resumeFrom {
			continue
		}

		result, err := pipe.ProcessBlock(ctx, block)
		if err != nil {
			return err
		}
		processed++

		if pgStore != nil {
			if err := pgStore.UpsertPools(ctx, result.Pools); err != nil {
				return fmt.Errorf("upsert pools: %w", err)
			}
			if err := pgStore.UpsertTokens(ctx, result.Tokens); err != nil {
				return fmt.Errorf("upsert tokens: %w", err)
			}
		}

		if err := checkpoints.Save(block.Number); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	logger.Info("process done", zap.Int("blocks", processed))
	return nil
}

func writeSnapshot(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline, pgStore *postgres.Store, logger *zap.Logger) error {
	var entries []storage.SnapshotEntry
	for _, s := range pipe.Stores().All() {
		for _, latest := range s.Latest() {
			entries = append(entries, storage.SnapshotEntry{
				Store:   s.Name(),
				Key:     latest.Key,
				Ordinal: latest.Ordinal,
				Value:   string(latest.Value),
			})
		}
	}

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutSnapshot(entries); err != nil {
		return err
	}
	if pgStore != nil {
		if err := pgStore.UpsertSnapshot(ctx, entries); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
	}

	logger.Info("snapshot written", zap.String("out", cfg.Out), zap.Int("entries", len(entries)))
	return nil
}

func buildParams(cfg config.Config) (pricing.Params, error) {
	params := pricing.DefaultParams()
	if cfg.BaseToken != "" {
		params.BaseToken = cfg.BaseToken
	}
	if len(cfg.StableCoins) > 0 {
		params.StableCoins = cfg.StableCoins
	}
	if len(cfg.WhitelistTokens) > 0 {
		params.WhitelistTokens = cfg.WhitelistTokens
	}
	if cfg.ReferencePool != "" {
		params.ReferencePool = cfg.ReferencePool
	}
	if cfg.ReferenceStable != "" {
		params.ReferenceStable = cfg.ReferenceStable
	}
	if cfg.MinimumLocked != "" {
		floor, err := decimal.NewFromString(cfg.MinimumLocked)
		if err != nil {
			return pricing.Params{}, fmt.Errorf("parse minimum-locked: %w", err)
		}
		params.MinimumLocked = floor
	}
	return params, nil
}

func buildMetadataSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (metadata.Source, func(), error) {
	if cfg.TokensFile != "" {
		source, err := metadata.LoadStaticFile(cfg.TokensFile)
		if err != nil {
			return nil, nil, err
		}
		return source, func() {}, nil
	}

	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("either --tokens or --rpc is required")
	}
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	return metadata.NewChainSource(client, cfg.MaxRetries, cfg.RetryBackoff, logger), client.Close, nil
}
