package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "AMM pool state and price derivation pipeline",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Process decoded blocks into pool state and derived prices",
		RunE:  runProcess,
	}

	processCmd.Flags().String("in", "", "input decoded blocks JSONL")
	processCmd.Flags().String("out", "./data/snapshot.jsonl", "output store snapshot JSONL")
	processCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	processCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	processCmd.Flags().String("rpc", "", "RPC URL for token metadata lookups")
	processCmd.Flags().String("factory", "0x1f98431c8ad98523631ae4a59f267346ea31f984", "factory contract address")
	processCmd.Flags().String("tokens", "", "token metadata fixture JSON (skips RPC lookups)")
	processCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for record and snapshot upserts")
	processCmd.Flags().Int("max-retries", 5, "maximum metadata retry attempts")
	processCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial metadata retry backoff")
	processCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	processCmd.Flags().String("base-token", "", "override base token address")
	processCmd.Flags().StringSlice("stable-coins", nil, "override stable coin addresses (comma-separated)")
	processCmd.Flags().StringSlice("whitelist-tokens", nil, "override whitelist token addresses (comma-separated)")
	processCmd.Flags().String("reference-pool", "", "override reference pool address")
	processCmd.Flags().String("reference-stable", "", "override reference stable address")
	processCmd.Flags().String("minimum-locked", "", "override minimum locked value floor")

	root.AddCommand(processCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
