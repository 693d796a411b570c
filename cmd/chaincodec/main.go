package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chaincodec",
		Short:        "Chain-agnostic blockchain event decoder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw events into normalized events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().StringSlice("schemas", nil, "schema files or directories (comma-separated)")
	decodeCmd.Flags().String("in", "", "input raw events JSONL")
	decodeCmd.Flags().String("out", "./data/decoded_events.jsonl", "output decoded events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode failures JSONL")
	decodeCmd.Flags().String("sqlite", "", "optional SQLite database for decoded events")
	decodeCmd.Flags().String("error-mode", "collect", "failure policy (skip, collect, throw)")
	decodeCmd.Flags().Int("chunk-size", 10000, "events per decode chunk")
	decodeCmd.Flags().Int("workers", 0, "parallel workers, 0 means GOMAXPROCS")
	decodeCmd.Flags().Bool("parallel", false, "decode chunks in parallel")
	decodeCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	decodeCmd.Flags().String("chain-family", "", "extra chain slug to decoder family mappings (comma-separated slug=family)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)
	root.AddCommand(newSchemasCmd())

	fingerprintCmd := &cobra.Command{
		Use:   "fingerprint <signature|event>",
		Short: "Print the fingerprint of an event signature, name or type",
		Args:  cobra.ExactArgs(1),
		RunE:  runFingerprint,
	}

	fingerprintCmd.Flags().String("family", "evm", "chain family (evm, solana, cosmos)")

	root.AddCommand(fingerprintCmd)

	return root
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
