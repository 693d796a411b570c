package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"chaincodec/internal/decoder"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	Schemas     []string
	In          string
	Out         string
	Errors      string
	SQLite      string
	ErrorMode   decoder.ErrorMode
	ChunkSize   int
	Workers     int
	Parallel    bool
	MetricsAddr string
	LogLevel    string
	// ChainFamily maps extra chain slugs to a decoder family, e.g. eclipse=solana.
	ChainFamily map[string]string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":        "./data/decoded_events.jsonl",
		"errors":     "./data/decode_errors.jsonl",
		"error-mode": "collect",
		"chunk-size": 10000,
		"workers":    0,
		"parallel":   false,
		"log-level":  "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	mode, err := decoder.ParseErrorMode(v.GetString("error-mode"))
	if err != nil {
		return DecodeConfig{}, err
	}
	chunkSize := v.GetInt("chunk-size")
	if chunkSize <= 0 {
		return DecodeConfig{}, fmt.Errorf("chunk-size must be greater than zero")
	}

	cfg := DecodeConfig{
		Schemas:     getStringSlice(v, "schemas"),
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		SQLite:      v.GetString("sqlite"),
		ErrorMode:   mode,
		ChunkSize:   chunkSize,
		Workers:     v.GetInt("workers"),
		Parallel:    v.GetBool("parallel"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
		ChainFamily: getStringMap(v, "chain-family"),
	}

	return cfg, nil
}
