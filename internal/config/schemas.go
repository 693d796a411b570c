package config

import "github.com/spf13/pflag"

// SchemasConfig holds configuration for the schemas commands.
type SchemasConfig struct {
	Schemas  []string
	Chain    string
	Name     string
	LogLevel string
	// ChainFamily maps extra chain slugs to a decoder family, e.g. eclipse=solana.
	ChainFamily map[string]string
}

// LoadSchemas merges config file, environment variables, and flags into SchemasConfig.
func LoadSchemas(cfgFile string, flags *pflag.FlagSet) (SchemasConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return SchemasConfig{}, err
	}

	return SchemasConfig{
		Schemas:  getStringSlice(v, "schemas"),
		Chain:    v.GetString("chain"),
		Name:     v.GetString("name"),
		LogLevel: v.GetString("log-level"),

		ChainFamily: getStringMap(v, "chain-family"),
	}, nil
}
