package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolbox/pkg/validator"
)

// EnvPrefix marks environment variables read by Load. A double underscore
// separates nesting levels: KNOLBOX_STORE__PATH sets store.path.
const EnvPrefix = "KNOLBOX_"

// FlagConfig names the flag holding the YAML file path.
const FlagConfig = "config"

// RegisterFlags adds the flags Load understands to fs. Flag names are config
// keys.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "path to a YAML config file")
	fs.String("store.path", d.Store.Path, "SQLite database file")
	fs.String("server.addr", d.Server.Addr, "HTTP listen address")
	fs.String("sync.catalog", d.Sync.Catalog, "catalog git URL or directory")
	fs.StringSlice("sync.owners", nil, "owners to sync (default every known owner)")
	fs.String("log.level", d.Log.Level, "debug, info, warn or error")
	fs.String("log.format", d.Log.Format, "text or json")
}

// Load builds the configuration. Later sources win: defaults, the YAML file
// named by --config, KNOLBOX_ variables, then flags the user actually set.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if fs != nil {
		if path, _ := fs.GetString(FlagConfig); path != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", nil, changedFlag(fs)), nil); err != nil {
			return nil, fmt.Errorf("config: read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// changedFlag keeps only flags set on the command line, so flag defaults
// never mask file or environment values.
func changedFlag(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed || f.Name == FlagConfig {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}
}

// Validate checks tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.ValidateStruct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("stats.timezone: %w", err)
	}
	return nil
}
