package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bisegni/ixscan/pkg/database"
	"github.com/bisegni/ixscan/pkg/logging"
)

// DefaultEnvPrefix is the environment prefix read by Load.
const DefaultEnvPrefix = "IXSCAN"

type Config struct {
	DataDir  string        `mapstructure:"data_dir"`
	InMemory bool          `mapstructure:"in_memory"`
	Sync     bool          `mapstructure:"sync"`
	Log      LogConfig     `mapstructure:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Indexes  []IndexConfig `mapstructure:"indexes"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// IndexConfig defines one index. Column types are SQL type names such as
// bigint, int4, varchar(32) or float8.
type IndexConfig struct {
	Name    string         `mapstructure:"name"`
	ID      uint32         `mapstructure:"id"`
	Table   string         `mapstructure:"table"`
	Columns []ColumnConfig `mapstructure:"columns"`
}

type ColumnConfig struct {
	Name      string `mapstructure:"name"`
	Type      string `mapstructure:"type"`
	Nullable  bool   `mapstructure:"nullable"`
	Direction string `mapstructure:"direction"` // asc (default) or desc
}

// Load reads the optional config file at path, then environment variables
// named prefix_KEY (IXSCAN_DATA_DIR, IXSCAN_LOG_LEVEL, ...), which win over
// the file.
func Load(path, prefix string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "./ixscan-data")
	v.SetDefault("in_memory", false)
	v.SetDefault("sync", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	v.SetEnvPrefix(strings.TrimSuffix(prefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Logging converts the log section for the logging package.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, AddSource: c.Log.AddSource}
}

// Catalog builds the configured indexes. An index without an id gets its
// position in the list, starting at 1.
func (c *Config) Catalog(tt *database.TypesTranslator) (*database.Catalog, error) {
	catalog := database.NewCatalog()
	for i, ic := range c.Indexes {
		cols := make([]database.IndexColumn, len(ic.Columns))
		for j, cc := range ic.Columns {
			t, err := tt.TypeForName(cc.Type)
			if err != nil {
				return nil, fmt.Errorf("index %s column %s: %w", ic.Name, cc.Name, err)
			}
			dir, err := parseDirection(cc.Direction)
			if err != nil {
				return nil, fmt.Errorf("index %s column %s: %w", ic.Name, cc.Name, err)
			}
			cols[j] = database.IndexColumn{Name: cc.Name, Type: t, Nullable: cc.Nullable, Direction: dir}
		}
		id := ic.ID
		if id == 0 {
			id = uint32(i + 1)
		}
		ix, err := database.NewIndex(id, ic.Name, ic.Table, cols)
		if err != nil {
			return nil, err
		}
		if err := catalog.RegisterIndex(ix); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func parseDirection(s string) (database.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return database.Ascending, nil
	case "desc", "descending":
		return database.Descending, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}
