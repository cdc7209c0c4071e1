package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Graph       GraphConfig       `mapstructure:"graph"`
	Index       IndexConfig       `mapstructure:"index"`
	Contraction ContractionConfig `mapstructure:"contraction"`
	Query       QueryConfig       `mapstructure:"query"`
	Log         LogConfig         `mapstructure:"log"`
	Distance    DistanceConfig    `mapstructure:"distance"`
	Timezone    string            `mapstructure:"timezone" validate:"required"`
}

type GraphConfig struct {
	Dir         string `mapstructure:"dir" validate:"required"`
	MMap        bool   `mapstructure:"mmap"`
	TurnCostDir string `mapstructure:"turn_cost_dir" validate:"required"`
	NodeIndex   string `mapstructure:"node_index_dir" validate:"required"`
}

type IndexConfig struct {
	Capacity int `mapstructure:"capacity" validate:"gt=0"`
}

type ContractionConfig struct {
	ProgressEvery int `mapstructure:"progress_every" validate:"gt=0"`
}

type QueryConfig struct {
	MaxVisitedNodes int `mapstructure:"max_visited_nodes" validate:"gte=0"`
	Workers         int `mapstructure:"workers" validate:"gt=0"`
	CacheSize       int `mapstructure:"cache_size" validate:"gt=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type DistanceConfig struct {
	Mode string `mapstructure:"mode" validate:"oneof=plane haversine s2"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("graph.dir", "./data/graph")
	v.SetDefault("graph.mmap", false)
	v.SetDefault("graph.turn_cost_dir", "./data/turncost")
	v.SetDefault("graph.node_index_dir", "./data/nodeindex")
	v.SetDefault("index.capacity", 1<<16)
	v.SetDefault("contraction.progress_every", 10000)
	v.SetDefault("query.max_visited_nodes", 0)
	v.SetDefault("query.workers", 4)
	v.SetDefault("query.cache_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("distance.mode", "haversine")
	v.SetDefault("timezone", "UTC")
}

// ReadConfig. baca config.yaml di configPath, env ROADROUTER_* override key yang sama.
// file yang tidak ada tidak error, default yang dipakai.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("ROADROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, WrapErrorf(err, ErrBadParamInput, "unmarshal config")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, WrapErrorf(err, ErrBadParamInput, "invalid config")
	}
	return cfg, nil
}
