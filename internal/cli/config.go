package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "XMLRECORDS"

// config is the full configuration: flags, XMLRECORDS_* variables and the
// optional config file, one section per command.
type config struct {
	LogLevel string          `mapstructure:"log-level" yaml:"log-level"`
	Convert  convertOptions  `mapstructure:"convert" yaml:"convert"`
	Validate validateOptions `mapstructure:"validate" yaml:"validate"`
	Merge    mergeOptions    `mapstructure:"merge" yaml:"merge"`
	Schema   schemaOptions   `mapstructure:"schema" yaml:"schema"`
}

type convertOptions struct {
	XML           string   `mapstructure:"xml" yaml:"xml"`
	Mapping       string   `mapstructure:"mapping" yaml:"mapping"`
	OutDir        string   `mapstructure:"outdir" yaml:"outdir"`
	RecordTag     string   `mapstructure:"record-tag" yaml:"record-tag"`
	Unmapped      string   `mapstructure:"unmapped" yaml:"unmapped"`
	PartitionKeys []string `mapstructure:"partition-key" yaml:"partition-key"`
	PartitionMode string   `mapstructure:"partition-mode" yaml:"partition-mode"`
	FilePattern   string   `mapstructure:"file-pattern" yaml:"file-pattern"`
	NoAttributes  bool     `mapstructure:"no-attributes" yaml:"no-attributes"`
	Progress      bool     `mapstructure:"progress" yaml:"progress"`
}

type validateOptions struct {
	InDir   string `mapstructure:"indir" yaml:"indir"`
	Mapping string `mapstructure:"mapping" yaml:"mapping"`
	Schema  string `mapstructure:"schema" yaml:"schema"`
	JSON    bool   `mapstructure:"json" yaml:"json"`
}

type mergeOptions struct {
	InDir     string `mapstructure:"indir" yaml:"indir"`
	Mapping   string `mapstructure:"mapping" yaml:"mapping"`
	Out       string `mapstructure:"out" yaml:"out"`
	RootTag   string `mapstructure:"root-tag" yaml:"root-tag"`
	RecordTag string `mapstructure:"record-tag" yaml:"record-tag"`
	Prefer    string `mapstructure:"prefer" yaml:"prefer"`
	Progress  bool   `mapstructure:"progress" yaml:"progress"`
}

type schemaOptions struct {
	XML    string `mapstructure:"xml" yaml:"xml"`
	Schema string `mapstructure:"schema" yaml:"schema"`
	Print  bool   `mapstructure:"print" yaml:"print"`
	JSON   bool   `mapstructure:"json" yaml:"json"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// loadFile reads the config file, if any, into v.
func loadFile(v *viper.Viper, file string) error {
	if file == "" {
		return nil
	}

	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		return fmt.Errorf("config file %s has no extension", file)
	}

	v.SetConfigFile(file)
	v.SetConfigType(ext)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

// load resolves the configuration. Set flags win over the environment,
// which wins over the config file, which wins over flag defaults.
func load(v *viper.Viper) (*config, error) {
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	return &cfg, nil
}
