// Package config loads the goopy-sheets configuration from an optional TOML file, an
// optional .env file and GOOPY_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goopy-dev/goopy-sheets/logger"
)

type Config struct {
	Workdir     string        `mapstructure:"workdir"`
	Credentials string        `mapstructure:"credentials"`
	Tokens      string        `mapstructure:"tokens"`
	Spreadsheet string        `mapstructure:"spreadsheet"`
	Worksheet   string        `mapstructure:"worksheet"`
	Audit       Audit         `mapstructure:"audit"`
	Log         logger.Config `mapstructure:"log"`
}

// Audit configures the optional audit log worksheet written by the update and upsert
// commands.
type Audit struct {
	Range     string `mapstructure:"range"`
	Retention uint   `mapstructure:"retention"`
}

func defaults(v *viper.Viper, workdir, credentials string) {
	v.SetDefault("workdir", workdir)
	v.SetDefault("credentials", credentials)
	v.SetDefault("tokens", "")
	v.SetDefault("spreadsheet", "")
	v.SetDefault("worksheet", "")
	v.SetDefault("audit.range", "")
	v.SetDefault("audit.retention", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}

// Load reads the configuration. An empty path looks for goopy-sheets.toml in the
// default working directory; a missing default file is not an error but a missing
// explicitly requested file is.
func Load(path, workdir, credentials string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v, workdir, credentials)

	v.SetEnvPrefix("GOOPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = filepath.Join(workdir, "goopy-sheets.toml")
	}

	v.SetConfigFile(file)
	v.SetConfigType("toml")

	if _, err := os.Stat(file); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading configuration file %s (%w)", file, err)
		}
	} else if path != "" || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not load configuration (%w)", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration (%w)", err)
	}

	if c.Tokens == "" {
		c.Tokens = filepath.Join(c.Workdir, ".google")
	}

	return &c, nil
}
