package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cfoust/dipwatch/pkg/history"
	"github.com/cfoust/dipwatch/pkg/notify"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	J "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"
	"github.com/rs/zerolog/log"
)

//go:embed schema.cue
var schemaFile string

//go:embed default.yaml
var DEFAULT []byte

const (
	ENV_HOME              = "DIPWATCH_HOME"
	ENV_SLACK_WEBHOOK_URL = "SLACK_WEBHOOK_URL"

	SQL_DATABASE_FILE = "dipwatch.db"
)

var ErrInvalid = fmt.Errorf("invalid config")

// Home is where dipwatch keeps its state unless told otherwise.
func Home() string {
	if dir := os.Getenv(ENV_HOME); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".dipwatch"
	}

	return filepath.Join(home, ".config", "dipwatch")
}

func readFile(ctx *cue.Context, path string) (*cue.Value, error) {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("does not exist")
	}

	extension := filepath.Ext(path)
	switch extension {
	case ".json":
		dataFile, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		dataExpr, err := J.Extract(path, dataFile)
		if err != nil {
			return nil, err
		}

		value := ctx.BuildExpr(dataExpr)
		if err := value.Err(); err != nil {
			return nil, err
		}

		return &value, nil
	case ".yaml", ".yml":
		yamlFile, err := yaml.Extract(path, nil)
		if err != nil {
			return nil, err
		}

		value := ctx.BuildFile(yamlFile)
		if err := value.Err(); err != nil {
			return nil, err
		}

		return &value, nil
	}

	return nil, fmt.Errorf(
		"not in a valid format",
	)
}

// Process reads the provided configuration files in order, compiles them,
// and unifies them with the configuration file schema. If no configuration
// files are provided, the default configuration is used. Environment
// variables are applied last.
func Process(configPaths []string) (*Config, error) {
	ctx := cuecontext.New()

	// Compile the schema
	schema := ctx.CompileString(schemaFile)
	err := schema.Err()
	if err != nil {
		return nil, err
	}

	if len(configPaths) == 0 {
		// Load default config
		yamlFile, err := yaml.Extract("<default>", DEFAULT)
		if err != nil {
			return nil, err
		}

		value := ctx.BuildFile(yamlFile)
		if err := value.Err(); err != nil {
			return nil, err
		}

		schema = schema.Unify(value)
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf(
				"invalid default config file: %v",
				err,
			)
		}
	}

	for _, path := range configPaths {
		value, err := readFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %v",
				path,
				err,
			)
		}

		schema = schema.Unify(*value)
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf(
				"%w: could not merge config file %s: %v",
				ErrInvalid,
				path,
				err,
			)
		}

		// Check if the config file is valid
		err = schema.Validate()
		if err != nil {
			return nil, fmt.Errorf(
				"%w: config file %s is not valid: %v",
				ErrInvalid,
				path,
				err,
			)
		}
	}

	if err := schema.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf(
			"%w: could not aggregate config: %v",
			ErrInvalid,
			err,
		)
	}

	config := Config{}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err = applyEnvironment(&config)
	if err != nil {
		return nil, err
	}

	err = Validate(&config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func applyEnvironment(config *Config) error {
	home := Home()

	switch store := config.History.Config.(type) {
	case history.FSStoreConfig:
		if store.Path == "" {
			store.Path = home
		}
		config.History.Config = store
	case history.SQLStoreConfig:
		if store.Path == "" {
			store.Path = filepath.Join(home, SQL_DATABASE_FILE)
		}
		config.History.Config = store
	}

	if url := os.Getenv(ENV_SLACK_WEBHOOK_URL); url != "" {
		config.Sink = notify.Spec{
			Config: notify.CompositeConfig{
				Sinks: []notify.Spec{
					config.Sink,
					{Config: notify.WebhookConfig{URL: url}},
				},
			},
		}
	}

	cookies, err := loadCookies(home, config.Source.CookiesFile)
	if err != nil {
		return err
	}

	// Cookies given explicitly win over the file
	for name, value := range config.Source.Cookies {
		cookies[name] = value
	}
	config.Source.Cookies = cookies

	return nil
}

func loadCookies(home, path string) (map[string]string, error) {
	cookies := make(map[string]string)
	if path == "" {
		return cookies, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(home, path)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cookies, nil
	}
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(data, &cookies)
	if err != nil {
		return nil, fmt.Errorf("could not read cookies from %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("count", len(cookies)).Msg("loaded cookies")
	return cookies, nil
}

func usesFeed(config notify.SinkConfig) bool {
	switch config := config.(type) {
	case notify.FeedConfig:
		return true
	case notify.CompositeConfig:
		for _, spec := range config.Sinks {
			if usesFeed(spec.Config) {
				return true
			}
		}
	}
	return false
}

// Validate covers what the schema cannot express.
func Validate(config *Config) error {
	if config.PollInterval.Duration() < time.Second {
		return fmt.Errorf("%w: pollInterval must be at least one second", ErrInvalid)
	}

	if usesFeed(config.Sink.Config) && !config.API.Enabled {
		return fmt.Errorf("%w: the feed sink requires the api to be enabled", ErrInvalid)
	}

	return nil
}
