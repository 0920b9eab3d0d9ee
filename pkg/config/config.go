package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "./config.yaml"
)

// Config is the runtime configuration for the API, the migrations CLI and the
// scripts.
type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Hostname                  string        `koanf:"hostname"`
	LoginRateBurst            int           `koanf:"login_rate_burst"`
	LoginRateLimit            float64       `koanf:"login_rate_limit"`
	RatingReconcileSchedule   string        `koanf:"rating_reconcile_schedule"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	StorageDir                string        `koanf:"storage_dir" required:"true"`
}

func defaults() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		LoginRateBurst:            5,
		LoginRateLimit:            1,
		RatingReconcileSchedule:   "0 4 * * *",
		ServerHost:                "0.0.0.0",
		ServerPort:                8000,
		StorageDir:                "./storage",
	}
}

// New builds the config from defaults, then the YAML file named by
// CONFIG_FILE (optional), then environment variables. Environment variables
// are the upper snake case form of the koanf keys, e.g. SERVER_PORT.
func New() (*Config, error) {
	cfg := defaults()
	if hostname, err := os.Hostname(); err == nil {
		cfg.Hostname = hostname
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	known := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := checkRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory database.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	cfg.RatingReconcileSchedule = ""
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	return cfg
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[koanfKey(t.Field(i))] = struct{}{}
	}
	return keys
}

func koanfKey(f reflect.StructField) string {
	if tag := f.Tag.Get("koanf"); tag != "" {
		return tag
	}
	return strcase.ToSnake(f.Name)
}

func checkRequired(cfg *Config) error {
	missing := []string{}
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("required") != "true" || !v.Field(i).IsZero() {
			continue
		}
		key := koanfKey(f)
		missing = append(missing, strings.ToUpper(key)+" (env) / "+key+" (file)")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
