package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	DefaultEnvFile    = ".env"

	dateLayout = "2006-01-02"
)

type Config struct {
	App       AppConfig       `yaml:"app" envconfig:"APP"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Log       LogConfig       `yaml:"log" envconfig:"LOG"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Loader    LoaderConfig    `yaml:"loader" envconfig:"LOADER"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Sentry    SentryConfig    `yaml:"sentry" envconfig:"SENTRY"`
}

type AppConfig struct {
	Name    string `yaml:"name" envconfig:"NAME"`
	Version string `yaml:"version" envconfig:"VERSION"`
	Env     string `yaml:"env" envconfig:"ENV"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	Host         string `yaml:"host" envconfig:"HOST"`
	Port         string `yaml:"port" envconfig:"PORT"`
	ReadTimeout  int    `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout  int    `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
}

type LogConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
}

// StorageConfig locates the extract tree, the airport catalog and the SQLite
// store. Empty CatalogPath and DBPath resolve relative to DataRoot.
type StorageConfig struct {
	DataRoot    string `yaml:"data_root" envconfig:"DATA_ROOT"`
	DBPath      string `yaml:"db_path" envconfig:"DB_PATH"`
	CatalogPath string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`
}

type LoaderConfig struct {
	// PullHour is the local hour of day the scheduled load runs (0 = midnight).
	PullHour        int  `yaml:"pull_hour" envconfig:"PULL_HOUR"`
	ScheduleEnabled bool `yaml:"schedule_enabled" envconfig:"SCHEDULE_ENABLED"`
	// RunOnStart also runs the scheduled load once at startup.
	RunOnStart bool `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

type DashboardConfig struct {
	BasePath       string `yaml:"base_path" envconfig:"BASE_PATH"`
	EarliestDate   string `yaml:"earliest_date" envconfig:"EARLIEST_DATE"`
	DefaultAirport string `yaml:"default_airport" envconfig:"DEFAULT_AIRPORT"`
	WindowDays     int    `yaml:"window_days" envconfig:"WINDOW_DAYS"`
}

type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"ENABLED"`
	PushGatewayURL string `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL"`
}

type SentryConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Debug bool   `yaml:"debug" envconfig:"DEBUG"`
}

// ConfigProvider loads and validates configuration.
type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// FileConfigProvider layers defaults, a YAML file, a .env file and the process
// environment, in that order.
type FileConfigProvider struct {
	path    string
	envFile string
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{path: path, envFile: DefaultEnvFile}
}

func (p *FileConfigProvider) WithEnvFile(envFile string) *FileConfigProvider {
	p.envFile = envFile
	return p
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := Defaults()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	if p.envFile != "" {
		if err := godotenv.Load(p.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", p.envFile, err)
		}
	}

	if err := envconfig.Process("", cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return cnf, nil
}

// loadFromFile overlays the YAML file on cnf. A missing file is not an error.
func (p *FileConfigProvider) loadFromFile(cnf *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, cnf); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", p.path, err)
	}

	return nil
}

func (p *FileConfigProvider) Validate(cnf *Config) error {
	var problems []string

	if cnf.App.Name == "" {
		problems = append(problems, "app.name is required")
	}
	if cnf.Server.Port == "" {
		problems = append(problems, "server.port is required")
	}
	if cnf.Server.ReadTimeout < 0 || cnf.Server.WriteTimeout < 0 || cnf.Server.IdleTimeout < 0 {
		problems = append(problems, "server timeouts must not be negative")
	}
	if cnf.Storage.DataRoot == "" {
		problems = append(problems, "storage.data_root is required")
	}
	if cnf.Loader.PullHour < 0 || cnf.Loader.PullHour > 23 {
		problems = append(problems, "loader.pull_hour must be between 0 and 23")
	}
	if cnf.Dashboard.WindowDays < 0 {
		problems = append(problems, "dashboard.window_days must not be negative")
	}
	if _, err := time.Parse(dateLayout, cnf.Dashboard.EarliestDate); err != nil {
		problems = append(problems, "dashboard.earliest_date must be YYYY-MM-DD")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	return nil
}

func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "weather-avf",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8050",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DataRoot: "data",
		},
		Loader: LoaderConfig{
			PullHour: 0,
		},
		Dashboard: DashboardConfig{
			BasePath:       "/weather-app/",
			EarliestDate:   "2019-08-25",
			DefaultAirport: "KORD",
			WindowDays:     13,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}

	if err := provider.Validate(cnf); err != nil {
		return nil, err
	}

	return cnf, nil
}

func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider(DefaultConfigPath))
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(c.Storage.DataRoot, "weather.db")
}

func (c *Config) CatalogPath() string {
	if c.Storage.CatalogPath != "" {
		return c.Storage.CatalogPath
	}
	return filepath.Join(c.Storage.DataRoot, "airports.csv")
}

// EarliestDate is the first day selectable in the dashboard date picker.
func (c *Config) EarliestDate() time.Time {
	t, err := time.ParseInLocation(dateLayout, c.Dashboard.EarliestDate, time.Local)
	if err != nil {
		return time.Date(2019, time.August, 25, 0, 0, 0, 0, time.Local)
	}
	return t
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeout) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Second
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeout) * time.Second
}
