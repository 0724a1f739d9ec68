package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/placenet-simulator/internal/pkg/validator"
	"github.com/spf13/viper"
)

// Источники фидов
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	Worker     WorkerConfig
	Simulation SimulationConfig
	Report     ReportConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	ResultCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// SimulationConfig - параметры прогона по умолчанию
type SimulationConfig struct {
	StartDate        time.Time     `validate:"required"`
	EndDate          time.Time     `validate:"required,gtfield=StartDate"`
	Step             time.Duration `validate:"gt=0"`
	Seed             int64
	IncubationPeriod time.Duration `validate:"gte=0"`
	InfectiousPeriod time.Duration `validate:"gt=0"`
	InfectedFraction float64       `validate:"gte=0,lte=1"`
	Source           string        `validate:"oneof=file postgres"`
	LocationsPath    string
	TransitionsPath  string
	TimeLayouts      []string
}

type ReportConfig struct {
	Dir string
}

// Load читает .env из текущего каталога и переменные окружения
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom читает конфигурацию из указанного файла. Отсутствие файла не ошибка.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	startDate, err := parseDate(v.GetString("SIM_START_DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_START_DATE: %w", err)
	}
	endDate, err := parseDate(v.GetString("SIM_END_DATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_END_DATE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: v.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DB_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			ResultCacheTTL: time.Duration(v.GetInt("RESULT_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        v.GetInt("WORKER_MAX_RETRIES"),
		},
		Simulation: SimulationConfig{
			StartDate:        startDate,
			EndDate:          endDate,
			Step:             time.Duration(v.GetInt("SIM_STEP_HOURS")) * time.Hour,
			Seed:             v.GetInt64("SIM_SEED"),
			IncubationPeriod: time.Duration(v.GetInt("SIM_INCUBATION_HOURS")) * time.Hour,
			InfectiousPeriod: time.Duration(v.GetInt("SIM_INFECTIOUS_HOURS")) * time.Hour,
			InfectedFraction: v.GetFloat64("SIM_SEED_INFECTED_FRACTION"),
			Source:           v.GetString("SIM_SOURCE"),
			LocationsPath:    v.GetString("SIM_LOCATIONS_PATH"),
			TransitionsPath:  v.GetString("SIM_TRANSITIONS_PATH"),
			TimeLayouts:      parseList(v.GetString("SIM_TIME_LAYOUTS"), "|"),
		},
		Report: ReportConfig{
			Dir: v.GetString("REPORT_DIR"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_CORS_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("RESULT_CACHE_TTL", 3600)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_CONSUMER_GROUP", "simulation-run-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	v.SetDefault("SIM_START_DATE", "2010-12-21 20:00:00")
	v.SetDefault("SIM_END_DATE", "2011-09-19 17:00:00")
	v.SetDefault("SIM_STEP_HOURS", 24)
	v.SetDefault("SIM_SEED", 1)
	v.SetDefault("SIM_INCUBATION_HOURS", 72)
	v.SetDefault("SIM_INFECTIOUS_HOURS", 240)
	v.SetDefault("SIM_SEED_INFECTED_FRACTION", 0.01)
	v.SetDefault("SIM_SOURCE", SourceFile)
	v.SetDefault("SIM_LOCATIONS_PATH", "./shared_data/newyork_anon_locationData_newcrawl.txt")
	v.SetDefault("SIM_TRANSITIONS_PATH", "./shared_data/newyork_placenet_transitions.csv")

	v.SetDefault("REPORT_DIR", "./reports")
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateTime, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", s)
}

func parseList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate проверяет параметры симуляции
func (c *Config) Validate() error {
	if err := validator.Validate(&c.Simulation); err != nil {
		return fmt.Errorf("invalid simulation config: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
