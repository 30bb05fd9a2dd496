package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Events    EventsConfig    `mapstructure:"events"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServiceType string

const (
	API    ServiceType = "API"
	WORKER ServiceType = "WORKER"
)

type ServiceConfig struct {
	Type           ServiceType   `mapstructure:"type"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	// Path is the database file used by the sqlite driver.
	Path             string `mapstructure:"path"`
	MaxConns         int32  `mapstructure:"maxConns"`
	MinConns         int32  `mapstructure:"minConns"`
	Migrate          bool   `mapstructure:"migrate"`
	PasswordSecretID string `mapstructure:"passwordSecretId"`
	AWSRegion        string `mapstructure:"awsRegion"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TLS      bool   `mapstructure:"tls"`
}

type PricingConfig struct {
	CacheTTL    time.Duration  `mapstructure:"cacheTTL"`
	// SymbolsFile is an optional CSV of symbol,name,price rows.
	SymbolsFile string         `mapstructure:"symbolsFile"`
	Symbols     []SymbolConfig `mapstructure:"symbols"`
}

type SymbolConfig struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
	Price  string `mapstructure:"price"`
}

type EventsConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`

	// PublishTimeout bounds each event publish. Mutations of the account wait
	// for it.
	PublishTimeout time.Duration `mapstructure:"publishTimeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration     `mapstructure:"tokenTTL"`
	Clients   map[string]string `mapstructure:"clients"`
}

func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

type WorkerConfig struct {
	SnapshotCron string `mapstructure:"snapshotCron"`
	Concurrency  int    `mapstructure:"concurrency"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8000")
	v.SetDefault("service.requestTimeout", "10s")
	v.SetDefault("service.readTimeout", "30s")
	v.SetDefault("service.writeTimeout", "30s")
	v.SetDefault("service.allowedOrigins", []string{"*"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("databases.sql.driver", DriverSQLite)
	v.SetDefault("databases.sql.path", "tradeledger.db")
	v.SetDefault("databases.sql.maxConns", 5)
	v.SetDefault("databases.sql.minConns", 1)
	v.SetDefault("databases.sql.migrate", true)
	v.SetDefault("databases.redis.enabled", false)
	v.SetDefault("pricing.cacheTTL", "5s")
	v.SetDefault("pricing.symbolsFile", "")
	v.SetDefault("events.kafka.topic", "ledger.transactions")
	v.SetDefault("events.publishTimeout", "2s")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", "1h")
	v.SetDefault("worker.snapshotCron", "@every 1h")
	v.SetDefault("worker.concurrency", 4)
}

// LoadConfig reads appsettings.yaml from path and merges appsettings.<env>.yaml
// over it when env is set. Any key can be overridden through the environment
// as TRADELEDGER_<SECTION>_<KEY>.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	if env != "" {
		v.SetConfigName("appsettings." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("TRADELEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
