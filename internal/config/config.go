package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Database DatabaseConfig `mapstructure:"database"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Storage  StorageConfig  `mapstructure:"storage"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string     `mapstructure:"mode" validate:"oneof=debug release test"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// CatalogConfig selects where the in-memory catalog is loaded from.
type CatalogConfig struct {
	Source    string `mapstructure:"source" validate:"oneof=static file tmdb database"`
	Path      string `mapstructure:"path" validate:"required_if=Source file"`
	BatchSize int    `mapstructure:"batch_size" validate:"min=1"`
}

type RankingConfig struct {
	Strategy  string          `mapstructure:"strategy" validate:"oneof=knn heuristic index"`
	DefaultK  int             `mapstructure:"default_k" validate:"min=1"`
	MaxK      int             `mapstructure:"max_k" validate:"min=1,gtefield=DefaultK"`
	Metric    string          `mapstructure:"metric" validate:"oneof=euclidean cosine"`
	Heuristic HeuristicConfig `mapstructure:"heuristic"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

// HeuristicConfig holds the weights of the additive tag ranker.
type HeuristicConfig struct {
	TagWeight       float64 `mapstructure:"tag_weight" validate:"gte=0"`
	HueWeight       float64 `mapstructure:"hue_weight" validate:"gte=0"`
	IntensityWeight float64 `mapstructure:"intensity_weight" validate:"gte=0"`
	PacingWeight    float64 `mapstructure:"pacing_weight" validate:"gte=0"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

type QdrantConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// TMDBConfig configures the remote movie database catalog source.
type TMDBConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	ImageBase string        `mapstructure:"image_base"`
	Language  string        `mapstructure:"language"`
	MaxPages  int           `mapstructure:"max_pages"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	Workers       int  `mapstructure:"workers" validate:"min=1"`
	BatchSize     int  `mapstructure:"batch_size" validate:"min=1"`
	RetryCount    int  `mapstructure:"retry_count" validate:"min=0"`
	MirrorPosters bool `mapstructure:"mirror_posters"`
	IndexVectors  bool `mapstructure:"index_vectors"`
}

// Load reads configuration from configPath (or ./configs/config.yaml), .env
// and the environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment endpoints
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.port", "QDRANT_PORT")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("tmdb.api_key", "TMDB_API_KEY")
	v.BindEnv("ranking.remote.base_url", "RANKING_REMOTE_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Ranking.Remote.ResolveEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("catalog.source", "static")
	v.SetDefault("catalog.path", "./data/movies.json")
	v.SetDefault("catalog.batch_size", 50)

	v.SetDefault("ranking.strategy", "knn")
	v.SetDefault("ranking.default_k", 5)
	v.SetDefault("ranking.max_k", 50)
	v.SetDefault("ranking.metric", "euclidean")
	v.SetDefault("ranking.heuristic.tag_weight", 1.5)
	v.SetDefault("ranking.heuristic.hue_weight", 1.2)
	v.SetDefault("ranking.heuristic.intensity_weight", 1.0)
	v.SetDefault("ranking.heuristic.pacing_weight", 1.0)
	v.SetDefault("ranking.remote.enabled", false)
	v.SetDefault("ranking.remote.timeout", 5*time.Second)
	v.SetDefault("ranking.remote.health_ttl", 30*time.Second)
	v.SetDefault("ranking.remote.breaker.max_requests", 3)
	v.SetDefault("ranking.remote.breaker.interval", time.Minute)
	v.SetDefault("ranking.remote.breaker.timeout", 30*time.Second)
	v.SetDefault("ranking.remote.breaker.failure_ratio", 0.6)
	v.SetDefault("ranking.remote.breaker.min_requests", 5)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/cinevibe.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("qdrant.enabled", false)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "movies")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucket", "posters")

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.max_pages", 3)
	v.SetDefault("tmdb.timeout", 10*time.Second)

	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.batch_size", 20)
	v.SetDefault("ingest.retry_count", 2)
	v.SetDefault("ingest.mirror_posters", false)
	v.SetDefault("ingest.index_vectors", false)
}

var validate = validator.New()

// Validate checks enums, ranges and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Ranking.Remote.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Ranking.Strategy == "index" && !c.Qdrant.Enabled {
		return fmt.Errorf("invalid config: ranking.strategy=index requires qdrant.enabled")
	}
	if c.Catalog.Source == "tmdb" && c.TMDB.APIKey == "" {
		return fmt.Errorf("invalid config: catalog.source=tmdb requires tmdb.api_key (TMDB_API_KEY)")
	}
	return nil
}
