package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name         string
	Env          string
	AllowOrigins []string
	HTTP         HTTP
	Admin        AdminHTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	CookieName        string
	CookieSecure      bool
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

// Store selects the persistence backend: mongo, postgres, mysql or memory.
type Store struct {
	Driver string
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Mongo struct {
	URI        string
	Database   string
	TimeoutSec int
}

type Redis struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	CacheTTLSec int    `mapstructure:"cacheTTLSec"`
}

type Cloudinary struct {
	CloudName    string
	UploadPreset string
	BaseURL      string
}

type S3 struct {
	Region        string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

// ImageHost configures where listing photos are stored (cloudinary or s3).
type ImageHost struct {
	Provider   string
	TimeoutSec int
	Cloudinary Cloudinary
	S3         S3
}

type Limits struct {
	RPS               float64
	Burst             int
	AdminRPS          float64 // one bucket shared by every admin caller; 0 disables
	AdminBurst        int
	MaxConcurrent     int64
	MaxBodyMB         int64
	RequestTimeoutSec int
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Store     Store
	DB        DB
	Mongo     Mongo
	Redis     Redis `mapstructure:"redis"`
	ImageHost ImageHost
	Limits    Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "estate-market")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.allowOrigins", []string{})
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 30)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 3001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 14)
	v.SetDefault("log.rotate.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "estate-market")
	v.SetDefault("jwt.accessTokenTTLMin", 60*24)
	v.SetDefault("jwt.cookieName", "access_token")
	v.SetDefault("jwt.cookieSecure", false)

	v.SetDefault("store.driver", "mongo")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 25)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "estate")
	v.SetDefault("mongo.timeoutSec", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cacheTTLSec", 300)

	v.SetDefault("imagehost.provider", "cloudinary")
	v.SetDefault("imagehost.timeoutSec", 60)
	v.SetDefault("imagehost.cloudinary.cloudName", "")
	v.SetDefault("imagehost.cloudinary.uploadPreset", "")
	v.SetDefault("imagehost.cloudinary.baseURL", "https://api.cloudinary.com")
	v.SetDefault("imagehost.s3.region", "us-east-1")
	v.SetDefault("imagehost.s3.bucket", "")
	v.SetDefault("imagehost.s3.endpoint", "")
	v.SetDefault("imagehost.s3.accessKey", "")
	v.SetDefault("imagehost.s3.secretKey", "")
	v.SetDefault("imagehost.s3.publicBaseURL", "")
	v.SetDefault("imagehost.s3.usePathStyle", true)

	v.SetDefault("limits.rps", 50)
	v.SetDefault("limits.burst", 100)
	v.SetDefault("limits.adminRPS", 5)
	v.SetDefault("limits.adminBurst", 10)
	v.SetDefault("limits.maxConcurrent", 300)
	v.SetDefault("limits.maxBodyMB", 32)
	v.SetDefault("limits.requestTimeoutSec", 30)
}

// Load reads the YAML file at path (or CONFIG_PATH, or the local default) and
// layers APP_* environment variables on top. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Printf("[config] %s not found, using defaults/env", path)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}
