package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr        string `yaml:"addr"`
		AdminAPIKey string `yaml:"admin_api_key"` // requerido por /admin/*; vacío = admin deshabilitado
	} `yaml:"server"`

	JWT struct {
		Issuer               string `yaml:"issuer"`
		Audience             string `yaml:"audience"`
		TokenDurationSeconds int    `yaml:"token_duration_seconds"`
		Algorithm            string `yaml:"algorithm"` // RS256 | ES256
		// puntero para distinguir "no seteado" (default true) de false explícito
		KeyRotationEnabled *bool `yaml:"key_rotation_enabled"`
	} `yaml:"jwt"`

	Keystore struct {
		Driver string `yaml:"driver"` // memory | fs | postgres | redis | hybrid
		FS     struct {
			Dir string `yaml:"dir"`
		} `yaml:"fs"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int32  `yaml:"max_conns"`
		} `yaml:"postgres"`
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Hybrid struct {
			Primary  string `yaml:"primary"`
			Fallback string `yaml:"fallback"`
		} `yaml:"hybrid"`
	} `yaml:"keystore"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Backend     string `yaml:"backend"` // memory | redis (usa keystore.redis)
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Security struct {
		MasterKey string `yaml:"master_key"` // base64(32 bytes); sella las privadas en reposo
	} `yaml:"security"`
}

var (
	ErrInvalidAlgorithm = errors.New("config: jwt.algorithm must be RS256 or ES256")
	ErrInvalidDriver    = errors.New("config: keystore.driver must be memory, fs, postgres, redis or hybrid")
	ErrInvalidDuration  = errors.New("config: jwt.token_duration_seconds must be > 0")
	ErrInvalidRate      = errors.New("config: rate needs backend memory|redis, a valid window and max_requests > 0")
)

// Load lee config YAML (si path no está vacío y existe), aplica defaults y
// overrides por env, y valida. Un path vacío arma la config solo con env + defaults.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadEnvFile carga un .env si existe; si no existe no es error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Default retorna una config con todos los defaults aplicados (sin env).
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "tokensmith"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "http://localhost:3000"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "http://localhost:3000"
	}
	if c.JWT.TokenDurationSeconds == 0 {
		c.JWT.TokenDurationSeconds = 900
	}
	if c.JWT.Algorithm == "" {
		c.JWT.Algorithm = "RS256"
	}
	if c.JWT.KeyRotationEnabled == nil {
		enabled := true
		c.JWT.KeyRotationEnabled = &enabled
	}
	if c.Keystore.Driver == "" {
		c.Keystore.Driver = "fs"
	}
	if c.Keystore.FS.Dir == "" {
		c.Keystore.FS.Dir = "./keys"
	}
	if c.Keystore.Postgres.MaxConns == 0 {
		c.Keystore.Postgres.MaxConns = 4
	}
	if c.Keystore.Redis.Addr == "" {
		c.Keystore.Redis.Addr = "localhost:6379"
	}
	if c.Keystore.Redis.Prefix == "" {
		c.Keystore.Redis.Prefix = "tokensmith"
	}
	if c.Keystore.Hybrid.Primary == "" {
		c.Keystore.Hybrid.Primary = "postgres"
	}
	if c.Keystore.Hybrid.Fallback == "" {
		c.Keystore.Hybrid.Fallback = "fs"
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
}

// Validate chequea los valores que el core no puede corregir solo.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.JWT.Algorithm) {
	case "RS256", "ES256":
		c.JWT.Algorithm = strings.ToUpper(c.JWT.Algorithm)
	default:
		return fmt.Errorf("%w (got %q)", ErrInvalidAlgorithm, c.JWT.Algorithm)
	}
	if c.JWT.TokenDurationSeconds <= 0 {
		return ErrInvalidDuration
	}
	if !validDriver(c.Keystore.Driver) {
		return fmt.Errorf("%w (got %q)", ErrInvalidDriver, c.Keystore.Driver)
	}
	if c.Keystore.Driver == "hybrid" {
		p, f := c.Keystore.Hybrid.Primary, c.Keystore.Hybrid.Fallback
		if !validDriver(p) || !validDriver(f) || p == "hybrid" || f == "hybrid" {
			return fmt.Errorf("%w: hybrid primary/fallback %q/%q", ErrInvalidDriver, p, f)
		}
	}
	if c.Rate.Enabled {
		w, err := time.ParseDuration(c.Rate.Window)
		if err != nil || w <= 0 || c.Rate.MaxRequests <= 0 ||
			(c.Rate.Backend != "memory" && c.Rate.Backend != "redis") {
			return fmt.Errorf("%w (backend=%q window=%q max=%d)", ErrInvalidRate, c.Rate.Backend, c.Rate.Window, c.Rate.MaxRequests)
		}
	}
	return nil
}

func validDriver(d string) bool {
	switch d {
	case "memory", "fs", "postgres", "redis", "hybrid":
		return true
	}
	return false
}

// TokenDuration como time.Duration.
func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.JWT.TokenDurationSeconds) * time.Second
}

// RotationEnabled resuelve el puntero (default true).
func (c *Config) RotationEnabled() bool {
	return c.JWT.KeyRotationEnabled == nil || *c.JWT.KeyRotationEnabled
}

// RateWindow como time.Duration (0 si es inválida).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// IsProd indica entorno productivo (logger JSON).
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Server.AdminAPIKey = v
	}

	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvInt("JWT_TOKEN_DURATION_SECONDS"); ok {
		c.JWT.TokenDurationSeconds = v
	}
	if v, ok := getEnvStr("JWT_ALGORITHM"); ok {
		c.JWT.Algorithm = v
	}
	if v, ok := getEnvBool("JWT_KEY_ROTATION_ENABLED"); ok {
		c.JWT.KeyRotationEnabled = &v
	}

	if v, ok := getEnvStr("KEYSTORE_DRIVER"); ok {
		c.Keystore.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("KEYSTORE_FS_DIR"); ok {
		c.Keystore.FS.Dir = v
	}
	if v, ok := getEnvStr("KEYSTORE_PG_DSN"); ok {
		c.Keystore.Postgres.DSN = v
	}
	if v, ok := getEnvStr("KEYSTORE_REDIS_ADDR"); ok {
		c.Keystore.Redis.Addr = v
	}
	if v, ok := getEnvInt("KEYSTORE_REDIS_DB"); ok {
		c.Keystore.Redis.DB = v
	}
	if v, ok := getEnvStr("KEYSTORE_REDIS_PASSWORD"); ok {
		c.Keystore.Redis.Password = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	if v, ok := getEnvStr("KEYS_MASTER_KEY"); ok {
		c.Security.MasterKey = v
	}
}
