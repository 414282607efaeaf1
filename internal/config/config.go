package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/interactions/internal/logging"
)

// EnvConfigPath: переменная окружения с путём к файлу конфигурации
const EnvConfigPath = "INTERACTIONS_CONFIG"

// Config корневая структура конфигурации приложения.
// Незаданные поля заполняются геттерами: config -> env -> default.
type Config struct {
	Recipes   RecipesConfig   `yaml:"recipes"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Journal   JournalConfig   `yaml:"journal"`
	Claims    ClaimsConfig    `yaml:"claims"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type RecipesConfig struct {
	Dir string `yaml:"dir"`
}

// EventBusConfig: пустой URL означает in-memory шину
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type JournalConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	Disabled bool   `yaml:"disabled"`
	Compress bool   `yaml:"compress"`
}

// ClaimsConfig: без Redis и MariaDB приваты живут в памяти
type ClaimsConfig struct {
	MariaDSN      string `yaml:"maria_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Key           string `yaml:"key"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	CacheTTLMs    int    `yaml:"cache_ttl_ms"`
	NoCache       bool   `yaml:"no_cache"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

// APIConfig: пустой jwt_secret означает случайный ключ на время жизни процесса
type APIConfig struct {
	Disabled  bool   `yaml:"disabled"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl_hours"`
	MongoURI  string `yaml:"operators_mongo_uri"`
	AdminName string `yaml:"admin_name"`
}

type TelemetryConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Endpoint string  `yaml:"endpoint"`
	Insecure bool    `yaml:"insecure"`
	Service  string  `yaml:"service"`
	Ratio    float64 `yaml:"sample_ratio"`
}

type LogConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// GetDir возвращает каталог рецептов
func (r *RecipesConfig) GetDir() string {
	return getStringWithEnvFallback(r.Dir, "INTERACTIONS_RECIPES_DIR", "assets/recipes")
}

// GetURL возвращает адрес NATS; пусто: NATS не используется
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "NATS_URL", "")
}

// GetStream возвращает имя стрима JetStream
func (e *EventBusConfig) GetStream() string {
	return getStringWithEnvFallback(e.Stream, "INTERACTIONS_STREAM", "INTERACTIONS")
}

// GetRetention возвращает срок хранения сообщений в стриме
func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "INTERACTIONS_RETENTION_HOURS", 24)) * time.Hour
}

// GetPath возвращает каталог журнала исходов
func (j *JournalConfig) GetPath() string {
	return getStringWithEnvFallback(j.Path, "INTERACTIONS_JOURNAL", "data/journal")
}

// GetRedisAddr возвращает адрес Redis для приватов
func (c *ClaimsConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(c.RedisAddr, "INTERACTIONS_CLAIMS_REDIS", "")
}

// GetMariaDSN возвращает строку подключения MariaDB для приватов
func (c *ClaimsConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(c.MariaDSN, "INTERACTIONS_CLAIMS_MARIA_DSN", "")
}

// GetTimeout возвращает предельное время проверки привата
func (c *ClaimsConfig) GetTimeout() time.Duration {
	return time.Duration(getIntWithEnvFallback(c.TimeoutMs, "INTERACTIONS_CLAIMS_TIMEOUT_MS", 50)) * time.Millisecond
}

// GetCacheTTL возвращает срок жизни владельца в кеше узла
func (c *ClaimsConfig) GetCacheTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(c.CacheTTLMs, "INTERACTIONS_CLAIMS_CACHE_TTL_MS", 1000)) * time.Millisecond
}

// GetPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getIntWithEnvFallback(m.Port, "INTERACTIONS_METRICS_PORT", 2112)
}

// GetPort возвращает порт административного REST API
func (a *APIConfig) GetPort() int {
	return getIntWithEnvFallback(a.Port, "INTERACTIONS_API_PORT", 8088)
}

// GetJWTSecret возвращает base64-ключ подписи токенов
func (a *APIConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "INTERACTIONS_JWT_SECRET", "")
}

// GetMongoURI возвращает адрес MongoDB с операторами; пусто: операторы в памяти
func (a *APIConfig) GetMongoURI() string {
	return getStringWithEnvFallback(a.MongoURI, "INTERACTIONS_OPERATORS_MONGO_URI", "")
}

// GetAdmin возвращает начального администратора; пароль только из окружения
func (a *APIConfig) GetAdmin() (name, password string) {
	return getStringWithEnvFallback(a.AdminName, "INTERACTIONS_ADMIN_NAME", "admin"), os.Getenv("INTERACTIONS_ADMIN_PASSWORD")
}

// GetTokenTTL возвращает срок жизни токена оператора
func (a *APIConfig) GetTokenTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(a.TokenTTL, "INTERACTIONS_TOKEN_TTL_HOURS", 24)) * time.Hour
}

// GetEndpoint возвращает host:port OTLP/HTTP коллектора
func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "INTERACTIONS_OTLP_ENDPOINT", "localhost:4318")
}

// GetService возвращает service.name для трасс
func (t *TelemetryConfig) GetService() string {
	return getStringWithEnvFallback(t.Service, "INTERACTIONS_SERVICE", "interactions")
}

// GetLevels возвращает пороги консоли и файла
func (l *LogConfig) GetLevels() (console, file logging.LogLevel, err error) {
	console, err = logging.ParseLevel(getStringWithEnvFallback(l.ConsoleLevel, "INTERACTIONS_LOG_LEVEL", "info"))
	if err != nil {
		return 0, 0, fmt.Errorf("log.console_level: %w", err)
	}
	file, err = logging.ParseLevel(getStringWithEnvFallback(l.FileLevel, "INTERACTIONS_FILE_LOG_LEVEL", "debug"))
	if err != nil {
		return 0, 0, fmt.Errorf("log.file_level: %w", err)
	}
	return console, file, nil
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", берёт путь из INTERACTIONS_CONFIG; если и он пуст,
// возвращает пустую конфигурацию (все значения из env и дефолтов).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}
