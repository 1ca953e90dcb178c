// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Session                 `yaml:"session"`
	Files                   `yaml:"files"`
	Extractor               `yaml:"extractor"`
	AI                      `yaml:"ai"`
	Razorpay                `yaml:"razorpay"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// Session структура для настройки серверных сессий
type Session struct {
	CookieName string        `yaml:"cookie_name" env-default:"sid"`
	TTL        time.Duration `yaml:"ttl" env-default:"168h"`
	Secure     bool          `yaml:"secure"`
}

// Files структура для настройки файлового хранилища
type Files struct {
	Dir           string `yaml:"dir" env-default:"./data/files"`
	PublicPrefix  string `yaml:"public_prefix" env-default:"/files"`
	MaxUploadSize int64  `yaml:"max_upload_size" env-default:"10485760"`
}

// Extractor структура для настройки извлечения текста из документов
type Extractor struct {
	TesseractBin string        `yaml:"tesseract_bin" env-default:"tesseract"`
	PdftoppmBin  string        `yaml:"pdftoppm_bin" env-default:"pdftoppm"`
	OCRLanguage  string        `yaml:"ocr_language" env-default:"eng"`
	OCRTimeout   time.Duration `yaml:"ocr_timeout" env-default:"60s"`
}

// AI структура для настройки клиента генерации решений
type AI struct {
	BaseURL   string        `yaml:"base_url" env-default:"https://api.openai.com/v1"`
	APIKey    string        `yaml:"api_key" env:"AI_API_KEY"`
	Model     string        `yaml:"model" env-default:"gpt-4o-mini"`
	TimeoutAI time.Duration `yaml:"timeout" env-default:"120s"`
}

// Razorpay структура для настройки платёжного шлюза
type Razorpay struct {
	BaseURL   string `yaml:"base_url" env-default:"https://api.razorpay.com/v1"`
	KeyID     string `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	KeySecret string `yaml:"key_secret" env:"RAZORPAY_KEY_SECRET"`
}

// RabbitMQ структура для настройки подключения к брокеру событий
type RabbitMQ struct {
	URL          string `yaml:"url" env:"RABBITMQ_URL"`
	PaymentQueue string `yaml:"payment_queue" env-default:"payment_events"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
