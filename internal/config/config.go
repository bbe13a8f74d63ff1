// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Gateway                 `yaml:"payment_gateway"`
	Entitlement             `yaml:"entitlement"`
	Plans                   Plans `yaml:"plans"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitConnectionString string        `yaml:"rabbit_connection_string"`
	ConnectRetries         int           `yaml:"connect_retries" env-default:"5"`
	ConnectRetryDelay      time.Duration `yaml:"connect_retry_delay" env-default:"3s"`
}

// SMTP структура для настройки отправки почтовых уведомлений
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	// AdminEmail адрес, на который уходят административные уведомления.
	AdminEmail string `yaml:"admin_email"`
}

// Gateway структура для настройки клиента платежного шлюза
type Gateway struct {
	GatewayShopID    string `yaml:"shop_id"`
	GatewaySecretKey string `yaml:"secret_key"`
	GatewayAPIURL    string `yaml:"api_url"`
	WebhookSecret    string `yaml:"webhook_secret"`
	ReturnURL        string `yaml:"return_url"`
	Currency         string `yaml:"currency" env-default:"MAD"`
}

// Entitlement структура с настройками движка прав доступа
type Entitlement struct {
	DeviceLimit         int           `yaml:"device_limit" env-default:"3"`
	TrialDays           int           `yaml:"trial_days" env-default:"7"`
	AccessCacheTTL      time.Duration `yaml:"access_cache_ttl" env-default:"10s"`
	PaymentPollInterval time.Duration `yaml:"payment_poll_interval" env-default:"3s"`
	PaymentPollTimeout  time.Duration `yaml:"payment_poll_timeout" env-default:"2m"`
}

// Plan описывает один тарифный план: длительность и цена.
// Перечислимые планы заменяют свободную карту настроек: опечатка в имени
// плана становится ошибкой на этапе загрузки конфига, а не в рантайме.
type Plan struct {
	Months int   `yaml:"months"`
	Amount int64 `yaml:"amount"`
}

// Plans перечисляет поддерживаемые тарифные планы.
type Plans struct {
	Monthly   Plan `yaml:"monthly"`
	Quarterly Plan `yaml:"quarterly"`
	Yearly    Plan `yaml:"yearly"`
}

// ByType возвращает план по строковому типу из запроса.
func (p Plans) ByType(planType string) (Plan, bool) {
	switch planType {
	case "monthly":
		return p.Monthly, true
	case "quarterly":
		return p.Quarterly, true
	case "yearly":
		return p.Yearly, true
	default:
		return Plan{}, false
	}
}

// MustLoad функция для загрузки конфига, путь берется из переменной окружения CONFIG_PATH
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

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Entitlement:\n"+
			"  DeviceLimit: %d\n"+
			"  TrialDays: %d\n"+
			"  AccessCacheTTL: %s\n",
		c.Env,
		maskDSN(c.StorageConnectionString),
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.DeviceLimit,
		c.TrialDays,
		c.AccessCacheTTL,
	)
}

// maskDSN скрывает пароль в строке подключения перед выводом в лог.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User == nil {
		return dsn
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
