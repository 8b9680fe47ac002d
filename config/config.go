package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Database DatabaseConfig
		Redis    RedisConfig
		RabbitMQ RabbitMQConfig
		SMS      SMSConfig
		FCM      FCMConfig
		Uploads  UploadsConfig
		Services ServicesConfig
		Auth     Auth
		Billing  BillingConfig
		Geo      GeoConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"fleet_user"`
		Password string `env:"DATABASE_PASSWORD" default:"fleet_pass"`
		Database string `env:"DATABASE_DATABASE" default:"fleet_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`         // максимум открытых соединений
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`          // минимум соединений в пуле
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"` // макс. "время жизни" соединения
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`  // макс. "время простоя" соединения
	}

	RedisConfig struct {
		Host     string `env:"REDIS_HOST" default:"localhost"`
		Port     string `env:"REDIS_PORT" default:"6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" default:"0"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	SMSConfig struct {
		APIURL  string        `env:"SMS_API_URL" default:"https://smspro.nikita.kg/api/message"`
		APIKey  string        `env:"SMS_API_KEY"`
		Sender  string        `env:"SMS_SENDER" default:"TaxiFleet"`
		Timeout time.Duration `env:"SMS_TIMEOUT" default:"10s"`

		// Тестовый номер: код не отправляется, всегда подходит "1111".
		TestPhone string        `env:"SMS_TEST_PHONE" default:"+996700000000"`
		CodeTTL   time.Duration `env:"SMS_CODE_TTL" default:"10m"`
	}

	FCMConfig struct {
		APIURL    string        `env:"FCM_API_URL" default:"https://fcm.googleapis.com/fcm/send"`
		ServerKey string        `env:"FCM_SERVER_KEY"`
		Timeout   time.Duration `env:"FCM_TIMEOUT" default:"10s"`
	}

	UploadsConfig struct {
		Dir        string `env:"UPLOADS_DIR" default:"./uploads"`
		MaxPhotoMB int    `env:"UPLOADS_MAX_PHOTO_MB" default:"10"`
		PublicPath string `env:"UPLOADS_PUBLIC_PATH" default:"/uploads"`
	}

	ServicesConfig struct {
		DriverService     string `env:"SERVICES_DRIVER_SERVICE" default:"3000"`
		DispatcherService string `env:"SERVICES_DISPATCHER_SERVICE" default:"3001"`
		AdminService      string `env:"SERVICES_ADMIN_SERVICE" default:"3004"`
	}

	BillingConfig struct {
		// Процент комиссии парка с цены заказа.
		CommissionPercent float64 `env:"BILLING_COMMISSION_PERCENT" default:"15"`
	}

	GeoConfig struct {
		// Пустой ключ выключает геокодирование адресов.
		LocationIQKey string        `env:"GEO_LOCATIONIQ_KEY"`
		Timeout       time.Duration `env:"GEO_TIMEOUT" default:"5s"`
	}

	Auth struct {
		AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" default:"168h"`
		JWTSecret       string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
