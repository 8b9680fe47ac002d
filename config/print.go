package config

import "fmt"

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	fmt.Printf("mode: %s\n", cfg.Mode)
	fmt.Printf("database: postgres://%s:%s@%s:%s/%s (pool %d-%d)\n",
		cfg.Database.User, mask(cfg.Database.Password),
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.Database.MinConns, cfg.Database.MaxConns,
	)
	fmt.Printf("redis: %s db=%d password=%s\n", cfg.Redis.Addr(), cfg.Redis.DB, mask(cfg.Redis.Password))
	fmt.Printf("rabbitmq: amqp://%s:%s@%s:%s/\n",
		cfg.RabbitMQ.User, mask(cfg.RabbitMQ.Password), cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
	)
	fmt.Printf("sms: %s sender=%s key=%s code_ttl=%s\n",
		cfg.SMS.APIURL, cfg.SMS.Sender, mask(cfg.SMS.APIKey), cfg.SMS.CodeTTL,
	)
	fmt.Printf("fcm: %s key=%s\n", cfg.FCM.APIURL, mask(cfg.FCM.ServerKey))
	fmt.Printf("uploads: dir=%s max_photo_mb=%d\n", cfg.Uploads.Dir, cfg.Uploads.MaxPhotoMB)
	fmt.Printf("ports: driver=%s dispatcher=%s admin=%s\n",
		cfg.Services.DriverService, cfg.Services.DispatcherService, cfg.Services.AdminService,
	)
	fmt.Printf("billing: commission_percent=%.1f\n", cfg.Billing.CommissionPercent)
	fmt.Printf("geo: key=%s timeout=%s\n", mask(cfg.Geo.LocationIQKey), cfg.Geo.Timeout)
	fmt.Printf("auth: access_ttl=%s refresh_ttl=%s secret=%s\n",
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, mask(cfg.Auth.JWTSecret),
	)
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "****"
}
