package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // disable/require

	JWTSecret string // JWT署名シークレット（発行は認証サービス側）

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）

	RabbitMQURL string // 任意。空ならログ通知

	PaymentAPIURL    string // 任意。空ならStripe本番URL
	PaymentSecretKey string // 任意。空ならカード決済は503
	PaymentCurrency  string // nzd

	SettingsFile string // 任意。初回起動時の設定YAML
}

func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

// .envがあれば読む（無ければ環境変数だけ）
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		PaymentAPIURL:    os.Getenv("PAYMENT_API_URL"),
		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentCurrency:  getenv("PAYMENT_CURRENCY", "nzd"),

		SettingsFile: os.Getenv("SETTINGS_FILE"),
	}

	if err := cfg.requireSet(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 足りない環境変数はまとめて返す
func (c Config) requireSet() error {
	required := []struct {
		key string
		val string
	}{
		{"PORT", c.Port},
		{"POSTGRES_USER", c.PostgresUser},
		{"POSTGRES_PASSWORD", c.PostgresPassword},
		{"POSTGRES_DB", c.PostgresDB},
		{"POSTGRES_HOST", c.PostgresHost},
		{"JWT_SECRET", c.JWTSecret},
		{"GO_ENV", c.GoEnv},
		{"FE_URL", c.FEURL},
	}

	var errs []error
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}
	return errors.Join(errs...)
}

// DSNはgormのpostgresドライバ用
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
