package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/rentora/listings-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppURL  string

	DBUrl string

	StripeSecretKey     string
	StripeWebhookSecret string

	SendgridAPIKey      string
	SendgridFromName    string
	SendgridFromEmail   string
	SendgridSandboxMode bool

	// RSAPublicKey verifies tokens minted by the identity service; this
	// service never signs tokens itself.
	RSAPublicKey *rsa.PublicKey

	UploadDir string
	Currency  string

	CheckoutSuccessURL string
	CheckoutCancelURL  string

	CORSAllowedOrigins []string
}

func LoadConfig() *Config {
	cfg := &Config{
		AppName:             "listings-service",
		AppPort:             requireEnv("APP_PORT"),
		AppURL:              requireEnv("APP_URL"),
		DBUrl:               requireEnv("DB_URL"),
		StripeSecretKey:     requireEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: requireEnv("STRIPE_WEBHOOK_SECRET"),
		SendgridAPIKey:      requireEnv("SENDGRID_API_KEY"),
		SendgridFromName:    envOr("SENDGRID_FROM_NAME", "Rentora"),
		SendgridFromEmail:   envOr("SENDGRID_FROM_EMAIL", "no-reply@rentora.app"),
		UploadDir:           envOr("UPLOAD_DIR", "./uploads"),
		Currency:            strings.ToLower(envOr("PAYMENT_CURRENCY", "aed")),
	}

	cfg.SendgridSandboxMode, _ = strconv.ParseBool(os.Getenv("SENDGRID_SANDBOX_MODE"))

	cfg.CheckoutSuccessURL = envOr("CHECKOUT_SUCCESS_URL", cfg.AppURL+"/payments/success?session_id={CHECKOUT_SESSION_ID}")
	cfg.CheckoutCancelURL = envOr("CHECKOUT_CANCEL_URL", cfg.AppURL+"/payments/cancelled")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	pubPEM, err := base64.StdEncoding.DecodeString(requireEnv("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	cfg.RSAPublicKey, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	return cfg
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
