package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env is the process configuration read from the environment.
type Env struct {
	AppAddr string
	GinMode string

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string

	// StoreDriver is one of mysql, mongo, memory.
	StoreDriver string
	MySQLDSN    string
	DBMigrate   bool
	MongoURI    string
	MongoDB     string

	JWTSecret        string
	JWTPublicKeyFile string
	JWTIssuer        string
	JWTAudience      string

	StripeSecretKey    string
	PaymentCurrency    string
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	RedisURL string

	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubUserID       string

	DepartureTZ              string
	BookingRequireAcceptance bool
	AdvertiseLimit           int

	ShutdownTimeout time.Duration
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads .env when present (existing variables win) and then the environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr:   str("APP_ADDR", ":8080"),
		GinMode:   str("GIN_MODE", ""),
		LogLevel:  str("LOG_LEVEL", "info"),
		LogFormat: str("LOG_FORMAT", "text"),

		CORSAllowedOrigins: list("CORS_ALLOWED_ORIGINS", defaultOrigins),

		StoreDriver: strings.ToLower(str("STORE_DRIVER", "mysql")),
		MySQLDSN:    mysqlDSN(),
		DBMigrate:   boolean("DB_MIGRATE", true),
		MongoURI:    str("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     str("MONGO_DB", "online-ticket"),

		JWTSecret:        str("JWT_SECRET", ""),
		JWTPublicKeyFile: str("JWT_PUBLIC_KEY_FILE", ""),
		JWTIssuer:        str("JWT_ISSUER", ""),
		JWTAudience:      str("JWT_AUDIENCE", ""),

		StripeSecretKey:    str("STRIPE_SECRET_KEY", ""),
		PaymentCurrency:    strings.ToLower(str("PAYMENT_CURRENCY", "usd")),
		CheckoutSuccessURL: str("CHECKOUT_SUCCESS_URL", "http://localhost:5173/payment/success"),
		CheckoutCancelURL:  str("CHECKOUT_CANCEL_URL", "http://localhost:5173/payment/cancel"),

		RedisURL: str("REDIS_URL", ""),

		PubNubPublishKey:   str("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: str("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubUserID:       str("PUBNUB_USER_ID", "online-ticket-api"),

		DepartureTZ:              str("DEPARTURE_TZ", "Local"),
		BookingRequireAcceptance: boolean("BOOKING_REQUIRE_ACCEPTANCE", false),
		AdvertiseLimit:           integer("ADVERTISE_LIMIT", 6),

		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Location resolves DepartureTZ, falling back to the local zone.
func (e Env) Location() *time.Location {
	if e.DepartureTZ == "" || strings.EqualFold(e.DepartureTZ, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(e.DepartureTZ)
	if err != nil {
		return time.Local
	}
	return loc
}

func str(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func list(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func integer(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func duration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
