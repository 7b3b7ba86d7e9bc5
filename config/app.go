package config

type App struct {
	Port         string `env:"APP_PORT" default:"8080"`
	DatabaseURL  string `env:"DATABASE_URL,required"`
	JWTSecret    string `env:"JWT_SECRET,required"`
	NotifyURL    string `env:"NOTIFY_URL"`
	NotifyAPIKey string `env:"NOTIFY_API_KEY"`
	Env          string `env:"APP_ENV" default:"dev"`
}
