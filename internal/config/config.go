package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	MongoDB  string
	Port     string
	APIKey   string
	AppEnv   string
}

// LoadConfig carga la configuración una sola vez al arranque.
// Los handlers la reciben explícitamente; nadie lee env vars después.
func LoadConfig() *Config {
	// Solo cargar .env en desarrollo local
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Error loading .env file:", err)
		} else {
			log.Println("✅ .env file loaded successfully")
		}
	} else {
		log.Println("🌐 Using system environment variables")
	}

	return &Config{
		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "productsApi"),
		Port:     strings.TrimPrefix(getEnv("PORT", "8080"), ":"),
		APIKey:   getEnv("API_KEY", ""),
		AppEnv:   getEnv("APP_ENV", "development"),
	}
}

// IsProduction decide si se suprimen detalles internos en errores 500.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
