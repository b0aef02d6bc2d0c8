package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort      string
	MongoURL      string
	MongoDBName   string
	PsqlURL       string
	RedisURL      string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	EvaluatorURL    string
	EvaluatorAPIKey string
	EvaluatorModel  string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	config := Config{
		HTTPPort:        getEnv("HTTPPORT", "8080"),
		MongoURL:        getEnv("MONGOURL", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGODBNAME", "devdual"),
		PsqlURL:         getEnv("PSQLURL", "host=localhost port=5432 user=admin password=password dbname=devdual sslmode=disable"),
		RedisURL:        getEnv("REDISURL", "localhost:6379"),
		RedisPassword:   getEnv("REDISPASSWORD", ""),
		RedisDB:         getEnvInt("REDISDB", 0),
		JWTSecret:       getEnv("JWTSECRET", "secrettt"),
		EvaluatorURL:    getEnv("EVALUATORURL", "https://generativelanguage.googleapis.com/v1beta"),
		EvaluatorAPIKey: getEnv("EVALUATORAPIKEY", ""),
		EvaluatorModel:  getEnv("EVALUATORMODEL", "gemini-2.0-flash"),
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
