package main

import (
	"log"
	"net/http"
	"os"

	"happy-hearts-pos/api-gateway/internal/gateway"

	"github.com/rs/cors"
)

func main() {
	config := gateway.Config{
		PosSvcURL:   getEnv("POS_SVC_URL", "http://localhost:8081"),
		AggSvcURL:   getEnv("AGG_SVC_URL", "http://localhost:8082"),
		FrontendDir: getEnv("FRONTEND_DIR", "./frontend"),
	}

	gw := gateway.NewGateway(config, &http.Client{})

	r := gw.SetupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	handler := c.Handler(r)

	log.Println("API Gateway starting on port 8080")
	log.Fatal(http.ListenAndServe(":8080", handler))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
