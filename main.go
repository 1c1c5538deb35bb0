package main

import (
	"log"
	"net/http"

	"therapii_server/controllers"
	"therapii_server/middleware"
	"therapii_server/routes"
	"therapii_server/services"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	envCfg, err := services.LoadEnvConfig()
	if err != nil {
		log.Fatalf("Failed to parse environment config: %v", err)
	}
	if envCfg.AuthJWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET must be set")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	settingsService := &services.SettingsService{Dynamo: dynamoService}
	emailService := &services.EmailService{Settings: settingsService}
	codeGenerator := &services.CodeGeneratorService{Dynamo: dynamoService}
	invitationService := &services.InvitationService{
		Dynamo: dynamoService,
		Codes:  codeGenerator,
		Email:  emailService,
	}
	queryService := &services.InvitationQueryService{Dynamo: dynamoService}
	aiService := &services.AIService{Settings: settingsService}
	conversationService := &services.ConversationService{Dynamo: dynamoService}

	// Initialize the router
	r := mux.NewRouter()

	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")

	// Register routes
	requireAuth := middleware.RequireAuth(envCfg.AuthJWTSecret)
	routes.RegisterInvitationRoutes(r, invitationService, queryService, requireAuth)
	routes.RegisterAIRoutes(r, aiService, conversationService, requireAuth)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...", envCfg.Port)
	log.Fatal(http.ListenAndServe(":"+envCfg.Port, corsHandler))
}
