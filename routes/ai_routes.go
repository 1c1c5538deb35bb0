package routes

import (
	"therapii_server/controllers"
	"therapii_server/services"

	"github.com/gorilla/mux"
)

// RegisterAIRoutes registers the AI companion endpoints under `/api/ai`.
func RegisterAIRoutes(
	router *mux.Router,
	ai *services.AIService,
	conversations *services.ConversationService,
	requireAuth mux.MiddlewareFunc,
) {
	controller := &controllers.AIController{AI: ai, Conversations: conversations}

	aiRouter := router.PathPrefix("/api/ai").Subrouter()
	aiRouter.Use(requireAuth)
	aiRouter.HandleFunc("/chat", controller.ChatCompletionHandler).Methods("POST")
	aiRouter.HandleFunc("/summaries", controller.SaveSummaryHandler).Methods("POST")
}
