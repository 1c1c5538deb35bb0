package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"therapii_server/middleware"
	"therapii_server/models"
	"therapii_server/services"
	"therapii_server/utils"
)

// AIController handles HTTP requests for the AI companion proxy.
type AIController struct {
	AI            *services.AIService
	Conversations *services.ConversationService
}

// ChatCompletionHandler forwards a chat request to the completion API with
// server-side credentials.
func (c *AIController) ChatCompletionHandler(w http.ResponseWriter, r *http.Request) {
	var input services.ChatCompletionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, models.NewError(models.CodeInvalidArgument, "Invalid request body"))
		return
	}

	callerID := middleware.CallerID(r.Context())
	result, err := c.AI.GenerateChatCompletion(context.Background(), callerID, input)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

// SaveSummaryHandler stores a conversation summary for the authenticated
// patient.
func (c *AIController) SaveSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var input services.SaveSummaryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, models.NewError(models.CodeInvalidArgument, "Invalid request body"))
		return
	}

	callerID := middleware.CallerID(r.Context())
	id, err := c.Conversations.SaveSummary(context.Background(), callerID, input)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
