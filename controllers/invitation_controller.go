package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"therapii_server/middleware"
	"therapii_server/models"
	"therapii_server/services"
	"therapii_server/utils"

	"github.com/gorilla/mux"
)

// InvitationController handles HTTP requests for the invitation workflow.
type InvitationController struct {
	Invitations *services.InvitationService
	Queries     *services.InvitationQueryService
}

// CreateInvitationHandler creates an invitation and attempts email delivery.
func (c *InvitationController) CreateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateInvitationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, models.NewError(models.CodeInvalidArgument, "Invalid request body"))
		return
	}

	callerID := middleware.CallerID(r.Context())
	result, err := c.Invitations.CreateInvitation(context.Background(), callerID, input)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"invitationId": result.InvitationID,
		"emailSent":    result.EmailSent,
		"invitation":   result.Invitation,
	})
}

// RedeemInvitationHandler consumes a code for the authenticated patient.
// The invitation in the response is null when the code is unknown, used or
// expired.
func (c *InvitationController) RedeemInvitationHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, models.NewError(models.CodeInvalidArgument, "Invalid request body"))
		return
	}

	callerID := middleware.CallerID(r.Context())
	invitation, err := c.Invitations.RedeemInvitation(context.Background(), callerID, input.Code)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitation": invitation})
}

// PreviewInvitationHandler is the unauthenticated sanitized lookup.
func (c *InvitationController) PreviewInvitationHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, models.NewError(models.CodeInvalidArgument, "Invalid request body"))
		return
	}

	invitation, err := c.Queries.PreviewByCode(context.Background(), input.Code)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitation": invitation})
}

// ListInvitationsHandler returns every invitation owned by the caller.
func (c *InvitationController) ListInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerID(r.Context())
	requestedID := r.URL.Query().Get("therapistId")

	invitations, err := c.Queries.ListForTherapist(context.Background(), callerID, requestedID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeInvitations(w, invitations)
}

// ListAcceptedForTherapistHandler returns the caller's completed connections.
func (c *InvitationController) ListAcceptedForTherapistHandler(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerID(r.Context())
	requestedID := r.URL.Query().Get("therapistId")

	invitations, err := c.Queries.ListAcceptedForTherapist(context.Background(), callerID, requestedID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeInvitations(w, invitations)
}

// ListAcceptedForPatientHandler returns connections the caller redeemed.
func (c *InvitationController) ListAcceptedForPatientHandler(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerID(r.Context())
	requestedID := r.URL.Query().Get("patientId")

	invitations, err := c.Queries.ListAcceptedForPatient(context.Background(), callerID, requestedID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	writeInvitations(w, invitations)
}

// DeleteInvitationHandler removes an unused invitation owned by the caller.
func (c *InvitationController) DeleteInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitationId"]
	callerID := middleware.CallerID(r.Context())

	if err := c.Invitations.DeleteInvitation(context.Background(), callerID, invitationID); err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeInvitations(w http.ResponseWriter, invitations []models.InvitationCode) {
	if invitations == nil {
		invitations = []models.InvitationCode{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}
