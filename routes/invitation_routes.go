package routes

import (
	"therapii_server/controllers"
	"therapii_server/services"

	"github.com/gorilla/mux"
)

// RegisterInvitationRoutes registers the invitation workflow under
// `/api/invitations`. Preview is the only route outside the auth
// middleware.
func RegisterInvitationRoutes(
	router *mux.Router,
	invitations *services.InvitationService,
	queries *services.InvitationQueryService,
	requireAuth mux.MiddlewareFunc,
) {
	controller := &controllers.InvitationController{Invitations: invitations, Queries: queries}

	public := router.PathPrefix("/api/invitations").Subrouter()
	public.HandleFunc("/preview", controller.PreviewInvitationHandler).Methods("POST")

	protected := router.PathPrefix("/api/invitations").Subrouter()
	protected.Use(requireAuth)
	protected.HandleFunc("", controller.CreateInvitationHandler).Methods("POST")
	protected.HandleFunc("", controller.ListInvitationsHandler).Methods("GET")
	protected.HandleFunc("/redeem", controller.RedeemInvitationHandler).Methods("POST")
	protected.HandleFunc("/accepted/therapist", controller.ListAcceptedForTherapistHandler).Methods("GET")
	protected.HandleFunc("/accepted/patient", controller.ListAcceptedForPatientHandler).Methods("GET")
	protected.HandleFunc("/{invitationId}", controller.DeleteInvitationHandler).Methods("DELETE")
}
