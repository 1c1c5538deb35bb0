package models

import "time"

// InvitationTTL is how long a code stays redeemable after creation.
const InvitationTTL = 48 * time.Hour

// Invitation states, derived from isUsed and expiresAt at read time.
const (
	InvitationStatusPending = "pending"
	InvitationStatusUsed    = "used"
	InvitationStatusExpired = "expired"
)

// InvitationCode represents a one-time therapist-patient connection code.
// Timestamps are stored as RFC 3339 UTC strings so that DynamoDB string
// comparison orders them chronologically.
type InvitationCode struct {
	ID               string `dynamodbav:"id" json:"id"`
	Code             string `dynamodbav:"code" json:"code"`
	TherapistID      string `dynamodbav:"therapistId" json:"therapistId"`
	PatientEmail     string `dynamodbav:"patientEmail" json:"patientEmail"`
	PatientFirstName string `dynamodbav:"patientFirstName" json:"patientFirstName"`
	PatientLastName  string `dynamodbav:"patientLastName" json:"patientLastName"`
	IsUsed           bool   `dynamodbav:"isUsed" json:"isUsed"`
	CreatedAt        string `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt        string `dynamodbav:"expiresAt" json:"expiresAt"`
	UsedAt           string `dynamodbav:"usedAt,omitempty" json:"usedAt,omitempty"`
	PatientID        string `dynamodbav:"patientId,omitempty" json:"patientId,omitempty"`
}

// InvitationCodesTable is the DynamoDB table name for invitation codes
const InvitationCodesTable = "InvitationCodes"

// Secondary indexes on the invitation codes table
const (
	InvitationCodeIndex      = "CodeIndex"
	InvitationTherapistIndex = "TherapistIndex"
	InvitationPatientIndex   = "PatientIndex"
)

// IsExpired reports whether the code has passed its expiry at the given instant.
func (inv InvitationCode) IsExpired(now time.Time) bool {
	expiresAt, err := time.Parse(time.RFC3339, inv.ExpiresAt)
	if err != nil {
		// Unparseable expiry is treated as already expired.
		return true
	}
	return !now.Before(expiresAt)
}

// IsRedeemable reports whether the code can still be consumed.
func (inv InvitationCode) IsRedeemable(now time.Time) bool {
	return !inv.IsUsed && !inv.IsExpired(now)
}

// Status derives the lifecycle state at the given instant.
func (inv InvitationCode) Status(now time.Time) string {
	switch {
	case inv.IsUsed:
		return InvitationStatusUsed
	case inv.IsExpired(now):
		return InvitationStatusExpired
	default:
		return InvitationStatusPending
	}
}

// Sanitized returns the fields safe to show an unauthenticated caller
// previewing a code. Consumption details are never included.
func (inv InvitationCode) Sanitized() InvitationCode {
	return InvitationCode{
		ID:               inv.ID,
		Code:             inv.Code,
		TherapistID:      inv.TherapistID,
		PatientEmail:     inv.PatientEmail,
		PatientFirstName: inv.PatientFirstName,
		PatientLastName:  inv.PatientLastName,
		IsUsed:           false,
		CreatedAt:        inv.CreatedAt,
		ExpiresAt:        inv.ExpiresAt,
	}
}

// InvitationError is a diagnostic record persisted when invitation creation
// has to be rolled back after the record was already written.
type InvitationError struct {
	ID             string `dynamodbav:"id" json:"id"`
	TherapistID    string `dynamodbav:"therapistId" json:"therapistId"`
	PatientEmail   string `dynamodbav:"patientEmail" json:"patientEmail"`
	Message        string `dynamodbav:"message" json:"message"`
	ResponseStatus int    `dynamodbav:"responseStatus,omitempty" json:"responseStatus,omitempty"`
	ResponseBody   string `dynamodbav:"responseBody,omitempty" json:"responseBody,omitempty"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
}

// InvitationErrorsTable is the DynamoDB table name for creation diagnostics
const InvitationErrorsTable = "InvitationErrors"
