package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var codePattern = regexp.MustCompile(`^\d{5}$`)

// CreateInvitationInput carries the fields of an invitation creation request.
type CreateInvitationInput struct {
	TherapistID      string `json:"therapistId"`
	PatientEmail     string `json:"patientEmail"`
	PatientFirstName string `json:"patientFirstName"`
	PatientLastName  string `json:"patientLastName"`
}

// CreateInvitationResult is the creation response payload.
type CreateInvitationResult struct {
	InvitationID string                `json:"invitationId"`
	EmailSent    bool                  `json:"emailSent"`
	Invitation   models.InvitationCode `json:"invitation"`
}

// InvitationService owns the invitation code lifecycle: creation, the
// exactly-once redemption write, and owner-initiated deletion.
type InvitationService struct {
	Dynamo *DynamoService
	Codes  *CodeGeneratorService
	Email  *EmailService

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func (s *InvitationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateInvitation generates a unique code, persists the invitation and
// attempts email delivery. Delivery failure never rolls the record back;
// an unrecoverable delivery misconfiguration does, with a diagnostic
// record left for operators.
func (s *InvitationService) CreateInvitation(ctx context.Context, callerID string, input CreateInvitationInput) (*CreateInvitationResult, error) {
	if callerID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "User must be authenticated to create invitations")
	}
	if input.TherapistID == "" || input.PatientEmail == "" || input.PatientFirstName == "" {
		return nil, models.NewError(models.CodeInvalidArgument,
			"Missing required fields: therapistId, patientEmail, or patientFirstName")
	}
	if callerID != input.TherapistID {
		return nil, models.NewError(models.CodePermissionDenied, "You can only create invitations for yourself")
	}

	code, err := s.Codes.EnsureUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	invitation := models.InvitationCode{
		ID:               uuid.NewString(),
		Code:             code,
		TherapistID:      input.TherapistID,
		PatientEmail:     input.PatientEmail,
		PatientFirstName: input.PatientFirstName,
		PatientLastName:  input.PatientLastName,
		IsUsed:           false,
		CreatedAt:        now.Format(time.RFC3339),
		ExpiresAt:        now.Add(models.InvitationTTL).Format(time.RFC3339),
	}

	if err := s.Dynamo.PutItemIfAbsent(ctx, models.InvitationCodesTable, "id", invitation); err != nil {
		return nil, fmt.Errorf("failed to persist invitation: %w", err)
	}

	emailSent, err := s.Email.SendInvitationCode(ctx, invitation.PatientEmail, invitation.Code, invitation.PatientFirstName)
	if err != nil {
		s.compensateCreation(ctx, invitation, err)
		return nil, models.NewError(models.CodeFailedPrecondition, "Failed to create invitation: %s", err.Error())
	}

	return &CreateInvitationResult{
		InvitationID: invitation.ID,
		EmailSent:    emailSent,
		Invitation:   invitation,
	}, nil
}

// compensateCreation removes the just-created record and persists the
// failure context so operators can diagnose it later. Both steps are
// best-effort.
func (s *InvitationService) compensateCreation(ctx context.Context, invitation models.InvitationCode, cause error) {
	log.Printf("Rolling back invitation %s after delivery misconfiguration: %v", invitation.ID, cause)

	if err := s.Dynamo.DeleteItem(ctx, models.InvitationCodesTable, invitationKey(invitation.ID)); err != nil {
		log.Printf("Failed to delete invitation %s during rollback: %v", invitation.ID, err)
	}

	record := models.InvitationError{
		ID:           uuid.NewString(),
		TherapistID:  invitation.TherapistID,
		PatientEmail: invitation.PatientEmail,
		Message:      cause.Error(),
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if cfgErr, ok := cause.(*EmailConfigError); ok {
		record.ResponseStatus = cfgErr.Status
		record.ResponseBody = cfgErr.Body
	}
	if err := s.Dynamo.PutItem(ctx, models.InvitationErrorsTable, record); err != nil {
		log.Printf("Failed to persist invitation error context: %v", err)
	}
}

// RedeemInvitation consumes a pending code for the authenticated patient.
// The validity check and the state write are a single conditional update on
// the looked-up document, so two concurrent redemptions of the same code
// cannot both succeed. A nil invitation means the code is unknown, already
// used or expired; callers are deliberately not told which.
func (s *InvitationService) RedeemInvitation(ctx context.Context, patientID, code string) (*models.InvitationCode, error) {
	if patientID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return nil, models.NewError(models.CodeInvalidArgument, "code must be a 5-digit string")
	}

	invitation, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, nil
	}

	now := s.now().UTC().Format(time.RFC3339)
	attrs, err := s.Dynamo.UpdateItemWithCondition(
		ctx,
		models.InvitationCodesTable,
		invitationKey(invitation.ID),
		"SET isUsed = :used, usedAt = :usedAt, patientId = :patientId",
		"isUsed = :unused AND expiresAt > :now",
		map[string]types.AttributeValue{
			":used":      &types.AttributeValueMemberBOOL{Value: true},
			":unused":    &types.AttributeValueMemberBOOL{Value: false},
			":usedAt":    &types.AttributeValueMemberS{Value: now},
			":now":       &types.AttributeValueMemberS{Value: now},
			":patientId": &types.AttributeValueMemberS{Value: patientID},
		},
		nil,
	)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume invitation code: %w", err)
	}

	var redeemed models.InvitationCode
	if err := attributevalue.UnmarshalMap(attrs, &redeemed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redeemed invitation: %w", err)
	}
	return &redeemed, nil
}

// DeleteInvitation removes an unused invitation owned by the caller. Used
// invitations are permanent.
func (s *InvitationService) DeleteInvitation(ctx context.Context, therapistID, invitationID string) error {
	if therapistID == "" {
		return models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	if invitationID == "" {
		return models.NewError(models.CodeInvalidArgument, "invitationId is required")
	}

	item, err := s.Dynamo.GetItem(ctx, models.InvitationCodesTable, invitationKey(invitationID))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return models.NewError(models.CodeNotFound, "Invitation not found")
		}
		return fmt.Errorf("failed to load invitation: %w", err)
	}

	var invitation models.InvitationCode
	if err := attributevalue.UnmarshalMap(item, &invitation); err != nil {
		return fmt.Errorf("failed to unmarshal invitation: %w", err)
	}

	if invitation.TherapistID != therapistID {
		return models.NewError(models.CodePermissionDenied, "Cannot delete this invitation")
	}
	if invitation.IsUsed {
		return models.NewError(models.CodeFailedPrecondition, "Invitation already used")
	}

	// Conditional delete so a redemption that lands between the read above
	// and this write is not erased.
	err = s.Dynamo.DeleteItemWithCondition(
		ctx,
		models.InvitationCodesTable,
		invitationKey(invitationID),
		"isUsed = :unused",
		map[string]types.AttributeValue{
			":unused": &types.AttributeValueMemberBOOL{Value: false},
		},
	)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return models.NewError(models.CodeFailedPrecondition, "Invitation already used")
		}
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}

// findByCode looks up at most one invitation document by its code.
func (s *InvitationService) findByCode(ctx context.Context, code string) (*models.InvitationCode, error) {
	items, err := s.Dynamo.QueryItemsWithIndex(
		ctx,
		models.InvitationCodesTable,
		models.InvitationCodeIndex,
		"code = :code",
		map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
		},
		1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation code: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var invitation models.InvitationCode
	if err := attributevalue.UnmarshalMap(items[0], &invitation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitation: %w", err)
	}
	return &invitation, nil
}

func invitationKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
