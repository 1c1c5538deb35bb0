package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// SaveSummaryInput carries a conversation summary save request.
type SaveSummaryInput struct {
	TherapistID string                  `json:"therapistId"`
	Summary     string                  `json:"summary"`
	Transcript  []models.TranscriptPart `json:"transcript"`
}

// ConversationService persists AI companion conversation summaries.
// Records are written once and never mutated.
type ConversationService struct {
	Dynamo *DynamoService

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SaveSummary stores a summary for the authenticated patient after
// verifying the patient is actually linked to the named therapist. The
// transcript is sanitized to role/text pairs with empty turns dropped.
func (s *ConversationService) SaveSummary(ctx context.Context, patientID string, input SaveSummaryInput) (string, error) {
	if patientID == "" {
		return "", models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	therapistID := strings.TrimSpace(input.TherapistID)
	if therapistID == "" {
		return "", models.NewError(models.CodeInvalidArgument, "therapistId is required")
	}
	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		return "", models.NewError(models.CodeInvalidArgument, "summary is required")
	}

	profile, err := s.getProfile(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return "", models.NewError(models.CodeFailedPrecondition, "User profile not found")
		}
		return "", err
	}
	if profile.TherapistID == "" || profile.TherapistID != therapistID {
		return "", models.NewError(models.CodePermissionDenied, "You are not linked to this therapist.")
	}

	transcript := make([]models.TranscriptPart, 0, len(input.Transcript))
	for _, part := range input.Transcript {
		if part.Text == "" {
			continue
		}
		transcript = append(transcript, models.TranscriptPart{Role: part.Role, Text: part.Text})
	}

	record := models.AiConversationSummary{
		ID:                 uuid.NewString(),
		PatientID:          patientID,
		TherapistID:        therapistID,
		Summary:            summary,
		Transcript:         transcript,
		ShareWithTherapist: profile.SharesSummaries(),
		CreatedAt:          s.now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItemIfAbsent(ctx, models.AiConversationSummariesTable, "id", record); err != nil {
		return "", fmt.Errorf("failed to save summary: %w", err)
	}
	return record.ID, nil
}

func (s *ConversationService) getProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	})
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user profile: %w", err)
	}
	return &profile, nil
}
