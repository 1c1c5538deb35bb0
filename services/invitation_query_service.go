package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// InvitationQueryService serves the read-side projections of invitations.
// Every authenticated read path is scoped to the caller's own identity;
// client-supplied ids are only ever equality-checked against it.
type InvitationQueryService struct {
	Dynamo *DynamoService

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func (s *InvitationQueryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListForTherapist returns all invitations owned by the caller, newest
// first. requestedID, when set, must match the caller.
func (s *InvitationQueryService) ListForTherapist(ctx context.Context, callerID, requestedID string) ([]models.InvitationCode, error) {
	if callerID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	if requestedID != "" && requestedID != callerID {
		return nil, models.NewError(models.CodePermissionDenied, "You can only view your own invitations.")
	}

	invitations, err := s.queryByIndex(ctx, models.InvitationTherapistIndex, "therapistId", callerID)
	if err != nil {
		return nil, err
	}
	sortByCreatedDesc(invitations)
	return invitations, nil
}

// ListAcceptedForTherapist returns the caller's consumed invitations, the
// completed-connections view: most recently redeemed first.
func (s *InvitationQueryService) ListAcceptedForTherapist(ctx context.Context, callerID, requestedID string) ([]models.InvitationCode, error) {
	if callerID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	if requestedID != "" && requestedID != callerID {
		return nil, models.NewError(models.CodePermissionDenied, "You can only view your own accepted invitations.")
	}

	invitations, err := s.queryByIndex(ctx, models.InvitationTherapistIndex, "therapistId", callerID)
	if err != nil {
		return nil, err
	}
	used := filterUsed(invitations)
	sortByUsedDesc(used)
	return used, nil
}

// ListAcceptedForPatient returns the consumed invitations the caller
// redeemed, most recently redeemed first.
func (s *InvitationQueryService) ListAcceptedForPatient(ctx context.Context, callerID, requestedID string) ([]models.InvitationCode, error) {
	if callerID == "" {
		return nil, models.NewError(models.CodeUnauthenticated, "Sign in required.")
	}
	if requestedID != "" && requestedID != callerID {
		return nil, models.NewError(models.CodePermissionDenied, "You can only view your own invitations.")
	}

	invitations, err := s.queryByIndex(ctx, models.InvitationPatientIndex, "patientId", callerID)
	if err != nil {
		return nil, err
	}
	used := filterUsed(invitations)
	sortByUsedDesc(used)
	return used, nil
}

// PreviewByCode is the unauthenticated lookup. It returns sanitized data
// for a pending code and nil for anything else; unknown, used and expired
// codes are indistinguishable so probing cannot learn code state.
func (s *InvitationQueryService) PreviewByCode(ctx context.Context, code string) (*models.InvitationCode, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return nil, models.NewError(models.CodeInvalidArgument, "code must be a 5-digit string")
	}

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
		return nil, fmt.Errorf("failed to preview invitation code: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var invitation models.InvitationCode
	if err := attributevalue.UnmarshalMap(items[0], &invitation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitation: %w", err)
	}
	if !invitation.IsRedeemable(s.now()) {
		return nil, nil
	}

	sanitized := invitation.Sanitized()
	return &sanitized, nil
}

func (s *InvitationQueryService) queryByIndex(ctx context.Context, indexName, attribute, value string) ([]models.InvitationCode, error) {
	items, err := s.Dynamo.QueryItemsWithIndex(
		ctx,
		models.InvitationCodesTable,
		indexName,
		fmt.Sprintf("%s = :v", attribute),
		map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invitations: %w", err)
	}

	var invitations []models.InvitationCode
	if err := attributevalue.UnmarshalListOfMaps(items, &invitations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitations: %w", err)
	}
	return invitations, nil
}

func filterUsed(invitations []models.InvitationCode) []models.InvitationCode {
	used := make([]models.InvitationCode, 0, len(invitations))
	for _, inv := range invitations {
		if inv.IsUsed {
			used = append(used, inv)
		}
	}
	return used
}

// RFC 3339 UTC strings compare chronologically, so plain string comparison
// is enough for both sorts.
func sortByCreatedDesc(invitations []models.InvitationCode) {
	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt > invitations[j].CreatedAt
	})
}

func sortByUsedDesc(invitations []models.InvitationCode) {
	sort.Slice(invitations, func(i, j int) bool {
		if invitations[i].UsedAt != invitations[j].UsedAt {
			return invitations[i].UsedAt > invitations[j].UsedAt
		}
		return invitations[i].CreatedAt > invitations[j].CreatedAt
	})
}
