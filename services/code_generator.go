package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxCodeAttempts bounds the generate-and-check loop so a store outage or a
// saturated code space cannot spin forever.
const maxCodeAttempts = 25

const (
	codeMin  = 10000
	codeSpan = 90000
)

// CodeGeneratorService produces unique 5-digit invitation codes.
type CodeGeneratorService struct {
	Dynamo *DynamoService
}

// GenerateCode draws a code uniformly from [10000, 99999].
func (s *CodeGeneratorService) GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to draw random code: %w", err)
	}
	return fmt.Sprintf("%05d", n.Int64()+codeMin), nil
}

// EnsureUniqueCode generates codes until one has no existing record, up to
// maxCodeAttempts. Uniqueness here is best-effort: two concurrent creators
// can pass the check with the same code before either writes. Redemption
// does not rely on it; consumption is a conditional write on the single
// document the code lookup returned.
func (s *CodeGeneratorService) EnsureUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.GenerateCode()
		if err != nil {
			return "", err
		}
		exists, err := s.codeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", models.NewError(models.CodeResourceExhausted,
		"could not find a free invitation code after %d attempts", maxCodeAttempts)
}

func (s *CodeGeneratorService) codeExists(ctx context.Context, code string) (bool, error) {
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
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return len(items) > 0, nil
}
