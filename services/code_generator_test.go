package services

import (
	"context"
	"strconv"
	"testing"

	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeFormat(t *testing.T) {
	gen := &CodeGeneratorService{}
	for i := 0; i < 500; i++ {
		code, err := gen.GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{5}$`, code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 10000)
		assert.LessOrEqual(t, n, 99999)
	}
}

func TestEnsureUniqueCodeWithFreeSpace(t *testing.T) {
	fake := newFakeDynamo()
	gen := &CodeGeneratorService{Dynamo: &DynamoService{Client: fake}}

	code, err := gen.EnsureUniqueCode(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^\d{5}$`, code)
}

func TestEnsureUniqueCodeSkipsTakenCodes(t *testing.T) {
	fake := newFakeDynamo()
	gen := &CodeGeneratorService{Dynamo: &DynamoService{Client: fake}}

	taken := pendingInvitation("inv-1", "12345", "T1")
	item, err := attributevalue.MarshalMap(taken)
	require.NoError(t, err)
	fake.table(models.InvitationCodesTable)["inv-1"] = item

	for i := 0; i < 50; i++ {
		code, err := gen.EnsureUniqueCode(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, "12345", code)
	}
}

// collidingDynamo answers every code-existence query with a hit.
type collidingDynamo struct {
	*fakeDynamoClient
}

func (c *collidingDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	for _, item := range c.table(models.InvitationCodesTable) {
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func TestEnsureUniqueCodeExhaustion(t *testing.T) {
	fake := newFakeDynamo()
	// Every candidate collides: seed an item and answer all queries with it.
	inv := pendingInvitation("inv-1", "12345", "T1")
	item, err := attributevalue.MarshalMap(inv)
	require.NoError(t, err)
	fake.table(models.InvitationCodesTable)["inv-1"] = item

	gen := &CodeGeneratorService{Dynamo: &DynamoService{Client: &collidingDynamo{fake}}}

	_, err = gen.EnsureUniqueCode(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeResourceExhausted, models.AsAppError(err).Code)
}
