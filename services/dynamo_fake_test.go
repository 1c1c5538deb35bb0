package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoClient is an in-memory DynamoDBAPI good enough for the
// expressions this server uses: single-attribute key conditions, the
// attribute_not_exists put guard, and the redemption/delete conditions.
// All operations run under one mutex so conditional writes are atomic,
// matching the store's single-document serializability.
type fakeDynamoClient struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	failQuery error
	failPut   error
}

func newFakeDynamo() *fakeDynamoClient {
	return &fakeDynamoClient{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func tableKeyAttr(table string) string {
	switch table {
	case models.AdminSettingsTable:
		return "settingId"
	case models.UserProfilesTable:
		return "userId"
	default:
		return "id"
	}
}

func (f *fakeDynamoClient) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = map[string]map[string]types.AttributeValue{}
	}
	return f.tables[name]
}

func attrString(item map[string]types.AttributeValue, name string) (string, bool) {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value, true
	}
	return "", false
}

func attrBool(item map[string]types.AttributeValue, name string) (bool, bool) {
	if v, ok := item[name].(*types.AttributeValueMemberBOOL); ok {
		return v.Value, true
	}
	return false, false
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// evalCondition supports the condition forms this server writes.
func evalCondition(expr string, item map[string]types.AttributeValue, values map[string]types.AttributeValue) bool {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_not_exists("):
			attr := strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")")
			if _, present := item[attr]; present {
				return false
			}
		case strings.Contains(clause, " > "):
			parts := strings.SplitN(clause, " > ", 2)
			got, ok := attrString(item, strings.TrimSpace(parts[0]))
			want, _ := attrString(values, strings.TrimSpace(parts[1]))
			if !ok || !(got > want) {
				return false
			}
		case strings.Contains(clause, " = "):
			parts := strings.SplitN(clause, " = ", 2)
			attr := strings.TrimSpace(parts[0])
			ref := strings.TrimSpace(parts[1])
			if wantB, ok := values[ref].(*types.AttributeValueMemberBOOL); ok {
				gotB, present := attrBool(item, attr)
				if !present || gotB != wantB.Value {
					return false
				}
				continue
			}
			got, ok := attrString(item, attr)
			want, _ := attrString(values, ref)
			if !ok || got != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut != nil {
		return nil, f.failPut
	}

	table := f.table(*params.TableName)
	keyAttr := tableKeyAttr(*params.TableName)
	id, ok := attrString(params.Item, keyAttr)
	if !ok {
		return nil, errors.New("fake: item missing key attribute " + keyAttr)
	}

	if params.ConditionExpression != nil {
		existing := table[id]
		if existing == nil {
			existing = map[string]types.AttributeValue{}
		}
		if !evalCondition(*params.ConditionExpression, existing, params.ExpressionAttributeValues) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	table[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keyAttr := tableKeyAttr(*params.TableName)
	id, _ := attrString(params.Key, keyAttr)
	item := f.table(*params.TableName)[id]
	if item == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeDynamoClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failQuery != nil {
		return nil, f.failQuery
	}

	// Key conditions here are always a single "attr = :ref" equality.
	parts := strings.SplitN(*params.KeyConditionExpression, " = ", 2)
	attr := strings.TrimSpace(parts[0])
	want, _ := attrString(params.ExpressionAttributeValues, strings.TrimSpace(parts[1]))

	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		if got, ok := attrString(item, attr); ok && got == want {
			items = append(items, copyItem(item))
			if params.Limit != nil && int32(len(items)) >= *params.Limit {
				break
			}
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(*params.TableName)
	keyAttr := tableKeyAttr(*params.TableName)
	id, _ := attrString(params.Key, keyAttr)
	item := table[id]
	if item == nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if params.ConditionExpression != nil &&
		!evalCondition(*params.ConditionExpression, item, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}

	updated := copyItem(item)
	assignments := strings.TrimPrefix(*params.UpdateExpression, "SET ")
	for _, assignment := range strings.Split(assignments, ",") {
		parts := strings.SplitN(assignment, "=", 2)
		attr := strings.TrimSpace(parts[0])
		ref := strings.TrimSpace(parts[1])
		updated[attr] = params.ExpressionAttributeValues[ref]
	}
	table[id] = updated

	return &dynamodb.UpdateItemOutput{Attributes: copyItem(updated)}, nil
}

func (f *fakeDynamoClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := f.table(*params.TableName)
	keyAttr := tableKeyAttr(*params.TableName)
	id, _ := attrString(params.Key, keyAttr)
	item := table[id]

	if params.ConditionExpression != nil {
		if item == nil ||
			!evalCondition(*params.ConditionExpression, item, params.ExpressionAttributeValues) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	delete(table, id)
	return &dynamodb.DeleteItemOutput{}, nil
}
