package dynamo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI understands only the expressions this package issues.
type fakeAPI struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	putErr error
	txErr  error
	txs    [][]types.TransactWriteItem
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: map[string]map[string]types.AttributeValue{}}
}

func itemKey(item map[string]types.AttributeValue) string {
	return getStringAttr(item, "PK") + "|" + getStringAttr(item, "SK")
}

func (f *fakeAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	k := itemKey(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(PK)" {
		if _, ok := f.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := getStringAttr(in.ExpressionAttributeValues, ":pk")
	prefix := getStringAttr(in.ExpressionAttributeValues, ":prefix")
	var items []map[string]types.AttributeValue
	for _, item := range f.items {
		if getStringAttr(item, "PK") == pk && strings.HasPrefix(getStringAttr(item, "SK"), prefix) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return getStringAttr(items[i], "SK") < getStringAttr(items[j], "SK")
	})
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, in.TransactItems)
	if f.txErr != nil {
		return nil, f.txErr
	}
	for _, ti := range in.TransactItems {
		if ti.Update == nil {
			continue
		}
		current, ok := f.items[itemKey(ti.Update.Key)]
		old := getStringAttr(ti.Update.ExpressionAttributeValues, ":old")
		if !ok || getStringAttr(current, "status") != old {
			return nil, &types.TransactionCanceledException{
				CancellationReasons: []types.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}},
			}
		}
	}
	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[itemKey(ti.Put.Item)] = ti.Put.Item
		case ti.Update != nil:
			k := itemKey(ti.Update.Key)
			updated := map[string]types.AttributeValue{}
			for name, v := range f.items[k] {
				updated[name] = v
			}
			updated["status"] = ti.Update.ExpressionAttributeValues[":status"]
			updated["updatedAt"] = ti.Update.ExpressionAttributeValues[":updatedAt"]
			f.items[k] = updated
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
