package dynamo

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

func S(value string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: value}
}

func N(value string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: value}
}

func B(value bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: value}
}

func Key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": S(pk),
		"SK": S(sk),
	}
}

func getStringAttr(item map[string]types.AttributeValue, key string) string {
	if val, ok := item[key]; ok {
		if s, ok := val.(*types.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}
