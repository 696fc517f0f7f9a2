package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

func (s *Store) RecordGatewayError(ctx context.Context, title, message string) error {
	id := uuid.NewString()
	item := map[string]types.AttributeValue{
		"PK":        S(GatewayErrorPK(id)),
		"SK":        S(GatewayErrorPK(id)),
		"errorId":   S(id),
		"title":     S(title),
		"message":   S(message),
		"createdAt": S(s.timestamp()),
	}
	if err := s.PutItem(ctx, item); err != nil {
		return fmt.Errorf("record gateway error: %w", err)
	}
	return nil
}
