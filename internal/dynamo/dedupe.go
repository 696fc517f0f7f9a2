package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ClaimRefund reports false when a refund for this donation and target
// status was already claimed.
func (s *Store) ClaimRefund(ctx context.Context, donationID, status string) (bool, error) {
	_, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.Table,
		Item: map[string]types.AttributeValue{
			"PK":         S(RefundPK(donationID)),
			"SK":         S(StatusSK(status)),
			"donationId": S(donationID),
			"status":     S(status),
			"createdAt":  S(s.timestamp()),
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim refund for donation %s: %w", donationID, err)
	}
	return true, nil
}
