package dynamo

import (
	"context"
	"errors"
	"fmt"

	"give-stripe-extended/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("item not found")
	ErrStatusConflict = errors.New("donation status changed concurrently")
)

func (s *Store) GetDonation(ctx context.Context, id string) (models.Donation, error) {
	item, err := s.GetItem(ctx, DonationPK(id), DonationPK(id))
	if err != nil {
		return models.Donation{}, fmt.Errorf("get donation %s: %w", id, err)
	}
	if len(item) == 0 {
		return models.Donation{}, ErrNotFound
	}
	var d models.Donation
	if err := attributevalue.UnmarshalMap(item, &d); err != nil {
		return models.Donation{}, fmt.Errorf("decode donation %s: %w", id, err)
	}
	return d, nil
}

func (s *Store) PutDonation(ctx context.Context, d models.Donation) error {
	if d.CreatedAt == "" {
		d.CreatedAt = s.timestamp()
	}
	d.UpdatedAt = s.timestamp()
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("encode donation %s: %w", d.ID, err)
	}
	item["PK"] = S(DonationPK(d.ID))
	item["SK"] = S(DonationPK(d.ID))
	return s.PutItem(ctx, item)
}

// UpdateDonationStatus moves the donation from its current status to status
// and records the change as a note, returning the previous status.
func (s *Store) UpdateDonationStatus(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error) {
	current, err := s.GetDonation(ctx, id)
	if err != nil {
		return "", err
	}
	old := current.Status
	if old == status {
		return old, nil
	}

	now := s.timestamp()
	update := types.TransactWriteItem{
		Update: &types.Update{
			TableName:        aws.String(s.Table),
			Key:              Key(DonationPK(id), DonationPK(id)),
			UpdateExpression: aws.String("SET #status = :status, #updatedAt = :updatedAt"),
			ExpressionAttributeNames: map[string]string{
				"#status":    "status",
				"#updatedAt": "updatedAt",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status":    S(string(status)),
				":updatedAt": S(now),
				":old":       S(string(old)),
			},
			ConditionExpression: aws.String("attribute_exists(PK) AND #status = :old"),
		},
	}
	note := types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.Table),
			Item:      s.noteItem(id, fmt.Sprintf("Status changed from %s to %s.", old, status), now),
		},
	}

	if err := s.TransactWrite(ctx, []types.TransactWriteItem{update, note}); err != nil {
		if isConditionalCheckFailed(err) {
			return "", ErrStatusConflict
		}
		return "", fmt.Errorf("update donation %s status: %w", id, err)
	}
	return old, nil
}

func (s *Store) TransactionID(ctx context.Context, donationID string) (string, error) {
	d, err := s.GetDonation(ctx, donationID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.TransactionID, nil
}

func (s *Store) FormID(ctx context.Context, donationID string) (string, error) {
	d, err := s.GetDonation(ctx, donationID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.FormID, nil
}

func (s *Store) Meta(ctx context.Context, donationID string) (map[string][]string, error) {
	d, err := s.GetDonation(ctx, donationID)
	if errors.Is(err, ErrNotFound) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if d.Meta == nil {
		return map[string][]string{}, nil
	}
	return d.Meta, nil
}

// FormTitle is empty for unknown forms.
func (s *Store) FormTitle(ctx context.Context, formID string) (string, error) {
	if formID == "" {
		return "", nil
	}
	item, err := s.GetItem(ctx, FormPK(formID), FormPK(formID))
	if err != nil {
		return "", fmt.Errorf("get form %s: %w", formID, err)
	}
	return getStringAttr(item, "title"), nil
}

func (s *Store) noteItem(donationID, content, createdAt string) map[string]types.AttributeValue {
	id := uuid.NewString()
	return map[string]types.AttributeValue{
		"PK":         S(DonationPK(donationID)),
		"SK":         S(NoteSK(createdAt, id)),
		"noteId":     S(id),
		"donationId": S(donationID),
		"content":    S(content),
		"createdAt":  S(createdAt),
	}
}

func (s *Store) AddNote(ctx context.Context, donationID, content string) error {
	if err := s.PutItem(ctx, s.noteItem(donationID, content, s.timestamp())); err != nil {
		return fmt.Errorf("add note to donation %s: %w", donationID, err)
	}
	return nil
}

// Notes are returned oldest first.
func (s *Store) Notes(ctx context.Context, donationID string) ([]models.Note, error) {
	var (
		notes []models.Note
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.Query(ctx, &dynamodb.QueryInput{
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     S(DonationPK(donationID)),
				":prefix": S(PrefixNote),
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("query notes for donation %s: %w", donationID, err)
		}
		var page []models.Note
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("decode notes for donation %s: %w", donationID, err)
		}
		notes = append(notes, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return notes, nil
		}
		start = out.LastEvaluatedKey
	}
}

func isConditionalCheckFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return true
	}
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
