package dynamo

import (
	"context"
	"fmt"

	"give-stripe-extended/internal/settings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// SettingsStore keeps the plugin options in a single item.
type SettingsStore struct {
	store *Store
}

func NewSettingsStore(s *Store) *SettingsStore {
	return &SettingsStore{store: s}
}

func (ss *SettingsStore) Load(ctx context.Context) (settings.Settings, error) {
	item, err := ss.store.GetItem(ctx, SettingsKey, SettingsKey)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	var out settings.Settings
	if len(item) == 0 {
		return out, nil
	}
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return settings.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

func (ss *SettingsStore) Save(ctx context.Context, s settings.Settings) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	item["PK"] = S(SettingsKey)
	item["SK"] = S(SettingsKey)
	item["updatedAt"] = S(ss.store.timestamp())
	if err := ss.store.PutItem(ctx, item); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
