package models

import (
	"encoding/json"
)

const AccountTypeManual = "manual"

type StripeAccount struct {
	Type                string `dynamodbav:"type,omitempty" json:"type,omitempty"`
	AccountID           string `dynamodbav:"account_id" json:"account_id"`
	AccountSlug         string `dynamodbav:"account_slug,omitempty" json:"account_slug,omitempty"`
	AccountName         string `dynamodbav:"account_name,omitempty" json:"account_name,omitempty"`
	AccountCountry      string `dynamodbav:"account_country,omitempty" json:"account_country"`
	AccountEmail        string `dynamodbav:"account_email,omitempty" json:"account_email"`
	LiveSecretKey       string `dynamodbav:"live_secret_key,omitempty" json:"live_secret_key,omitempty"`
	TestSecretKey       string `dynamodbav:"test_secret_key,omitempty" json:"test_secret_key,omitempty"`
	LivePublishableKey  string `dynamodbav:"live_publishable_key,omitempty" json:"live_publishable_key,omitempty"`
	TestPublishableKey  string `dynamodbav:"test_publishable_key,omitempty" json:"test_publishable_key,omitempty"`
	StatementDescriptor string `dynamodbav:"statement_descriptor,omitempty" json:"statement_descriptor,omitempty"`
}

// Key is the index an account is stored under: its slug, or its id for
// accounts registered without one.
func (a StripeAccount) Key() string {
	if a.AccountSlug != "" {
		return a.AccountSlug
	}
	return a.AccountID
}

// AccountSet keeps accounts in insertion order so "first account" is stable.
type AccountSet struct {
	keys  []string
	items map[string]StripeAccount
}

func NewAccountSet(list ...StripeAccount) *AccountSet {
	s := &AccountSet{items: map[string]StripeAccount{}}
	for _, a := range list {
		s.Set(a.Key(), a)
	}
	return s
}

func (s *AccountSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

func (s *AccountSet) Get(key string) (StripeAccount, bool) {
	if s == nil {
		return StripeAccount{}, false
	}
	a, ok := s.items[key]
	return a, ok
}

func (s *AccountSet) Set(key string, a StripeAccount) {
	if s.items == nil {
		s.items = map[string]StripeAccount{}
	}
	if _, ok := s.items[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.items[key] = a
}

func (s *AccountSet) Delete(key string) {
	if _, ok := s.items[key]; !ok {
		return
	}
	delete(s.items, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *AccountSet) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// List returns the accounts in order.
func (s *AccountSet) List() []StripeAccount {
	out := make([]StripeAccount, 0, s.Len())
	for _, k := range s.Keys() {
		out = append(out, s.items[k])
	}
	return out
}

func (s *AccountSet) First() (string, bool) {
	if s.Len() == 0 {
		return "", false
	}
	return s.keys[0], true
}

func (s *AccountSet) Clone() *AccountSet {
	out := &AccountSet{items: map[string]StripeAccount{}}
	if s == nil {
		return out
	}
	for _, k := range s.keys {
		out.Set(k, s.items[k])
	}
	return out
}

type accountEntry struct {
	Key     string        `json:"key"`
	Account StripeAccount `json:"account"`
}

func (s *AccountSet) MarshalJSON() ([]byte, error) {
	list := make([]accountEntry, 0, s.Len())
	for _, k := range s.Keys() {
		list = append(list, accountEntry{Key: k, Account: s.items[k]})
	}
	return json.Marshal(list)
}

func (s *AccountSet) UnmarshalJSON(data []byte) error {
	var list []accountEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = AccountSet{items: map[string]StripeAccount{}}
	for _, e := range list {
		s.Set(e.Key, e.Account)
	}
	return nil
}
