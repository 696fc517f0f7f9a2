package models

import (
	"net/url"
	"strings"
)

type DonationStatus string

const (
	DonationStatusDraft       DonationStatus = "draft"
	DonationStatusPending     DonationStatus = "pending"
	DonationStatusProcessing  DonationStatus = "processing"
	DonationStatusPublish     DonationStatus = "publish"
	DonationStatusRefunded    DonationStatus = "refunded"
	DonationStatusFailed      DonationStatus = "failed"
	DonationStatusCancelled   DonationStatus = "cancelled"
	DonationStatusAbandoned   DonationStatus = "abandoned"
	DonationStatusRevoked     DonationStatus = "revoked"
	DonationStatusPreapproval DonationStatus = "preapproval"
)

var knownStatuses = map[DonationStatus]struct{}{
	DonationStatusDraft:       {},
	DonationStatusPending:     {},
	DonationStatusProcessing:  {},
	DonationStatusPublish:     {},
	DonationStatusRefunded:    {},
	DonationStatusFailed:      {},
	DonationStatusCancelled:   {},
	DonationStatusAbandoned:   {},
	DonationStatusRevoked:     {},
	DonationStatusPreapproval: {},
}

func (s DonationStatus) Valid() bool {
	_, ok := knownStatuses[s]
	return ok
}

type Donation struct {
	ID            string              `dynamodbav:"donationId" json:"id"`
	Status        DonationStatus      `dynamodbav:"status" json:"status"`
	TransactionID string              `dynamodbav:"transactionId,omitempty" json:"transactionId,omitempty"`
	FormID        string              `dynamodbav:"formId,omitempty" json:"formId,omitempty"`
	Amount        int64               `dynamodbav:"amount,omitempty" json:"amount,omitempty"`
	Currency      string              `dynamodbav:"currency,omitempty" json:"currency,omitempty"`
	Meta          map[string][]string `dynamodbav:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt     string              `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt     string              `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type Form struct {
	ID    string `dynamodbav:"formId" json:"id"`
	Title string `dynamodbav:"title" json:"title"`
}

type Note struct {
	ID         string `dynamodbav:"noteId" json:"id"`
	DonationID string `dynamodbav:"donationId" json:"donationId"`
	Content    string `dynamodbav:"content" json:"content"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
}

type GatewayError struct {
	ID        string `dynamodbav:"errorId" json:"id"`
	Title     string `dynamodbav:"title" json:"title"`
	Message   string `dynamodbav:"message" json:"message"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

const (
	ScreenGiveSettings     = "give_forms_page_give-settings"
	ActionAddManualAccount = "give_stripe_add_manual_account"
	FieldOptRefund         = "give_stripe_opt_refund"
)

// RequestContext is what the filters know about the inbound host request.
type RequestContext struct {
	IsAdmin bool
	Ajax    bool
	Screen  string
	Action  string
	Form    url.Values
}

func (r RequestContext) FormValue(key string) string {
	if r.Form == nil {
		return ""
	}
	return strings.TrimSpace(r.Form.Get(key))
}

func (r RequestContext) OnSettingsScreen() bool {
	return r.IsAdmin && r.Screen == ScreenGiveSettings
}

// Truthy mirrors how the platform reads checkbox style form fields.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
