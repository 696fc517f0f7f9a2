package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/utils"

	"github.com/go-playground/validator/v10"
)

const (
	KeyConnectedAccountID      = "connected_account_id"
	KeyConnectedPublishableKey = "connected_publishable_key"
	KeyConnectedSecretKey      = "connected_secret_key"
	KeyApplicationFee          = "application_fee"
	KeyMetadataApplicationName = "stripe_metadata_application_name"
	KeyMetadataCampaignName    = "stripe_metadata_campaign_name"
	KeyStatementDescriptor     = "stripe_statement_descriptor"
)

type Settings struct {
	ConnectedAccountID      string                 `dynamodbav:"connected_account_id" json:"connected_account_id" validate:"omitempty,startswith=acct_"`
	ConnectedPublishableKey string                 `dynamodbav:"connected_publishable_key" json:"connected_publishable_key" validate:"omitempty,startswith=pk_"`
	ConnectedSecretKey      string                 `dynamodbav:"connected_secret_key" json:"connected_secret_key,omitempty" validate:"omitempty,startswith=sk_|startswith=rk_"`
	ApplicationFee          string                 `dynamodbav:"application_fee" json:"application_fee" validate:"omitempty,numeric"`
	ApplicationName         string                 `dynamodbav:"stripe_metadata_application_name" json:"stripe_metadata_application_name" validate:"max=255"`
	CampaignName            string                 `dynamodbav:"stripe_metadata_campaign_name" json:"stripe_metadata_campaign_name" validate:"max=255"`
	StatementDescriptor     string                 `dynamodbav:"stripe_statement_descriptor" json:"stripe_statement_descriptor" validate:"max=22"`
	SiteName                string                 `dynamodbav:"site_name" json:"site_name"`
	Accounts                []models.StripeAccount `dynamodbav:"_give_stripe_get_all_accounts" json:"_give_stripe_get_all_accounts"`
	DefaultAccount          string                 `dynamodbav:"_give_stripe_default_account" json:"_give_stripe_default_account"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

func (s Settings) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(fields, ", "))
		}
		return err
	}
	pct, err := utils.ParsePercent(s.ApplicationFee)
	if err != nil {
		return fmt.Errorf("invalid settings: %s: %w", KeyApplicationFee, err)
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("invalid settings: %s must be between 0 and 100", KeyApplicationFee)
	}
	return nil
}

// FeePercent is zero when the fee is unset or unparsable.
func (s Settings) FeePercent() float64 {
	pct, err := utils.ParsePercent(s.ApplicationFee)
	if err != nil {
		return 0
	}
	return pct
}

func (s Settings) ApplicationFeeAmount(amount int64) int64 {
	return utils.PercentOf(amount, s.FeePercent())
}

// StatementDescriptorOrSite falls back to the site name like the platform's option default.
func (s Settings) StatementDescriptorOrSite() string {
	if s.StatementDescriptor != "" {
		return s.StatementDescriptor
	}
	return s.SiteName
}

func (s Settings) AccountSet() *models.AccountSet {
	return models.NewAccountSet(s.Accounts...)
}

func (s Settings) Redacted() Settings {
	out := s
	out.ConnectedSecretKey = ""
	out.Accounts = make([]models.StripeAccount, len(s.Accounts))
	for i, a := range s.Accounts {
		a.LiveSecretKey = ""
		a.TestSecretKey = ""
		out.Accounts[i] = a
	}
	return out
}

type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Static is an in-memory Store.
type Static struct {
	mu sync.RWMutex
	s  Settings
}

func NewStatic(s Settings) *Static {
	return &Static{s: s}
}

func (st *Static) Load(ctx context.Context) (Settings, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s, nil
}

func (st *Static) Save(ctx context.Context, s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = s
	return nil
}
