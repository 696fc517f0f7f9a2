package accounts

import (
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/settings"
)

// FilterAll adjusts the stored Stripe accounts for the request. Admin pages
// only see slugged accounts other than the connected one. Everywhere else the
// slugged accounts are pointed at the connected account and the connected
// account is appended as a manual account.
func FilterAll(req models.RequestContext, all *models.AccountSet, s settings.Settings) *models.AccountSet {
	out := all.Clone()
	if out.Len() == 0 {
		return out
	}
	connected := s.ConnectedAccountID

	if req.OnSettingsScreen() || (req.IsAdmin && !req.Ajax) {
		for _, key := range out.Keys() {
			if a, _ := out.Get(key); a.AccountSlug == "" {
				out.Delete(key)
			}
		}
		out.Delete(connected)
		return out
	}

	// Without a connected account there is nothing to rewrite to.
	if connected == "" {
		return out
	}

	out.Delete(connected)
	descriptor := ""
	for _, key := range out.Keys() {
		a, ok := out.Get(key)
		if !ok || a.AccountSlug == "" {
			continue
		}
		if a.AccountID != key {
			out.Delete(a.AccountID)
		}
		a.AccountID = connected
		a.LivePublishableKey = s.ConnectedPublishableKey
		a.TestPublishableKey = s.ConnectedPublishableKey
		descriptor = a.StatementDescriptor
		out.Set(key, a)
	}
	if descriptor == "" {
		descriptor = s.StatementDescriptorOrSite()
	}

	out.Set(connected, models.StripeAccount{
		Type:                models.AccountTypeManual,
		AccountID:           connected,
		AccountSlug:         connected,
		AccountName:         s.StatementDescriptorOrSite(),
		LiveSecretKey:       s.ConnectedSecretKey,
		TestSecretKey:       s.ConnectedSecretKey,
		LivePublishableKey:  s.ConnectedPublishableKey,
		TestPublishableKey:  s.ConnectedPublishableKey,
		StatementDescriptor: descriptor,
	})
	return out
}

// FilterDefault falls back to the first available account when value is not
// one of them. Admin pages outside ajax keep the stored value.
func FilterDefault(req models.RequestContext, value string, all *models.AccountSet) string {
	if req.IsAdmin && !req.Ajax {
		return value
	}
	if _, ok := all.Get(value); ok {
		return value
	}
	if first, ok := all.First(); ok {
		return first
	}
	return value
}
