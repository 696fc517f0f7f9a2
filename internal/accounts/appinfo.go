package accounts

import (
	"context"
	"fmt"

	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/utils"
)

const appInfoErrorTitle = "Stripe Error"

type AccountBinder interface {
	SetAccount(accountID string) error
}

type ErrorLog interface {
	RecordGatewayError(ctx context.Context, title, message string) error
}

// ApplicationName binds the gateway client to the connected account as a
// side effect and returns name unchanged. The settings screen and the manual
// account flow keep the platform account.
func ApplicationName(ctx context.Context, req models.RequestContext, name string, s settings.Settings, binder AccountBinder, errs ErrorLog, log *utils.Logger) string {
	if req.OnSettingsScreen() {
		return name
	}
	if req.Action == models.ActionAddManualAccount || req.FormValue("action") == models.ActionAddManualAccount {
		return name
	}
	if s.ConnectedAccountID == "" {
		return name
	}

	if err := binder.SetAccount(s.ConnectedAccountID); err != nil {
		msg := fmt.Sprintf("Unable to set application information to Stripe. Details: %s", err.Error())
		if errs != nil {
			if rerr := errs.RecordGatewayError(ctx, appInfoErrorTitle, msg); rerr != nil {
				log.Error("gateway_error_record_failed", map[string]interface{}{"error": rerr.Error()})
			}
		}
		log.Warn("stripe_app_info_error", map[string]interface{}{"account": s.ConnectedAccountID, "error": err.Error()})
	}
	return name
}

type Gateway interface {
	AccountBinder
	AppName() string
	RegisterAppInfo(name string) error
}

// AppInfo registers the application name with the gateway client before a
// call made on behalf of a form.
type AppInfo struct {
	Settings settings.Store
	Gateway  Gateway
	Errors   ErrorLog
	Log      *utils.Logger
}

func (a *AppInfo) Apply(ctx context.Context, req models.RequestContext, formID string) error {
	s, err := a.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	name := ApplicationName(ctx, req, a.Gateway.AppName(), s, a.Gateway, a.Errors, a.Log)
	if err := a.Gateway.RegisterAppInfo(name); err != nil {
		return fmt.Errorf("register app info for form %s: %w", formID, err)
	}
	return nil
}
