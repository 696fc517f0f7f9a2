package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"give-stripe-extended/internal/dynamo"
	"give-stripe-extended/internal/models"
	"give-stripe-extended/internal/refund"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v78"
)

type mockDonations struct {
	UpdateDonationStatusFunc func(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error)
	GetDonationFunc          func(ctx context.Context, id string) (models.Donation, error)
	NotesFunc                func(ctx context.Context, donationID string) ([]models.Note, error)
}

func (m *mockDonations) UpdateDonationStatus(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error) {
	return m.UpdateDonationStatusFunc(ctx, id, status)
}

func (m *mockDonations) GetDonation(ctx context.Context, id string) (models.Donation, error) {
	return m.GetDonationFunc(ctx, id)
}

func (m *mockDonations) Notes(ctx context.Context, donationID string) ([]models.Note, error) {
	return m.NotesFunc(ctx, donationID)
}

type statusCall struct {
	req       models.RequestContext
	id        string
	newStatus models.DonationStatus
	oldStatus models.DonationStatus
}

type mockListener struct {
	err   error
	calls []statusCall
}

func (m *mockListener) OnStatusChanged(ctx context.Context, req models.RequestContext, donationID string, newStatus, oldStatus models.DonationStatus) error {
	m.calls = append(m.calls, statusCall{req: req, id: donationID, newStatus: newStatus, oldStatus: oldStatus})
	return m.err
}

func newTestRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/donations/{id}/status", h.UpdateStatus).Methods(http.MethodPost)
	r.HandleFunc("/donations/{id}/notes", h.Notes).Methods(http.MethodGet)
	r.HandleFunc("/donations/{id}/stripe-metadata", h.StripeMetadata).Methods(http.MethodGet)
	r.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	r.HandleFunc("/settings", h.PutSettings).Methods(http.MethodPut)
	r.HandleFunc("/settings/fields", h.SettingsFields).Methods(http.MethodGet)
	r.HandleFunc("/stripe/accounts", h.Accounts).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health(r)).Methods(http.MethodGet)
	return r
}

func publishDonations(old models.DonationStatus) *mockDonations {
	return &mockDonations{
		UpdateDonationStatusFunc: func(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error) {
			return old, nil
		},
	}
}

func postStatus(t *testing.T, r http.Handler, id string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/donations/"+id+"/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestUpdateStatusNotifiesListeners(t *testing.T) {
	l := &mockListener{}
	h := NewHandler(publishDonations(models.DonationStatusPublish), settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

	form := url.Values{"status": {"refunded"}, models.FieldOptRefund: {"1"}}
	rec := postStatus(t, newTestRouter(h), "42", form, map[string]string{headerScreen: "edit-donation", headerRequestedBy: "XMLHttpRequest"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(l.calls) != 1 {
		t.Fatalf("expected 1 listener call, got %d", len(l.calls))
	}
	call := l.calls[0]
	if call.id != "42" || call.newStatus != models.DonationStatusRefunded || call.oldStatus != models.DonationStatusPublish {
		t.Errorf("unexpected call: %+v", call)
	}
	if !call.req.IsAdmin || !call.req.Ajax || call.req.Screen != "edit-donation" {
		t.Errorf("unexpected request context: %+v", call.req)
	}
	if call.req.FormValue(models.FieldOptRefund) != "1" {
		t.Errorf("opt-in flag not forwarded")
	}
}

func TestUpdateStatusHalt(t *testing.T) {
	l := &mockListener{err: &refund.HaltError{Message: "No such charge", Title: "Error", Status: http.StatusBadRequest}}
	h := NewHandler(publishDonations(models.DonationStatusPublish), settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

	rec := postStatus(t, newTestRouter(h), "42", url.Values{"status": {"refunded"}}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "No such charge" {
		t.Errorf("error = %v", got)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   int
	}{
		{"invalid status", "complete", nil, http.StatusBadRequest},
		{"not found", "refunded", dynamo.ErrNotFound, http.StatusNotFound},
		{"conflict", "refunded", dynamo.ErrStatusConflict, http.StatusConflict},
		{"store failure", "refunded", errors.New("throttled"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &mockListener{}
			d := &mockDonations{
				UpdateDonationStatusFunc: func(ctx context.Context, id string, status models.DonationStatus) (models.DonationStatus, error) {
					return "", tt.err
				},
			}
			h := NewHandler(d, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

			rec := postStatus(t, newTestRouter(h), "42", url.Values{"status": {tt.status}}, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if len(l.calls) != 0 {
				t.Errorf("listeners must not run, got %d calls", len(l.calls))
			}
		})
	}
}

func TestUpdateStatusUnchangedSkipsListeners(t *testing.T) {
	l := &mockListener{}
	h := NewHandler(publishDonations(models.DonationStatusRefunded), settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

	rec := postStatus(t, newTestRouter(h), "42", url.Values{"status": {"refunded"}}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(l.calls) != 0 {
		t.Errorf("expected no listener calls, got %d", len(l.calls))
	}
}

func TestNotes(t *testing.T) {
	d := &mockDonations{
		GetDonationFunc: func(ctx context.Context, id string) (models.Donation, error) {
			if id != "42" {
				return models.Donation{}, dynamo.ErrNotFound
			}
			return models.Donation{ID: id}, nil
		},
		NotesFunc: func(ctx context.Context, donationID string) ([]models.Note, error) {
			return []models.Note{{ID: "n1", Content: "Stripe Charge ID: ch_1"}}, nil
		},
	}
	h := NewHandler(d, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/42/notes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	notes, _ := decodeBody(t, rec)["notes"].([]interface{})
	if len(notes) != 1 {
		t.Errorf("expected 1 note, got %v", notes)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/7/notes", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := settings.NewStatic(settings.Settings{ConnectedAccountID: "acct_1", ConnectedSecretKey: "sk_test_secret"})
	h := NewHandler(&mockDonations{}, store, utils.NewLoggerTo(&bytes.Buffer{}))
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sk_test_secret") {
		t.Fatal("secret key leaked")
	}

	body := `{"connected_account_id":"acct_2","application_fee":"3","stripe_metadata_application_name":"App"}`
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	saved, _ := store.Load(context.Background())
	if saved.ConnectedAccountID != "acct_2" || saved.ConnectedSecretKey != "sk_test_secret" {
		t.Errorf("unexpected saved settings: %+v", saved)
	}
}

func TestPutSettingsValidation(t *testing.T) {
	h := NewHandler(&mockDonations{}, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))
	r := newTestRouter(h)

	for _, body := range []string{`{"application_fee":"250"}`, `{"connected_account_id":"cus_1"}`, `not json`} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSettingsFields(t *testing.T) {
	h := NewHandler(&mockDonations{}, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings/fields", nil))
	var out struct {
		Groups []settings.Group            `json:"groups"`
		Fields map[string][]settings.Field `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(out.Groups) != 3 || out.Groups[1].ID != settings.GroupMetadata || out.Groups[2].ID != settings.GroupConnected {
		t.Errorf("unexpected groups: %+v", out.Groups)
	}
	if len(out.Fields[settings.GroupConnected]) != 6 {
		t.Errorf("unexpected connected fields: %+v", out.Fields[settings.GroupConnected])
	}
}

func TestAccountsFrontEnd(t *testing.T) {
	s := settings.Settings{
		ConnectedAccountID:      "acct_conn",
		ConnectedPublishableKey: "pk_conn",
		ConnectedSecretKey:      "sk_conn",
		StatementDescriptor:     "GIVE",
		DefaultAccount:          "gone",
		Accounts: []models.StripeAccount{
			{AccountID: "acct_old", AccountSlug: "main", LiveSecretKey: "sk_live_old"},
		},
	}
	h := NewHandler(&mockDonations{}, settings.NewStatic(s), utils.NewLoggerTo(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stripe/accounts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sk_") {
		t.Fatalf("secret keys leaked: %s", rec.Body.String())
	}
	var out struct {
		Accounts       []models.StripeAccount `json:"accounts"`
		DefaultAccount string                 `json:"default_account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(out.Accounts) != 2 || out.Accounts[0].AccountID != "acct_conn" || out.Accounts[1].Type != models.AccountTypeManual {
		t.Errorf("unexpected accounts: %+v", out.Accounts)
	}
	if out.DefaultAccount != "main" {
		t.Errorf("default account = %q, want main", out.DefaultAccount)
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&mockDonations{}, settings.NewStatic(settings.Settings{ConnectedAccountID: "acct_1"}), utils.NewLoggerTo(&bytes.Buffer{}), &mockListener{})

	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	body := decodeBody(t, rec)
	if body["message"] != "online" || body["settings"] != "ok" || body["connectedAccount"] != true {
		t.Errorf("unexpected health body: %v", body)
	}
	if body["routeCount"].(float64) != 8 {
		t.Errorf("routeCount = %v, want 8", body["routeCount"])
	}
}

func TestHandleEventBridge(t *testing.T) {
	l := &mockListener{}
	h := NewHandler(&mockDonations{}, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

	detail := `{"donationId":"42","newStatus":"refunded","oldStatus":"publish","form":{"give_stripe_opt_refund":"on"},"admin":true}`
	out, err := h.HandleEventBridge(context.Background(), events.EventBridgeEvent{
		ID:         "ev_1",
		DetailType: DetailTypeStatusChanged,
		Detail:     json.RawMessage(detail),
	})
	if err != nil || out["status"] != "ok" {
		t.Fatalf("unexpected result %v, %v", out, err)
	}
	if len(l.calls) != 1 || !l.calls[0].req.IsAdmin || l.calls[0].req.FormValue(models.FieldOptRefund) != "on" {
		t.Errorf("unexpected listener calls: %+v", l.calls)
	}
}

func TestHandleEventBridgeIgnoredAndHalted(t *testing.T) {
	l := &mockListener{err: &refund.HaltError{Message: "boom", Status: http.StatusBadRequest}}
	h := NewHandler(&mockDonations{}, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}), l)

	out, _ := h.HandleEventBridge(context.Background(), events.EventBridgeEvent{DetailType: "other", Detail: json.RawMessage(`{}`)})
	if out["status"] != "ignored" {
		t.Errorf("status = %v, want ignored", out["status"])
	}

	out, _ = h.HandleEventBridge(context.Background(), events.EventBridgeEvent{DetailType: DetailTypeStatusChanged, Detail: json.RawMessage(`{"donationId":"42"}`)})
	if out["status"] != "invalid" {
		t.Errorf("status = %v, want invalid", out["status"])
	}

	out, err := h.HandleEventBridge(context.Background(), events.EventBridgeEvent{
		DetailType: DetailTypeStatusChanged,
		Detail:     json.RawMessage(`{"donationId":"42","newStatus":"refunded","oldStatus":"publish"}`),
	})
	if err != nil || out["status"] != "halted" || out["error"] != "boom" {
		t.Errorf("unexpected result %v, %v", out, err)
	}
}

type mockEnricher struct {
	err error
}

func (m *mockEnricher) enrich(kind string, amount int64, meta map[string]string) (*int64, *string, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return stripe.Int64(amount / 10), stripe.String(kind + ": Donation ID #" + meta["Donation Post ID"]), nil
}

func (m *mockEnricher) ChargeParams(ctx context.Context, p *stripe.ChargeParams) error {
	fee, desc, err := m.enrich("charge", stripe.Int64Value(p.Amount), p.Metadata)
	p.ApplicationFeeAmount, p.Description = fee, desc
	return err
}

func (m *mockEnricher) SEPAChargeParams(ctx context.Context, p *stripe.ChargeParams) error {
	fee, desc, err := m.enrich("sepa", stripe.Int64Value(p.Amount), p.Metadata)
	p.ApplicationFeeAmount, p.Description = fee, desc
	return err
}

func (m *mockEnricher) PaymentIntentParams(ctx context.Context, p *stripe.PaymentIntentParams) error {
	fee, desc, err := m.enrich("intent", stripe.Int64Value(p.Amount), p.Metadata)
	p.ApplicationFeeAmount, p.Description = fee, desc
	return err
}

func (m *mockEnricher) CheckoutSessionParams(ctx context.Context, p *stripe.CheckoutSessionParams) error {
	amount := stripe.Int64Value(p.LineItems[0].PriceData.UnitAmount) * stripe.Int64Value(p.LineItems[0].Quantity)
	fee, desc, err := m.enrich("checkout", amount, p.PaymentIntentData.Metadata)
	p.PaymentIntentData.ApplicationFeeAmount, p.PaymentIntentData.Description = fee, desc
	p.Metadata["Email"] = "ada@example.com"
	return err
}

func (m *mockEnricher) CustomerParams(p *stripe.CustomerParams) {
	p.Description = p.Name
}

func TestStripeMetadata(t *testing.T) {
	d := &mockDonations{
		GetDonationFunc: func(ctx context.Context, id string) (models.Donation, error) {
			return models.Donation{ID: id, Amount: 5000, Currency: "USD"}, nil
		},
	}
	h := NewHandler(d, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/42/stripe-metadata", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501 without enricher", rec.Code)
	}

	h.Enricher = &mockEnricher{}
	tests := []struct {
		query string
		kind  string
		desc  string
	}{
		{"", "payment_intent", "intent: Donation ID #42"},
		{"?type=payment_intent", "payment_intent", "intent: Donation ID #42"},
		{"?type=charge", "charge", "charge: Donation ID #42"},
		{"?type=sepa", "sepa", "sepa: Donation ID #42"},
		{"?type=checkout", "checkout", "checkout: Donation ID #42"},
	}
	for _, tt := range tests {
		t.Run(tt.kind+tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/42/stripe-metadata"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body["type"] != tt.kind || body["application_fee_amount"].(float64) != 500 || body["description"] != tt.desc {
				t.Errorf("unexpected body: %v", body)
			}
			if tt.kind == "checkout" {
				session, _ := body["session_metadata"].(map[string]interface{})
				if session["Email"] != "ada@example.com" || session["Donation Post ID"] != "42" {
					t.Errorf("session metadata = %v", body["session_metadata"])
				}
			}
		})
	}
}

func TestStripeMetadataCustomer(t *testing.T) {
	d := &mockDonations{
		GetDonationFunc: func(ctx context.Context, id string) (models.Donation, error) {
			return models.Donation{ID: id, Meta: map[string][]string{
				"_give_donor_billing_first_name": {"Ada"},
				"_give_donor_billing_last_name":  {"Lovelace"},
			}}, nil
		},
	}
	h := NewHandler(d, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))
	h.Enricher = &mockEnricher{}
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/donations/42/stripe-metadata?type=customer", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["description"] != "Ada Lovelace" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestStripeMetadataErrors(t *testing.T) {
	d := &mockDonations{
		GetDonationFunc: func(ctx context.Context, id string) (models.Donation, error) {
			if id == "404" {
				return models.Donation{}, dynamo.ErrNotFound
			}
			return models.Donation{ID: id, Amount: 5000}, nil
		},
	}
	h := NewHandler(d, settings.NewStatic(settings.Settings{}), utils.NewLoggerTo(&bytes.Buffer{}))
	h.Enricher = &mockEnricher{}
	r := newTestRouter(h)

	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"unknown type", "/donations/42/stripe-metadata?type=refund", nil, http.StatusBadRequest},
		{"missing donation", "/donations/404/stripe-metadata", nil, http.StatusNotFound},
		{"enricher failure", "/donations/42/stripe-metadata?type=charge", errors.New("settings unavailable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.Enricher = &mockEnricher{err: tt.err}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
