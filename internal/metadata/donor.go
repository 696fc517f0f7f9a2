package metadata

import (
	"sort"
	"strings"
)

// Stripe metadata limits.
const (
	maxMetaKeyLen   = 40
	maxMetaValueLen = 500
	maxExtraKeys    = 32
)

// Donation meta keys written by the donation form.
const (
	metaEmail        = "_give_payment_donor_email"
	metaFirstName    = "_give_donor_billing_first_name"
	metaLastName     = "_give_donor_billing_last_name"
	metaAddress1     = "give_address1"
	metaAddress2     = "give_address2"
	metaStreet       = "give_street"
	metaCity         = "give_city"
	metaZipcode      = "give_zipcode"
	metaPhone        = "give_phone"
	metaState        = "give_state"
	metaStateAlt     = "state"
	metaCountry      = "give_countries"
	metaEmailOptIn   = "give_receive_email"
	metaDonationType = "rp_give_donation_type"
	metaRecurring    = "rp_recurring"
	metaFormTitle    = "_give_payment_form_title"
	metaMarketCenter = "give_market_center"
	metaMarketNo     = "give_market_center_no"
	metaMarketRegion = "give_market_center_region"
	metaUTMSource    = "give_source"
	metaUTMMedium    = "give_medium"
	metaUTMCampaign  = "give_campaign"
	metaUTMTerm      = "give_term"
	metaUTMContent   = "give_content"
)

var knownMeta = map[string]struct{}{
	metaEmail: {}, metaFirstName: {}, metaLastName: {}, metaAddress1: {}, metaAddress2: {},
	metaStreet: {}, metaCity: {}, metaZipcode: {}, metaPhone: {}, metaState: {}, metaStateAlt: {},
	metaCountry: {}, metaEmailOptIn: {}, metaDonationType: {}, metaRecurring: {}, metaFormTitle: {},
	metaMarketCenter: {}, metaMarketNo: {}, metaMarketRegion: {}, metaUTMSource: {}, metaUTMMedium: {},
	metaUTMCampaign: {}, metaUTMTerm: {}, metaUTMContent: {},
}

type MarketCenter struct {
	Name   string
	Number string
	Region string
}

func (m MarketCenter) IsZero() bool {
	return m.Name == "" && m.Number == "" && m.Region == ""
}

type UTM struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

func (u UTM) IsZero() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Term == "" && u.Content == ""
}

type Donor struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      string
	City         string
	State        string
	Zipcode      string
	Country      string
	EmailOptIn   string
	DonationType string
	Recurring    string
	Campaign     string
	Market       MarketCenter
	UTM          UTM

	// Extra holds the first value of every meta key not mapped above.
	Extra map[string]string
}

func first(meta map[string][]string, key string) string {
	if v := meta[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func DonorFromMeta(meta map[string][]string) Donor {
	d := Donor{
		FirstName:    first(meta, metaFirstName),
		LastName:     first(meta, metaLastName),
		Email:        first(meta, metaEmail),
		Phone:        first(meta, metaPhone),
		City:         first(meta, metaCity),
		Zipcode:      first(meta, metaZipcode),
		Country:      first(meta, metaCountry),
		EmailOptIn:   first(meta, metaEmailOptIn),
		DonationType: first(meta, metaDonationType),
		Recurring:    first(meta, metaRecurring),
		Campaign:     first(meta, metaFormTitle),
		Market: MarketCenter{
			Name:   first(meta, metaMarketCenter),
			Number: first(meta, metaMarketNo),
			Region: first(meta, metaMarketRegion),
		},
		UTM: UTM{
			Source:   first(meta, metaUTMSource),
			Medium:   first(meta, metaUTMMedium),
			Campaign: first(meta, metaUTMCampaign),
			Term:     first(meta, metaUTMTerm),
			Content:  first(meta, metaUTMContent),
		},
		Extra: map[string]string{},
	}

	addr1, addr2 := first(meta, metaAddress1), first(meta, metaAddress2)
	if addr1 != "" || addr2 != "" {
		d.Address = addr1 + " " + addr2
	} else {
		d.Address = first(meta, metaStreet)
	}

	// Some forms post the state as "state".
	d.State = first(meta, metaState)
	if d.State == "" {
		d.State = first(meta, metaStateAlt)
	}

	for k := range meta {
		if _, ok := knownMeta[k]; ok {
			continue
		}
		d.Extra[k] = first(meta, k)
	}
	return d
}

// MarketMetadata is empty when no market center value is set.
func (d Donor) MarketMetadata() map[string]string {
	if d.Market.IsZero() {
		return map[string]string{}
	}
	return map[string]string{
		"Market Center":        d.Market.Name,
		"Market Center Number": d.Market.Number,
		"Market Region":        d.Market.Region,
	}
}

// UTMMetadata is empty when no UTM value is set.
func (d Donor) UTMMetadata() map[string]string {
	if d.UTM.IsZero() {
		return map[string]string{}
	}
	return map[string]string{
		"UTM Source":   d.UTM.Source,
		"UTM Medium":   d.UTM.Medium,
		"UTM Campaign": d.UTM.Campaign,
		"UTM Term":     d.UTM.Term,
		"UTM Content":  d.UTM.Content,
	}
}

func (d Donor) DonorMetadata() map[string]string {
	return map[string]string{
		"First Name":    d.FirstName,
		"Last Name":     d.LastName,
		"Phone":         d.Phone,
		"Email":         d.Email,
		"Address":       d.Address,
		"Country":       d.Country,
		"State":         d.State,
		"City":          d.City,
		"Zipcode":       d.Zipcode,
		"Donation type": d.DonationType,
		"Email Opt in":  d.EmailOptIn,
		"Recurring":     d.Recurring,
		"Campaign":      d.Campaign,
	}
}

// ExtraMetadata holds the unmapped form fields that fit in Stripe metadata.
// Private keys (leading underscore) and over-long keys are dropped, values
// are cut to the Stripe limit.
func (d Donor) ExtraMetadata() map[string]string {
	keys := make([]string, 0, len(d.Extra))
	for k, v := range d.Extra {
		if k == "" || v == "" || strings.HasPrefix(k, "_") || len(k) > maxMetaKeyLen {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxExtraKeys {
		keys = keys[:maxExtraKeys]
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v := d.Extra[k]
		if len(v) > maxMetaValueLen {
			v = v[:maxMetaValueLen]
		}
		out[k] = v
	}
	return out
}

// Metadata is the extra, market, UTM and donor blocks merged. Named blocks
// win over extra fields with the same key.
func (d Donor) Metadata() map[string]string {
	out := d.ExtraMetadata()
	for k, v := range d.MarketMetadata() {
		out[k] = v
	}
	for k, v := range d.UTMMetadata() {
		out[k] = v
	}
	for k, v := range d.DonorMetadata() {
		out[k] = v
	}
	return out
}
