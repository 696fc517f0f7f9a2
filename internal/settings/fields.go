package settings

const (
	GroupGeneral   = "general"
	GroupMetadata  = "metadata"
	GroupConnected = "connected"
)

type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Field struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type"`
	WrapperClass string `json:"wrapper_class,omitempty"`
	Default      string `json:"default"`
}

// RegisterGroups adds the metadata and connected account tabs right after general.
func RegisterGroups(groups []Group) []Group {
	out := make([]Group, 0, len(groups)+2)
	for _, g := range groups {
		out = append(out, g)
		if g.ID == GroupGeneral {
			out = append(out,
				Group{ID: GroupMetadata, Name: "Stripe Metadata"},
				Group{ID: GroupConnected, Name: "Connected Account Settings"},
			)
		}
	}
	return out
}

func AfterGeneralFields(fields map[string][]Field) map[string][]Field {
	if fields == nil {
		fields = map[string][]Field{}
	}

	fields[GroupMetadata] = append(fields[GroupMetadata],
		Field{ID: "give_title_stripe_metadata", Type: "title"},
		Field{ID: KeyMetadataApplicationName, Name: "Application Name", Type: "text", WrapperClass: "stripe-metadata-field"},
		Field{ID: KeyMetadataCampaignName, Name: "Campaign Name", Type: "text", WrapperClass: "stripe-metadata-field"},
		Field{ID: "give_title_stripe_metadata", Type: "sectionend"},
	)

	fields[GroupConnected] = append(fields[GroupConnected],
		Field{ID: "give_title_stripe_connected", Type: "title"},
		Field{ID: KeyConnectedAccountID, Name: "Connected account id", Type: "text", WrapperClass: "stripe-connected-field"},
		Field{ID: KeyConnectedPublishableKey, Name: "Connected account publishable key", Type: "text", WrapperClass: "stripe-connected-field"},
		Field{ID: KeyConnectedSecretKey, Name: "Connected account stripe secret key", Type: "password", WrapperClass: "stripe-connected-field"},
		Field{ID: KeyApplicationFee, Name: "Application fee for Connected account (in %)", Type: "text", WrapperClass: "stripe-connected-field"},
		Field{ID: "give_title_stripe_connected", Type: "sectionend"},
	)

	return fields
}
