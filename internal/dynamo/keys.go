package dynamo

const (
	PrefixDonation     = "DONATION#"
	PrefixNote         = "NOTE#"
	PrefixForm         = "FORM#"
	PrefixGatewayError = "GATEWAYERR#"
	PrefixRefund       = "REFUND#"
	PrefixStatus       = "STATUS#"

	SettingsKey = "SETTINGS#give"
)

func DonationPK(id string) string {
	return PrefixDonation + id
}

func FormPK(id string) string {
	return PrefixForm + id
}

func NoteSK(createdAt, id string) string {
	return PrefixNote + createdAt + "#" + id
}

func GatewayErrorPK(id string) string {
	return PrefixGatewayError + id
}

func RefundPK(donationID string) string {
	return PrefixRefund + donationID
}

func StatusSK(status string) string {
	return PrefixStatus + status
}
