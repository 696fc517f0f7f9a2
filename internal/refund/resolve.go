package refund

import (
	"regexp"

	"give-stripe-extended/internal/models"
)

var chargeNote = regexp.MustCompile(`^Stripe Charge ID: (\S+)`)

// txnIDFromNotes returns the id recorded by the last matching note.
func txnIDFromNotes(notes []models.Note) string {
	id := ""
	for _, n := range notes {
		if m := chargeNote.FindStringSubmatch(n.Content); m != nil {
			id = m[1]
		}
	}
	return id
}
