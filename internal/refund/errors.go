package refund

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	gatewayErrorTitle  = "Stripe Error"
	gatewayErrorPrefix = "The Stripe payment gateway returned an error while refunding a donation."
	fallbackMessage    = "Something went wrong while refunding the charge in Stripe."
	haltTitle          = "Error"
)

// HaltError aborts the host request that triggered the refund.
type HaltError struct {
	Message string
	Title   string
	Status  int
	Err     error
}

func (e *HaltError) Error() string {
	return e.Message
}

func (e *HaltError) Unwrap() error {
	return e.Err
}

func halt(err error) *HaltError {
	return &HaltError{
		Message: messageFrom(err),
		Title:   haltTitle,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// jsonBodyError is implemented by host collaborators that keep the raw error
// response of an HTTP call, e.g. a Gateway or Donations adapter backed by a
// REST API. *stripe.Error is handled before halting and never reaches
// messageFrom; DynamoDB and network failures carry no body and get the
// fallback message.
type jsonBodyError interface {
	JSONBody() []byte
}

// messageFrom reads error.message from an error carrying a JSON body,
// looking through wrapped errors.
func messageFrom(err error) string {
	var bodied jsonBodyError
	if errors.As(err, &bodied) {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(bodied.JSONBody(), &body) == nil && body.Error.Message != "" {
			return body.Error.Message
		}
	}
	return fallbackMessage
}

func gatewayErrorMessage(msg, code string) string {
	return fmt.Sprintf("%s\n\nMessage: %s\n\nCode: %s", gatewayErrorPrefix, msg, code)
}
