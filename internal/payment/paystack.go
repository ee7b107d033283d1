package payment

import (
	"context"
	"strings"
)

// PaystackInlineScript is loaded by the browser before calling PaystackPop.setup.
const PaystackInlineScript = "https://js.paystack.co/v1/inline.js"

// PaystackParams mirror the PaystackPop.setup options.
type PaystackParams struct {
	Key      string           `json:"key"`
	Email    string           `json:"email"`
	Amount   int64            `json:"amount"`
	Currency string           `json:"currency"`
	Ref      string           `json:"ref"`
	Metadata PaystackMetadata `json:"metadata"`
	Script   string           `json:"script"`
}

type PaystackMetadata struct {
	CustomFields []CustomField `json:"custom_fields"`
}

// PaystackWidget launches the Paystack inline popup. It needs only the public key.
type PaystackWidget struct {
	PublicKey string
}

func (w PaystackWidget) Name() string { return "paystack" }

func (w PaystackWidget) Prepare(ctx context.Context, d Descriptor) (Launch, error) {
	if strings.TrimSpace(w.PublicKey) == "" {
		return Launch{}, ErrMissingCredential
	}
	return Launch{
		Provider:  w.Name(),
		Reference: d.Reference,
		Params: PaystackParams{
			Key:      w.PublicKey,
			Email:    d.Email,
			Amount:   d.Amount,
			Currency: d.Currency,
			Ref:      d.Reference,
			Metadata: PaystackMetadata{CustomFields: d.Metadata},
			Script:   PaystackInlineScript,
		},
	}, nil
}
