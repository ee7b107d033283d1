package payment

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

const (
	snapScriptSandbox    = "https://app.sandbox.midtrans.com/snap/snap.js"
	snapScriptProduction = "https://app.midtrans.com/snap/snap.js"
	maxItemNameLength    = 50
)

type snapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// MidtransParams carry what snap.js needs to open the payment popup.
type MidtransParams struct {
	ClientKey   string `json:"client_key"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	Script      string `json:"script"`
}

// MidtransWidget opens Snap transactions. The server key never leaves the process.
type MidtransWidget struct {
	serverKey string
	clientKey string
	script    string
	snap      snapCreator
}

func NewMidtransWidget(serverKey, clientKey string, production bool) *MidtransWidget {
	var client snap.Client
	script := snapScriptSandbox
	if production {
		client.New(serverKey, midtrans.Production)
		script = snapScriptProduction
	} else {
		client.New(serverKey, midtrans.Sandbox)
	}
	return &MidtransWidget{
		serverKey: serverKey,
		clientKey: clientKey,
		script:    script,
		snap:      &client,
	}
}

func (w *MidtransWidget) Name() string { return "midtrans" }

func (w *MidtransWidget) Prepare(ctx context.Context, d Descriptor) (Launch, error) {
	if strings.TrimSpace(w.serverKey) == "" || strings.TrimSpace(w.clientKey) == "" {
		return Launch{}, ErrMissingCredential
	}

	// Snap charges whole currency units.
	gross := d.Amount / 100
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  d.Reference,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: d.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    d.BookID,
				Price: gross,
				Qty:   1,
				Name:  truncate(d.BookTitle, maxItemNameLength),
			},
		},
		CustomField1: d.BookID,
	}

	resp, merr := w.snap.CreateTransaction(req)
	if merr != nil {
		return Launch{}, fmt.Errorf("create snap transaction: %s", merr.Message)
	}

	return Launch{
		Provider:  w.Name(),
		Reference: d.Reference,
		Params: MidtransParams{
			ClientKey:   w.clientKey,
			Token:       resp.Token,
			RedirectURL: resp.RedirectURL,
			Script:      w.script,
		},
	}, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
