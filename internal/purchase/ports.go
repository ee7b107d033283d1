package purchase

import (
	"context"
	"time"

	"ebookstore/internal/payment"
)

//go:generate mockgen -destination=mock_ports.go -package=purchase ebookstore/internal/purchase Publisher,Downloader

// ReceiptIssuedKey is the routing key of the event published after each recorded purchase.
const ReceiptIssuedKey = "receipt.issued"

// Publisher delivers JSON events to whoever sends the buyer's receipt.
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte) error
}

// Downloader resolves a book's asset location to a link the buyer can follow.
type Downloader interface {
	DownloadURL(ctx context.Context, fileURL string) (string, error)
}

// SessionRegistry opens payment sessions and accepts their widget callbacks.
type SessionRegistry interface {
	Opener
	Succeed(reference, externalRef string) error
	Cancel(reference string) error
}

var _ SessionRegistry = (*payment.Sessions)(nil)

// Receipt is the payload of a receipt.issued event.
type Receipt struct {
	Reference    string    `json:"reference"`
	BookID       string    `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	Email        string    `json:"email"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	PurchaseDate time.Time `json:"purchase_date"`
	DeviceID     string    `json:"device_id"`
}
