package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"ebookstore/internal/catalog"
	"ebookstore/internal/entitlement"
	"ebookstore/internal/httpx"
	"ebookstore/internal/payment"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

type pendingFlow struct {
	flow     *Flow
	deviceID string
}

type Options struct {
	Currency   string
	MaxPending int
}

// Service binds purchase flows to devices and to the HTTP callback surface.
type Service struct {
	books     *catalog.Service
	slot      entitlement.Slot
	sessions  SessionRegistry
	publisher Publisher
	downloads Downloader
	currency  string
	flows     *lru.Cache[string, pendingFlow]
	logger    zerolog.Logger
}

func NewService(
	books *catalog.Service,
	slot entitlement.Slot,
	sessions SessionRegistry,
	publisher Publisher,
	downloads Downloader,
	opts Options,
	logger zerolog.Logger,
) (*Service, error) {
	if opts.Currency == "" {
		opts.Currency = catalog.Currency
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = 1024
	}
	flows, err := lru.New[string, pendingFlow](opts.MaxPending)
	if err != nil {
		return nil, fmt.Errorf("purchase flows: %w", err)
	}
	return &Service{
		books:     books,
		slot:      slot,
		sessions:  sessions,
		publisher: publisher,
		downloads: downloads,
		currency:  opts.Currency,
		flows:     flows,
		logger:    logger,
	}, nil
}

// Store is the entitlement store of one device.
func (s *Service) Store(deviceID string) *entitlement.Store {
	return entitlement.NewStore(s.slot, deviceID, s.logger)
}

// Begin starts a flow for bookID on deviceID and enters it.
func (s *Service) Begin(ctx context.Context, deviceID, bookID string) (*Flow, error) {
	book, ok := s.books.Lookup(ctx, bookID)
	if !ok {
		return nil, ErrNotFound
	}
	flow := NewFlow(book, s.Store(deviceID), s.sessions, s.currency, s.logger.With().Str("device_id", deviceID).Logger())
	if _, err := flow.Enter(ctx); err != nil {
		return nil, err
	}
	return flow, nil
}

// Checkout opens a payment session for the buyer. The flow is kept until its callback arrives.
func (s *Service) Checkout(ctx context.Context, deviceID, bookID, email string) (*Flow, payment.Launch, error) {
	flow, err := s.Begin(ctx, deviceID, bookID)
	if err != nil {
		return nil, payment.Launch{}, err
	}
	if flow.State() == StateAlreadyOwned {
		return flow, payment.Launch{}, ErrAlreadyOwned
	}

	launch, err := flow.Submit(ctx, email)
	if err != nil {
		return flow, payment.Launch{}, err
	}

	s.flows.Add(flow.Reference(), pendingFlow{flow: flow, deviceID: deviceID})
	return flow, launch, nil
}

// Complete delivers the widget callback for reference and settles its flow. A cancelled payment
// returns ErrUserCancelled together with the flow, which is ready for another attempt.
func (s *Service) Complete(ctx context.Context, deviceID, reference string, res payment.Result) (*Flow, Confirmation, error) {
	p, ok := s.flows.Peek(reference)
	if !ok || p.deviceID != deviceID {
		return nil, Confirmation{}, ErrNotFound
	}

	var err error
	switch res.Outcome {
	case payment.OutcomeSuccess:
		err = s.sessions.Succeed(reference, res.Reference)
	default:
		err = s.sessions.Cancel(reference)
	}
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			s.flows.Remove(reference)
			return nil, Confirmation{}, ErrNotFound
		}
		return nil, Confirmation{}, err
	}

	// the session is settled: recording it must not depend on the caller staying connected
	settled := context.WithoutCancel(ctx)
	conf, err := p.flow.Await(settled)
	s.flows.Remove(reference)
	if err != nil {
		return p.flow, Confirmation{}, err
	}

	s.publishReceipt(settled, p)
	return p.flow, conf, nil
}

func (s *Service) publishReceipt(ctx context.Context, p pendingFlow) {
	receipt, err := p.flow.Receipt()
	if err != nil {
		return
	}
	receipt.DeviceID = p.deviceID

	body, err := json.Marshal(receipt)
	if err != nil {
		s.logger.Error().Err(err).Msg("encoding receipt")
		return
	}
	if err := s.publisher.Publish(ctx, ReceiptIssuedKey, body); err != nil {
		s.logger.Warn().Err(err).Str("reference", receipt.Reference).Msg("publishing receipt")
		return
	}
	s.logger.Info().Str("reference", receipt.Reference).Msg("receipt issued")
}

// ConfirmationView is what the confirmation page shows.
type ConfirmationView struct {
	Reference     string             `json:"reference"`
	Book          catalog.Book       `json:"book"`
	Purchase      entitlement.Record `json:"purchase"`
	DownloadPath  string             `json:"download_path"`
	ReceiptNotice string             `json:"receipt_notice"`
}

const receiptNotice = "A receipt has been sent to your email address"

// Confirm re-reads the device's record for bookID. The reference is echoed, not checked against
// the stored record.
func (s *Service) Confirm(ctx context.Context, deviceID, reference, bookID string) (ConfirmationView, error) {
	if reference == "" || bookID == "" {
		return ConfirmationView{}, ErrNotFound
	}
	book, ok := s.books.Lookup(ctx, bookID)
	if !ok {
		return ConfirmationView{}, ErrNotFound
	}
	rec, ok := s.Store(deviceID).FindByBookID(ctx, bookID)
	if !ok {
		return ConfirmationView{}, ErrNotFound
	}
	return ConfirmationView{
		Reference:     reference,
		Book:          book,
		Purchase:      rec,
		DownloadPath:  DownloadPath(bookID),
		ReceiptNotice: receiptNotice,
	}, nil
}

// Download returns where the device's copy of bookID can be fetched.
func (s *Service) Download(ctx context.Context, deviceID, bookID string) (string, error) {
	book, ok := s.books.Lookup(ctx, bookID)
	if !ok {
		return "", ErrNotFound
	}
	if !s.Store(deviceID).HasEntitlement(ctx, bookID) {
		return "", ErrNotFound
	}
	return s.downloads.DownloadURL(ctx, book.FileURL)
}

// Ownership reports the requesting device's purchase of bookID for the book detail view.
func (s *Service) Ownership(r *http.Request, bookID string) (catalog.Ownership, bool) {
	rec, ok := s.Store(httpx.DeviceIDFrom(r)).FindByBookID(r.Context(), bookID)
	if !ok {
		return catalog.Ownership{}, false
	}
	return catalog.Ownership{
		Reference:    rec.Reference,
		PurchaseDate: rec.PurchaseDate,
		DownloadPath: DownloadPath(bookID),
	}, true
}

var _ catalog.OwnershipChecker = (*Service)(nil)

func DownloadPath(bookID string) string {
	return "/v1/books/" + url.PathEscape(bookID) + "/download"
}

func SuccessPath(reference, bookID string) string {
	q := url.Values{}
	q.Set("reference", reference)
	q.Set("bookId", bookID)
	return "/v1/success?" + q.Encode()
}
