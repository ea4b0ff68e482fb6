// internal/services/create_product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/mintcart/mintcart-backend/internal/models"
	"github.com/mintcart/mintcart-backend/internal/repository"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

// WorkflowState is the progress of one create-product submission.
type WorkflowState string

const (
	StateIdle                 WorkflowState = "idle"
	StatePublishingMetadata   WorkflowState = "publishing_metadata"
	StateSubmittingTx         WorkflowState = "submitting_tx"
	StateAwaitingConfirmation WorkflowState = "awaiting_confirmation"
	StatePersistingRecord     WorkflowState = "persisting_record"
	StateDone                 WorkflowState = "done"
	StateFailed               WorkflowState = "failed"
)

// MetadataPublisher stores product metadata in content-addressed storage and
// returns its content identifier.
type MetadataPublisher interface {
	Publish(ctx context.Context, doc ProductMetadata) (string, error)
}

// RecordWriter persists the denormalized product record.
type RecordWriter interface {
	CreateProduct(ctx context.Context, chainID int64, owner string, payload ProductRecordPayload) error
}

// Navigator receives the route to show once the product exists.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Transition is reported to the observer on every state change.
type Transition struct {
	ChainID int64
	Owner   string
	Slug    string
	From    WorkflowState
	To      WorkflowState
	TxHash  string
	Err     error
}

type CreateProductOptions struct {
	PublishTimeout time.Duration
	ConfirmTimeout time.Duration
	DashboardPath  string
	// Intents is optional; without a journal every submission starts fresh.
	Intents      repository.IntentRepository
	OnTransition func(Transition)
}

// CreateProductResult is returned when a submission reaches Done.
type CreateProductResult struct {
	Redirect        string
	TokenURI        string
	TxHash          string
	ContractAddress string
	Record          ProductRecordPayload
	Resumed         bool
}

type CreateProductService struct {
	publisher MetadataPublisher
	factories FactoryProvider
	records   RecordWriter
	opts      CreateProductOptions

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCreateProductService(publisher MetadataPublisher, factories FactoryProvider, records RecordWriter, opts CreateProductOptions) *CreateProductService {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 30 * time.Second
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 2 * time.Minute
	}
	if opts.DashboardPath == "" {
		opts.DashboardPath = "/dashboard"
	}
	return &CreateProductService{
		publisher: publisher,
		factories: factories,
		records:   records,
		opts:      opts,
		inflight:  make(map[string]struct{}),
	}
}

// submission carries the per-run state of one workflow execution.
type submission struct {
	session *WalletSession
	draft   ProductDraft
	intent  *models.CreationIntent
	state   WorkflowState
	log     *logrus.Entry

	priceWei *big.Int
	resumed  bool
}

// Submit runs the create-product workflow for the connected wallet:
// publish metadata, create the product on chain, wait for confirmation,
// persist the record, then navigate to the dashboard. Steps already
// completed by an earlier submission of the same slug are not repeated.
func (s *CreateProductService) Submit(ctx context.Context, session *WalletSession, draft ProductDraft, nav Navigator) (*CreateProductResult, error) {
	if !session.Connected() {
		return nil, ErrWalletNotConnected
	}

	sub := &submission{
		session: session,
		draft:   draft,
		state:   StateIdle,
		log: logrus.WithFields(logrus.Fields{
			"chain_id": session.ChainID,
			"owner":    session.Address,
			"slug":     draft.Slug,
		}),
	}

	if err := draft.Validate(); err != nil {
		return nil, s.fail(ctx, sub, KindInvalidDraft, err)
	}
	price, err := utils.ParseEther(draft.Price)
	if err != nil {
		return nil, s.fail(ctx, sub, KindInvalidAmount, err)
	}
	sub.priceWei = price

	// Checked up front so an unsupported chain leaves no metadata behind.
	if !s.factories.SupportsChain(session.ChainID) {
		return nil, s.fail(ctx, sub, KindSubmissionFailed,
			fmt.Errorf("%w: no factory configured for chain %d", ErrUnsupportedChain, session.ChainID))
	}

	key := intentKey(session.ChainID, utils.NormalizeAddress(session.Address), draft.Slug)
	if !s.acquire(key) {
		return nil, s.fail(ctx, sub, KindDuplicateProduct, errors.New("a submission for this slug is already in progress"))
	}
	defer s.release(key)

	if err := s.begin(ctx, sub); err != nil {
		return nil, err
	}

	return s.execute(ctx, sub, nav)
}

// Resume continues a journaled intent that already has a live transaction.
// It never publishes or submits; the reconciler uses it for intents whose
// submitter went away.
func (s *CreateProductService) Resume(ctx context.Context, intent *models.CreationIntent) (*CreateProductResult, error) {
	if intent.Status == models.IntentStatusPersisted {
		return nil, fmt.Errorf("intent %s is already persisted", intent.ID)
	}
	if !intent.HasLiveTx() {
		return nil, fmt.Errorf("intent %s has no live transaction", intent.ID)
	}

	draft, err := decodeDraft(intent.Draft)
	if err != nil {
		return nil, err
	}
	price, err := utils.ParseEther(draft.Price)
	if err != nil {
		return nil, err
	}

	key := intentKey(intent.ChainID, intent.OwnerAddress, intent.Slug)
	if !s.acquire(key) {
		return nil, fmt.Errorf("intent %s is being processed", intent.ID)
	}
	defer s.release(key)

	sub := &submission{
		session:  &WalletSession{ChainID: intent.ChainID, Address: intent.OwnerAddress},
		draft:    draft,
		intent:   intent,
		state:    StateIdle,
		priceWei: price,
		resumed:  true,
		log: logrus.WithFields(logrus.Fields{
			"chain_id": intent.ChainID,
			"owner":    intent.OwnerAddress,
			"slug":     intent.Slug,
			"resume":   true,
		}),
	}
	intent.Attempts++
	now := time.Now()
	intent.LastAttemptAt = &now

	return s.execute(ctx, sub, nil)
}

// Intents lists the journal for one owner.
func (s *CreateProductService) Intents(ctx context.Context, chainID int64, owner string) ([]models.CreationIntent, error) {
	if s.opts.Intents == nil {
		return []models.CreationIntent{}, nil
	}
	return s.opts.Intents.ListByOwner(ctx, chainID, utils.NormalizeAddress(owner))
}

// begin loads or creates the journal entry and decides where to resume.
func (s *CreateProductService) begin(ctx context.Context, sub *submission) error {
	now := time.Now()
	fresh := &models.CreationIntent{
		ChainID:       sub.session.ChainID,
		OwnerAddress:  utils.NormalizeAddress(sub.session.Address),
		Slug:          sub.draft.Slug,
		Status:        models.IntentStatusPending,
		Draft:         datatypes.JSON(sub.draft.encode()),
		Attempts:      1,
		LastAttemptAt: &now,
	}

	if s.opts.Intents == nil {
		sub.intent = fresh
		return nil
	}

	intent, created, err := s.opts.Intents.FindOrCreate(ctx, fresh)
	if err != nil {
		return s.fail(ctx, sub, KindInternal, fmt.Errorf("failed to open creation intent: %w", err))
	}
	sub.intent = intent
	if created {
		return nil
	}

	if intent.Status == models.IntentStatusPersisted {
		return s.fail(ctx, sub, KindDuplicateProduct, fmt.Errorf("product %q already exists", sub.draft.Slug))
	}

	intent.Attempts++
	intent.LastAttemptAt = &now

	stored, err := decodeDraft(intent.Draft)
	if err != nil || stored != sub.draft {
		if intent.HasLiveTx() {
			return s.fail(ctx, sub, KindDuplicateProduct,
				fmt.Errorf("product %q was already submitted with different details", sub.draft.Slug))
		}
		intent.Draft = datatypes.JSON(sub.draft.encode())
		intent.TokenURI = ""
	}
	sub.resumed = intent.TokenURI != ""
	sub.log.WithFields(logrus.Fields{
		"status":   intent.Status,
		"attempts": intent.Attempts,
	}).Info("Resuming create-product submission")
	return nil
}

func (s *CreateProductService) execute(ctx context.Context, sub *submission, nav Navigator) (*CreateProductResult, error) {
	intent := sub.intent

	if intent.TokenURI == "" {
		if err := s.publish(ctx, sub); err != nil {
			return nil, err
		}
	}

	if !intent.HasLiveTx() {
		if err := s.submit(ctx, sub); err != nil {
			return nil, err
		}
	}

	// A submitted transaction is awaited and recorded even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	if intent.ContractAddress == "" {
		if err := s.confirm(ctx, sub); err != nil {
			return nil, err
		}
	}

	payload, err := s.persist(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.transition(sub, StateDone, nil)
	if nav != nil {
		nav.Navigate(s.opts.DashboardPath)
	}

	return &CreateProductResult{
		Redirect:        s.opts.DashboardPath,
		TokenURI:        intent.TokenURI,
		TxHash:          intent.LatestTxHash(),
		ContractAddress: intent.ContractAddress,
		Record:          payload,
		Resumed:         sub.resumed,
	}, nil
}

func (s *CreateProductService) publish(ctx context.Context, sub *submission) error {
	s.transition(sub, StatePublishingMetadata, nil)

	pctx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	cid, err := s.publisher.Publish(pctx, sub.draft.Metadata())
	cancel()
	if err != nil {
		return s.fail(ctx, sub, KindStorageUnavailable, err)
	}
	if cid == "" {
		return s.fail(ctx, sub, KindStorageUnavailable, errors.New("storage returned an empty content identifier"))
	}

	sub.intent.TokenURI = TokenURI(cid)
	sub.intent.Status = models.IntentStatusPublished
	sub.intent.FailureKind = ""
	sub.intent.LastError = ""
	s.save(ctx, sub)
	return nil
}

func (s *CreateProductService) submit(ctx context.Context, sub *submission) error {
	s.transition(sub, StateSubmittingTx, nil)

	factory, err := s.factories.Factory(ctx, sub.session.ChainID, sub.session.Signer)
	if err != nil {
		return s.fail(ctx, sub, submissionKind(err), err)
	}

	sub.log.WithFields(logrus.Fields{
		"factory": factory.Address(),
		"price":   utils.FormatUnits(sub.priceWei, utils.EtherDecimals),
		"supply":  sub.draft.Supply,
	}).Info("Submitting create transaction")

	tx, err := factory.Create(ctx, sub.intent.TokenURI, sub.draft.Slug, sub.session.Address, sub.priceWei, sub.draft.Supply)
	if err != nil {
		return s.fail(ctx, sub, submissionKind(err), err)
	}

	sub.intent.FactoryAddress = factory.Address()
	sub.intent.TxHashes = append(sub.intent.TxHashes, tx.Hash())
	sub.intent.Status = models.IntentStatusSubmitted
	sub.intent.FailureKind = ""
	sub.intent.LastError = ""
	sub.log = sub.log.WithField("tx_hash", tx.Hash())
	s.save(ctx, sub)
	return nil
}

func (s *CreateProductService) confirm(ctx context.Context, sub *submission) error {
	s.transition(sub, StateAwaitingConfirmation, nil)

	factory, err := s.factories.Factory(ctx, sub.session.ChainID, sub.session.Signer)
	if err != nil {
		return s.fail(ctx, sub, KindConfirmationTimeout, err)
	}
	tx := factory.Transaction(sub.intent.LatestTxHash())

	wctx, cancel := context.WithTimeout(ctx, s.opts.ConfirmTimeout)
	receipt, err := tx.Wait(wctx)
	cancel()
	if err != nil {
		if errors.Is(err, ErrTxReverted) {
			// The metadata is still usable; the next attempt submits again.
			sub.intent.Status = models.IntentStatusPublished
			return s.fail(ctx, sub, KindTransactionReverted, err)
		}
		return s.fail(ctx, sub, KindConfirmationTimeout, err)
	}

	contract := receipt.ContractAddress
	if contract == "" {
		contract = factory.Address()
	}
	sub.intent.ContractAddress = contract
	sub.intent.Status = models.IntentStatusConfirmed
	sub.intent.FailureKind = ""
	sub.intent.LastError = ""
	s.save(ctx, sub)
	return nil
}

func (s *CreateProductService) persist(ctx context.Context, sub *submission) (ProductRecordPayload, error) {
	s.transition(sub, StatePersistingRecord, nil)

	payload := ProductRecordPayload{
		Contract:    sub.intent.ContractAddress,
		Name:        sub.draft.Name,
		Description: sub.draft.Description,
		Slug:        sub.draft.Slug,
		TokenURI:    sub.intent.TokenURI,
		Price:       sub.draft.Price,
		Supply:      sub.draft.Supply,
		Sold:        0,
	}

	if err := s.records.CreateProduct(ctx, sub.session.ChainID, sub.session.Address, payload); err != nil {
		// An earlier attempt may have written the record before losing the response.
		if !(sub.resumed && errors.Is(err, ErrRecordExists)) {
			return payload, s.fail(ctx, sub, KindPersistenceFailed, err)
		}
		sub.log.Warn("Product record already present, marking intent persisted")
	}

	sub.intent.Status = models.IntentStatusPersisted
	sub.intent.FailureKind = ""
	sub.intent.LastError = ""
	s.save(ctx, sub)
	return payload, nil
}

func (s *CreateProductService) fail(ctx context.Context, sub *submission, kind ErrorKind, err error) error {
	werr := &WorkflowError{Kind: kind, State: sub.state, Err: err}
	s.transition(sub, StateFailed, werr)

	entry := sub.log.WithError(err).WithField("kind", kind)
	switch kind {
	case KindInvalidDraft, KindInvalidAmount, KindDuplicateProduct, KindTransactionRejected:
		entry.Warn("Create product rejected")
	default:
		entry.Error("Create product failed")
	}

	if sub.intent != nil {
		sub.intent.FailureKind = string(kind)
		sub.intent.LastError = err.Error()
		if sub.intent.Status == models.IntentStatusPending {
			sub.intent.Status = models.IntentStatusFailed
		}
		if kind != KindDuplicateProduct {
			s.save(ctx, sub)
		}
	}
	return werr
}

func (s *CreateProductService) transition(sub *submission, to WorkflowState, err error) {
	from := sub.state
	sub.state = to

	txHash := ""
	if sub.intent != nil {
		txHash = sub.intent.LatestTxHash()
	}
	if to != StateFailed {
		sub.log.WithFields(logrus.Fields{"from": from, "state": to}).Debug("Create product state changed")
	}
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(Transition{
			ChainID: sub.session.ChainID,
			Owner:   sub.session.Address,
			Slug:    sub.draft.Slug,
			From:    from,
			To:      to,
			TxHash:  txHash,
			Err:     err,
		})
	}
}

// save journals progress. Once a side effect happened the workflow keeps
// going even if the journal write fails.
func (s *CreateProductService) save(ctx context.Context, sub *submission) {
	if s.opts.Intents == nil || sub.intent == nil {
		return
	}
	if err := s.opts.Intents.Save(context.WithoutCancel(ctx), sub.intent); err != nil {
		sub.log.WithError(err).Error("Failed to journal creation intent")
	}
}

func (s *CreateProductService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *CreateProductService) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func intentKey(chainID int64, owner, slug string) string {
	return fmt.Sprintf("%d/%s/%s", chainID, owner, slug)
}

func submissionKind(err error) ErrorKind {
	if errors.Is(err, ErrSignerDeclined) {
		return KindTransactionRejected
	}
	return KindSubmissionFailed
}
