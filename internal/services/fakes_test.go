package services

import (
	"context"
	"math/big"
)

// callLog records collaborator calls in order.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

type fakePublisher struct {
	log   *callLog
	cid   string
	err   error
	block bool
	docs  []ProductMetadata
}

func (p *fakePublisher) Publish(ctx context.Context, doc ProductMetadata) (string, error) {
	p.log.add("publish")
	p.docs = append(p.docs, doc)
	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.cid, p.err
}

type createCall struct {
	TokenURI string
	Slug     string
	Owner    string
	Price    *big.Int
	Supply   uint64
}

type fakeFactory struct {
	log       *callLog
	address   string
	hash      string
	contract  string
	createErr error
	waitErrs  []error
	creates   []createCall
	waits     []string
}

func (f *fakeFactory) Address() string { return f.address }

func (f *fakeFactory) Create(ctx context.Context, tokenURI, slug, owner string, price *big.Int, supply uint64) (PendingTransaction, error) {
	f.log.add("create")
	f.creates = append(f.creates, createCall{tokenURI, slug, owner, price, supply})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Transaction(f.hash), nil
}

func (f *fakeFactory) Transaction(hash string) PendingTransaction {
	return &fakeTx{factory: f, hash: hash}
}

type fakeTx struct {
	factory *fakeFactory
	hash    string
}

func (t *fakeTx) Hash() string { return t.hash }

func (t *fakeTx) Wait(ctx context.Context) (*ConfirmedReceipt, error) {
	f := t.factory
	f.log.add("wait")
	f.waits = append(f.waits, t.hash)
	if len(f.waitErrs) > 0 {
		err := f.waitErrs[0]
		f.waitErrs = f.waitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &ConfirmedReceipt{TxHash: t.hash, BlockNumber: 100, ContractAddress: f.contract}, nil
}

type fakeFactories struct {
	factory     *fakeFactory
	err         error
	chains      []int64
	unsupported map[int64]bool
}

func (p *fakeFactories) SupportsChain(chainID int64) bool {
	return !p.unsupported[chainID]
}

func (p *fakeFactories) Factory(ctx context.Context, chainID int64, signer Signer) (ProductFactory, error) {
	p.chains = append(p.chains, chainID)
	if p.err != nil {
		return nil, p.err
	}
	return p.factory, nil
}

type recordCall struct {
	ChainID int64
	Owner   string
	Payload ProductRecordPayload
}

type fakeRecords struct {
	log   *callLog
	errs  []error
	calls []recordCall
}

func (r *fakeRecords) CreateProduct(ctx context.Context, chainID int64, owner string, payload ProductRecordPayload) error {
	r.log.add("record")
	r.calls = append(r.calls, recordCall{chainID, owner, payload})
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return err
	}
	return nil
}

type fakeNavigator struct {
	log   *callLog
	paths []string
}

func (n *fakeNavigator) Navigate(path string) {
	n.log.add("navigate")
	n.paths = append(n.paths, path)
}
