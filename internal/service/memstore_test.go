package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/internal/models"
	"github.com/prodoxx/myqa-is/internal/repository"
)

type balanceKey struct {
	owner string
	token string
}

type memState struct {
	marketplace *models.Marketplace
	users       map[string]models.UserState
	questions   map[uint64]models.Question
	keys        map[KeyRef]models.UnlockKey
	tokens      map[KeyRef]models.KeyTokenRegistration
	balances    map[balanceKey]uint64
	events      []*models.Event
}

func (s *memState) clone() *memState {
	c := &memState{
		users:     make(map[string]models.UserState, len(s.users)),
		questions: make(map[uint64]models.Question, len(s.questions)),
		keys:      make(map[KeyRef]models.UnlockKey, len(s.keys)),
		tokens:    make(map[KeyRef]models.KeyTokenRegistration, len(s.tokens)),
		balances:  make(map[balanceKey]uint64, len(s.balances)),
		events:    append([]*models.Event(nil), s.events...),
	}
	if s.marketplace != nil {
		m := *s.marketplace
		c.marketplace = &m
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	return c
}

// memStore is a transactional in-memory repository.Store. A failed
// transaction restores the snapshot taken when it began.
type memStore struct {
	mu    sync.Mutex
	state *memState

	transfers      int
	failTransferAt int
	// applied records every transfer that moved funds, rolled back or not.
	applied []models.Transfer
}

func newMemStore() *memStore {
	return &memStore{state: (&memState{}).clone()}
}

func (s *memStore) Repositories() repository.Repositories {
	r := &memRepos{store: s}
	return repository.Repositories{
		Marketplaces: r,
		UserStates:   memUserStates{r},
		Questions:    memQuestions{r},
		UnlockKeys:   memUnlockKeys{r},
		KeyTokens:    memKeyTokens{r},
		Ledger:       memLedger{r},
		Events:       memEvents{r},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, s.Repositories()); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// failNthTransfer makes the n-th ledger transfer from now on fail.
func (s *memStore) failNthTransfer(n int) {
	s.transfers = 0
	s.failTransferAt = n
}

func (s *memStore) setBalance(owner, token string, amount uint64) {
	s.state.balances[balanceKey{owner, token}] = amount
}

func (s *memStore) balance(owner, token string) uint64 {
	return s.state.balances[balanceKey{owner, token}]
}

type memRepos struct {
	store *memStore
}

func (r *memRepos) st() *memState { return r.store.state }

func (r *memRepos) Get(ctx context.Context) (*models.Marketplace, error) {
	if r.st().marketplace == nil {
		return nil, nil
	}
	m := *r.st().marketplace
	return &m, nil
}

func (r *memRepos) Create(ctx context.Context, m *models.Marketplace) error {
	if r.st().marketplace != nil {
		return fmt.Errorf("failed to create marketplace: duplicate")
	}
	c := *m
	r.st().marketplace = &c
	return nil
}

func (r *memRepos) Update(ctx context.Context, m *models.Marketplace) error {
	c := *m
	r.st().marketplace = &c
	return nil
}

type memUserStates struct{ *memRepos }

func (r memUserStates) Get(ctx context.Context, identity string) (*models.UserState, error) {
	us, ok := r.st().users[identity]
	if !ok {
		return nil, nil
	}
	return &us, nil
}

func (r memUserStates) Create(ctx context.Context, us *models.UserState) error {
	if _, ok := r.st().users[us.Identity]; ok {
		return fmt.Errorf("failed to create user state: duplicate")
	}
	r.st().users[us.Identity] = *us
	return nil
}

func (r memUserStates) Update(ctx context.Context, us *models.UserState) error {
	r.st().users[us.Identity] = *us
	return nil
}

type memQuestions struct{ *memRepos }

func (r memQuestions) Get(ctx context.Context, index uint64) (*models.Question, error) {
	q, ok := r.st().questions[index]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r memQuestions) Create(ctx context.Context, q *models.Question) error {
	if _, ok := r.st().questions[q.Index]; ok {
		return fmt.Errorf("failed to create question: duplicate")
	}
	r.st().questions[q.Index] = *q
	return nil
}

func (r memQuestions) Update(ctx context.Context, q *models.Question) error {
	r.st().questions[q.Index] = *q
	return nil
}

func (r memQuestions) ListByCreator(ctx context.Context, creator string, limit int) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range r.st().questions {
		if q.Creator == creator {
			q := q
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUnlockKeys struct{ *memRepos }

func (r memUnlockKeys) Get(ctx context.Context, questionIndex, tokenID uint64) (*models.UnlockKey, error) {
	k, ok := r.st().keys[KeyRef{questionIndex, tokenID}]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r memUnlockKeys) Create(ctx context.Context, k *models.UnlockKey) error {
	ref := KeyRef{k.QuestionIndex, k.TokenID}
	if _, ok := r.st().keys[ref]; ok {
		return fmt.Errorf("failed to create unlock key: duplicate")
	}
	r.st().keys[ref] = *k
	return nil
}

func (r memUnlockKeys) Update(ctx context.Context, k *models.UnlockKey) error {
	r.st().keys[KeyRef{k.QuestionIndex, k.TokenID}] = *k
	return nil
}

func (r memUnlockKeys) ListByOwner(ctx context.Context, owner string) ([]*models.UnlockKey, error) {
	var out []*models.UnlockKey
	for _, k := range r.st().keys {
		if k.Owner == owner {
			k := k
			out = append(out, &k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionIndex != out[j].QuestionIndex {
			return out[i].QuestionIndex < out[j].QuestionIndex
		}
		return out[i].TokenID < out[j].TokenID
	})
	return out, nil
}

type memKeyTokens struct{ *memRepos }

func (r memKeyTokens) Register(ctx context.Context, reg models.KeyTokenRegistration) error {
	ref := KeyRef{reg.QuestionIndex, reg.TokenID}
	if _, ok := r.st().tokens[ref]; ok {
		return fmt.Errorf("key token %d/%d already registered: %w", reg.QuestionIndex, reg.TokenID, errs.ErrRegistrationFailed)
	}
	r.st().tokens[ref] = reg
	return nil
}

func (r memKeyTokens) TransferOwnership(ctx context.Context, questionIndex, tokenID uint64, newOwner string, at time.Time) error {
	ref := KeyRef{questionIndex, tokenID}
	reg, ok := r.st().tokens[ref]
	if !ok {
		return fmt.Errorf("key token not registered: %w", errs.ErrRegistrationFailed)
	}
	reg.Owner = newOwner
	r.st().tokens[ref] = reg
	return nil
}

func (r memKeyTokens) OwnerOf(ctx context.Context, questionIndex, tokenID uint64) (string, error) {
	return r.st().tokens[KeyRef{questionIndex, tokenID}].Owner, nil
}

type memLedger struct{ *memRepos }

func (r memLedger) Balance(ctx context.Context, owner, token string) (uint64, error) {
	return r.st().balances[balanceKey{owner, token}], nil
}

func (r memLedger) Transfer(ctx context.Context, t models.Transfer) error {
	if t.Amount == 0 {
		return nil
	}
	r.store.transfers++
	if r.store.failTransferAt > 0 && r.store.transfers == r.store.failTransferAt {
		return fmt.Errorf("injected failure: %w", errs.ErrTransferFailed)
	}
	if t.AuthorizedBy != t.From || t.To == "" {
		return errs.ErrTransferFailed
	}
	from := balanceKey{t.From, t.Token}
	if r.st().balances[from] < t.Amount {
		return errs.ErrInsufficientFunds
	}
	r.st().balances[from] -= t.Amount
	r.st().balances[balanceKey{t.To, t.Token}] += t.Amount
	r.store.applied = append(r.store.applied, t)
	return nil
}

type memEvents struct{ *memRepos }

func (r memEvents) Append(ctx context.Context, e *models.Event) error {
	r.st().events = append(r.st().events, e)
	return nil
}

func (r memEvents) ListByQuestion(ctx context.Context, questionIndex uint64, limit int) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range r.st().events {
		if e.QuestionIndex != nil && *e.QuestionIndex == questionIndex {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fixedClock is a settable clock for lifecycle tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}
