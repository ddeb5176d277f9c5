package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
)

const lockStripes = 64

// ProductLookup resolves catalog ids into cart-ready product data.
type ProductLookup interface {
	CartProduct(ctx context.Context, id string) (Product, error)
}

// Service exposes the cart operations of a visitor session.
type Service interface {
	Get(ctx context.Context, sessionID string) (Snapshot, error)
	Add(ctx context.Context, sessionID, bookID string, quantity int) (Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID, bookID string, quantity int) (Snapshot, error)
	Remove(ctx context.Context, sessionID, bookID string) (Snapshot, error)
	Clear(ctx context.Context, sessionID string) (Snapshot, error)
	Open(ctx context.Context, sessionID string) (*Session, error)
}

type service struct {
	repo    Repository
	catalog ProductLookup
	metrics *metrics.CartMetrics
	logg    *logger.Logger
	locks   [lockStripes]sync.Mutex
}

// NewService builds a cart service backed by the provided repository and catalog.
func NewService(repo Repository, catalog ProductLookup, m *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, catalog: catalog, metrics: m, logg: logg}, nil
}

// Session is an opened cart: the restored store plus the subscribers that
// persist and measure it. Callers must Close it.
type Session struct {
	ID    string
	Store *Store

	mu         sync.Mutex
	persistErr error
	release    func()
	closeOnce  sync.Once
}

// Err returns the first persistence failure seen since the session opened.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Close detaches the subscribers and releases the session lock.
func (s *Session) Close() {
	s.closeOnce.Do(s.release)
}

func (s *Session) recordErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persistErr == nil {
		s.persistErr = err
	}
}

// Open restores the session's cart and holds the session lock until Close.
func (s *service) Open(ctx context.Context, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}

	lock := s.lockFor(sessionID)
	lock.Lock()

	items, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrCorruptSlot) {
			lock.Unlock()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
		}
		s.warn(ctx, sessionID, "cart.slot_corrupt_reset")
		items = nil
	}

	store := NewStore(items)
	sess := &Session{ID: sessionID, Store: store}

	unsubPersist := store.Subscribe(func(change Change) {
		if err := s.repo.Save(ctx, sessionID, change.Snapshot.Items); err != nil {
			sess.recordErr(err)
		}
	})
	unsubMetrics := store.Subscribe(func(change Change) {
		s.metrics.IncMutation(change.Op.String())
	})

	sess.release = func() {
		unsubMetrics()
		unsubPersist()
		lock.Unlock()
	}
	return sess, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.withStore(ctx, sessionID, func(*Store) {})
}

// Add resolves the book before the cart is opened so a failed lookup leaves
// the cart untouched.
func (s *service) Add(ctx context.Context, sessionID, bookID string, quantity int) (Snapshot, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if quantity < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	product, err := s.catalog.CartProduct(ctx, bookID)
	if err != nil {
		return Snapshot{}, err
	}

	return s.withStore(ctx, sessionID, func(store *Store) {
		store.AddToCart(product, quantity)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, bookID string, quantity int) (Snapshot, error) {
	return s.withStore(ctx, sessionID, func(store *Store) {
		store.UpdateQuantity(strings.TrimSpace(bookID), quantity)
	})
}

func (s *service) Remove(ctx context.Context, sessionID, bookID string) (Snapshot, error) {
	return s.withStore(ctx, sessionID, func(store *Store) {
		store.RemoveFromCart(strings.TrimSpace(bookID))
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (Snapshot, error) {
	return s.withStore(ctx, sessionID, func(store *Store) {
		store.ClearCart()
	})
}

func (s *service) withStore(ctx context.Context, sessionID string, fn func(*Store)) (Snapshot, error) {
	sess, err := s.Open(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	defer sess.Close()

	fn(sess.Store)
	if err := sess.Err(); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist cart")
	}
	return sess.Store.Snapshot(), nil
}

func (s *service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *service) warn(ctx context.Context, sessionID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithCartSession(ctx, sessionID), msg)
}
