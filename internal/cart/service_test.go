package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	products map[string]Product
	err      error
	calls    int
	mu       sync.Mutex
}

func (s *stubLookup) CartProduct(_ context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Product{}, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return p, nil
}

type failingRepo struct {
	items   []Item
	saveErr error
	loadErr error
}

func (f *failingRepo) Load(context.Context, string) ([]Item, error) { return f.items, f.loadErr }
func (f *failingRepo) Save(context.Context, string, []Item) error  { return f.saveErr }
func (f *failingRepo) Delete(context.Context, string) error        { return f.saveErr }

func newTestService(t *testing.T) (Service, *stubLookup) {
	t.Helper()
	repo, _ := newRedisRepo(t, time.Hour)
	lookup := &stubLookup{products: map[string]Product{
		"A": product("A", "10"),
		"B": product("B", "5"),
		"C": product("C", "19.99"),
	}}
	svc, err := NewService(repo, lookup, metrics.NewCartMetrics(prometheus.NewRegistry()), nil)
	require.NoError(t, err)
	return svc, lookup
}

func TestServicePersistsAcrossRequests(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "A", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", "B", 0)
	require.NoError(t, err)
	snap, err := svc.UpdateQuantity(ctx, "s1", "A", 5)
	require.NoError(t, err)
	assert.True(t, snap.Total.Equal(decimalString("55")))

	snap, err = svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 6, snap.Count)

	snap, err = svc.Remove(ctx, "s1", "B")
	require.NoError(t, err)
	assert.True(t, snap.Total.Equal(decimalString("50")))

	snap, err = svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	snap, err = svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.True(t, snap.Total.IsZero())
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "A", 1)
	require.NoError(t, err)

	snap, err := svc.Get(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestServiceAddLookupFailureLeavesCartUntouched(t *testing.T) {
	svc, lookup := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "A", 1)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "s1", "missing", 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	lookup.err = pkgerrors.New(pkgerrors.CodeDependency, "catalog down")
	_, err = svc.Add(ctx, "s1", "B", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	snap, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "A", snap.Items[0].ID)
}

func TestServiceAddValidatesInput(t *testing.T) {
	svc, lookup := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", " ", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Add(ctx, "s1", "A", -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Add(ctx, "", "A", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 1, lookup.calls)
}

func TestServiceUpdateUnknownIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	snap, err := svc.UpdateQuantity(context.Background(), "s1", "ghost", 3)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestServicePersistenceFailureIsDependencyError(t *testing.T) {
	repo := &failingRepo{saveErr: errors.New("redis down")}
	svc, err := NewService(repo, &stubLookup{products: map[string]Product{"A": product("A", "1")}}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "s1", "A", 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	repo.saveErr = nil
	repo.loadErr = errors.New("connection refused")
	_, err = svc.Get(context.Background(), "s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestServiceCorruptSlotStartsEmpty(t *testing.T) {
	repo := &failingRepo{loadErr: ErrCorruptSlot}
	svc, err := NewService(repo, &stubLookup{}, nil, nil)
	require.NoError(t, err)

	snap, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestServiceSerializesConcurrentAddsPerSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, "busy", "C", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := svc.Get(ctx, "busy")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 25, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimalString("499.75")))
}

func TestOpenSessionHoldsLockUntilClosed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, "held")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, _ = svc.Add(ctx, "held", "A", 1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("add should wait for the open session")
	case <-time.After(50 * time.Millisecond):
	}

	sess.Store.AddToCart(product("B", "5"), 1)
	require.NoError(t, sess.Err())
	sess.Close()
	sess.Close()
	<-done

	snap, err := svc.Get(ctx, "held")
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &stubLookup{}, nil, nil)
	assert.Error(t, err)
	_, err = NewService(&failingRepo{}, nil, nil, nil)
	assert.Error(t, err)
}
