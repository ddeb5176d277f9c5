package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/fulfillment"
	"github.com/angelmondragon/ebookshop-backend/internal/locale"
	"github.com/angelmondragon/ebookshop-backend/internal/order"
	"github.com/angelmondragon/ebookshop-backend/internal/receipt"
	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ebookshop-backend/pkg/errors"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
)

type salesRecorder interface {
	RecordSales(ctx context.Context, units map[string]int) error
}

// Service places orders from a visitor's cart.
type Service interface {
	PlaceOrder(ctx context.Context, sessionID string, input BuyerInput, dict locale.Dictionary) (*Result, error)
}

// Result is what the buyer gets back: the order and its receipt.
type Result struct {
	Order   order.Snapshot
	Receipt receipt.Document
}

// ServiceParams wires the checkout collaborators.
type ServiceParams struct {
	Carts    cart.Service
	Notifier fulfillment.Notifier
	Sales    salesRecorder
	Metrics  *metrics.CartMetrics
	Logger   *logger.Logger
	Shop     config.ShopConfig
	Now      func() time.Time
}

type service struct {
	carts    cart.Service
	notifier fulfillment.Notifier
	sales    salesRecorder
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	shop     config.ShopConfig
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(p ServiceParams) (Service, error) {
	if p.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("fulfillment notifier required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		carts:    p.Carts,
		notifier: p.Notifier,
		sales:    p.Sales,
		metrics:  p.Metrics,
		logg:     p.Logger,
		shop:     p.Shop,
		now:      now,
	}, nil
}

// PlaceOrder snapshots the cart, clears it once, renders the receipt and
// hands the order to fulfillment. Fulfillment and sales counters are best
// effort: once the cart is cleared the receipt is the buyer's proof.
func (s *service) PlaceOrder(ctx context.Context, sessionID string, input BuyerInput, dict locale.Dictionary) (*Result, error) {
	buyer, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	sess, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	contents := sess.Store.Snapshot()
	if contents.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
	}
	snap := order.NewSnapshot(contents, buyer, s.shop.Currency, s.shop.CurrencySymbol, s.now())

	sess.Store.ClearCart()
	if err := sess.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear cart")
	}
	sess.Close()

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(s.logg.WithCartSession(ctx, sess.ID), snap.Reference)
	}

	doc, err := receipt.Render(snap, dict, receipt.WithShop(s.shop.Name, s.shop.SupportContact))
	if err != nil {
		s.logError(logCtx, "checkout.receipt_failed", err)
		return nil, err
	}

	if err := s.notifier.OrderPlaced(ctx, snap, dict.Lang()); err != nil {
		s.logError(logCtx, "checkout.fulfillment_publish_failed", err)
	}
	if s.sales != nil {
		if err := s.sales.RecordSales(ctx, snap.Units()); err != nil {
			s.logError(logCtx, "checkout.record_sales_failed", err)
		}
	}
	s.metrics.ObserveOrder(snap.Total, snap.Count())

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"items": len(snap.Items),
			"units": snap.Count(),
			"total": snap.Total.StringFixed(2),
		}), "checkout.order_placed")
	}
	return &Result{Order: snap, Receipt: doc}, nil
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}
