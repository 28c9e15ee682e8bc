package gateways

import (
	"context"
	"errors"
	"fmt"

	"github.com/plutov/paypal/v4"
	"go.uber.org/zap"

	"dynamo/pkg/utils"
)

// PaymentGateway is the provider capability consumed by the capture
// coordinator: create an approvable order, finalize an approved one.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, description, returnURL, cancelURL string) (*GatewayOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*GatewayCapture, error)
}

type GatewayOrder struct {
	ProviderOrderID string
	ApprovalURL     string
}

type GatewayCapture struct {
	Completed bool
	PaymentID string // provider capture id
	RawStatus string
}

type PayPalConfig struct {
	ClientID  string
	Secret    string
	Live      bool // sandbox unless set
	BrandName string
}

type payPalGateway struct {
	client *paypal.Client
	brand  string
	logger *zap.Logger
}

func NewPayPalGateway(cfg PayPalConfig, logger *zap.Logger) (PaymentGateway, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("missing PayPal credentials")
	}

	apiBase := paypal.APIBaseSandBox
	if cfg.Live {
		apiBase = paypal.APIBaseLive
	}

	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client init: %w", err)
	}

	brand := cfg.BrandName
	if brand == "" {
		brand = "Dynamo Wireless"
	}

	return &payPalGateway{client: client, brand: brand, logger: logger}, nil
}

func (g *payPalGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, description, returnURL, cancelURL string) (*GatewayOrder, error) {
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderAuth, err)
	}

	units := []paypal.PurchaseUnitRequest{
		{
			Amount: &paypal.PurchaseUnitAmount{
				Currency: currency,
				Value:    minorToValue(amountMinor),
			},
			Description: description,
		},
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, &paypal.ApplicationContext{
		BrandName: g.brand,
		ReturnURL: returnURL,
		CancelURL: cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	approvalURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approval link", order.ID)
	}

	return &GatewayOrder{
		ProviderOrderID: order.ID,
		ApprovalURL:     approvalURL,
	}, nil
}

func (g *payPalGateway) CaptureOrder(ctx context.Context, providerOrderID string) (*GatewayCapture, error) {
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrProviderAuth, err)
	}

	res, err := g.client.CaptureOrder(ctx, providerOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		// A lost race against another capture call surfaces here; the
		// order details still carry the settled capture.
		if isAlreadyCaptured(err) {
			g.logger.Info("order already captured at provider, reading back capture",
				zap.String("provider_order_id", providerOrderID))
			return g.readSettledOrder(ctx, providerOrderID)
		}
		return nil, fmt.Errorf("paypal capture order: %w", err)
	}

	capture := &GatewayCapture{
		Completed: res.Status == "COMPLETED",
		RawStatus: res.Status,
	}
	for _, unit := range res.PurchaseUnits {
		if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
			capture.PaymentID = unit.Payments.Captures[0].ID
			break
		}
	}

	return capture, nil
}

func (g *payPalGateway) readSettledOrder(ctx context.Context, providerOrderID string) (*GatewayCapture, error) {
	order, err := g.client.GetOrder(ctx, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("paypal get order: %w", err)
	}

	capture := &GatewayCapture{
		Completed: order.Status == "COMPLETED",
		RawStatus: order.Status,
	}
	for _, unit := range order.PurchaseUnits {
		if unit.Payments != nil && len(unit.Payments.Captures) > 0 {
			capture.PaymentID = unit.Payments.Captures[0].ID
			break
		}
	}

	return capture, nil
}

func isAlreadyCaptured(err error) bool {
	var respErr *paypal.ErrorResponse
	if !errors.As(err, &respErr) {
		return false
	}
	for _, detail := range respErr.Details {
		if detail.Issue == "ORDER_ALREADY_CAPTURED" {
			return true
		}
	}
	return false
}

// minorToValue renders minor units as the provider's decimal string,
// e.g. 2500 -> "25.00". Two-decimal currencies only.
func minorToValue(amountMinor int64) string {
	return fmt.Sprintf("%d.%02d", amountMinor/100, amountMinor%100)
}
