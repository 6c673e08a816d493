package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/rentora/listings-service/internal/dtos"
	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/utils"
)

const paymentProviderStripe = "stripe"

/* ------------------------------------------------------------------
   Stripe client
------------------------------------------------------------------ */

// StripeClient is the slice of the Stripe API the payment flow touches,
// kept behind an interface so tests run without the network.
type StripeClient interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string) (*stripe.CheckoutSession, error)
}

type liveStripeClient struct{}

func NewStripeClient(apiKey string) StripeClient {
	stripe.Key = apiKey
	return liveStripeClient{}
}

func (liveStripeClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (liveStripeClient) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return session.Get(id, nil)
}

/* ------------------------------------------------------------------
   Service
------------------------------------------------------------------ */

type PaymentService interface {
	// CreateCheckout opens a Stripe Checkout session for the deposit. The
	// caller must hold an Approved viewing request for an Available
	// property, and admins cannot pay.
	CreateCheckout(ctx context.Context, userID string, isAdmin bool, propertyID uuid.UUID) (*dtos.CheckoutSessionResponse, error)

	// ConfirmSuccess records the payment after the browser lands on the
	// success URL. Safe to call more than once per session.
	ConfirmSuccess(ctx context.Context, userID, sessionID string) (*models.Payment, error)

	// HandleWebhookEvent applies one verified Stripe event. Replays and
	// out-of-order deliveries are tolerated.
	HandleWebhookEvent(ctx context.Context, event stripe.Event) error

	ListMine(ctx context.Context, userID string) ([]dtos.PaymentResponse, error)
	ListAll(ctx context.Context) ([]dtos.PaymentResponse, error)
}

type paymentService struct {
	payments   repositories.PaymentRepository
	properties repositories.PropertyRepository
	viewings   repositories.ViewingRequestRepository
	stripe     StripeClient

	currency   string
	successURL string
	cancelURL  string
}

func NewPaymentService(
	payments repositories.PaymentRepository,
	properties repositories.PropertyRepository,
	viewings repositories.ViewingRequestRepository,
	stripeClient StripeClient,
	currency, successURL, cancelURL string,
) PaymentService {
	return &paymentService{
		payments:   payments,
		properties: properties,
		viewings:   viewings,
		stripe:     stripeClient,
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, userID string, isAdmin bool, propertyID uuid.UUID) (*dtos.CheckoutSessionResponse, error) {
	if isAdmin {
		return nil, utils.NewAppError(http.StatusForbidden, utils.ErrCodePaymentNotPermitted, "administrators cannot pay deposits", nil)
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "property not found", utils.ErrPropertyNotFound)
	}
	if !property.Listable() {
		return nil, utils.NewAppError(http.StatusForbidden, utils.ErrCodePaymentNotPermitted, "property is not available", nil)
	}

	approved, err := s.viewings.HasApproved(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, utils.NewAppError(http.StatusForbidden, utils.ErrCodePaymentNotPermitted,
			"an approved viewing request is required before paying a deposit", nil)
	}

	amount := property.PricePerMonth
	metadata := map[string]string{
		"propertyId": propertyID.String(),
		"userId":     userID,
		"amount":     strconv.FormatFloat(amount, 'f', 2, 64),
		"currency":   s.currency,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(toMinorUnits(amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Deposit: " + property.Title),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
		params.PaymentIntentData.AddMetadata(k, v)
	}

	checkout, err := s.stripe.CreateCheckoutSession(params)
	if err != nil {
		return nil, utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"could not start the payment", fmt.Errorf("creating checkout session: %w", err))
	}

	return &dtos.CheckoutSessionResponse{SessionID: checkout.ID, URL: checkout.URL}, nil
}

func (s *paymentService) ConfirmSuccess(ctx context.Context, userID, sessionID string) (*models.Payment, error) {
	checkout, err := s.stripe.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, utils.NewAppError(http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"could not verify the payment", fmt.Errorf("fetching checkout session: %w", err))
	}
	if checkout.Metadata["userId"] != userID {
		return nil, utils.NewAppError(http.StatusForbidden, utils.ErrCodeForbidden, "payment belongs to another user", nil)
	}
	if checkout.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeConflict, "payment has not completed", nil)
	}

	payment, err := paymentFromMetadata(checkout.Metadata, transactionID(checkout), models.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}
	return s.recordOnce(ctx, payment)
}

func (s *paymentService) HandleWebhookEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var checkout stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
			return fmt.Errorf("decoding checkout session: %w", err)
		}
		payment, err := paymentFromMetadata(checkout.Metadata, transactionID(&checkout), models.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		_, err = s.recordOnce(ctx, payment)
		return err

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("decoding payment intent: %w", err)
		}
		updated, err := s.payments.UpdateStatusByTransactionID(ctx, intent.ID, models.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if updated {
			return nil
		}
		payment, err := paymentFromMetadata(intent.Metadata, intent.ID, models.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		_, err = s.recordOnce(ctx, payment)
		return err

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("decoding payment intent: %w", err)
		}
		// A failure for a transaction we never recorded is a no-op.
		_, err := s.payments.UpdateStatusByTransactionID(ctx, intent.ID, models.PaymentStatusFailed)
		return err

	default:
		utils.Logger.WithField("type", event.Type).Debug("ignoring stripe event")
		return nil
	}
}

func (s *paymentService) ListMine(ctx context.Context, userID string) ([]dtos.PaymentResponse, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponses(payments), nil
}

func (s *paymentService) ListAll(ctx context.Context) ([]dtos.PaymentResponse, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, err
	}
	return toPaymentResponses(payments), nil
}

/* ------------------------------------------------------------------
   Helpers
------------------------------------------------------------------ */

// recordOnce inserts the payment, treating a duplicate transaction id as
// already recorded rather than an error.
func (s *paymentService) recordOnce(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := s.payments.Create(ctx, payment)
	if err == nil {
		return payment, nil
	}
	if errors.Is(err, utils.ErrPaymentExists) {
		return s.payments.GetByTransactionID(ctx, payment.TransactionID)
	}
	return nil, err
}

func paymentFromMetadata(metadata map[string]string, txID string, status models.PaymentStatus) (*models.Payment, error) {
	propertyID, err := uuid.Parse(metadata["propertyId"])
	if err != nil {
		return nil, fmt.Errorf("payment metadata: bad propertyId: %w", err)
	}
	userID := metadata["userId"]
	if userID == "" {
		return nil, errors.New("payment metadata: missing userId")
	}
	amount, err := strconv.ParseFloat(metadata["amount"], 64)
	if err != nil {
		return nil, fmt.Errorf("payment metadata: bad amount: %w", err)
	}

	return &models.Payment{
		ID:            uuid.New(),
		UserID:        userID,
		PropertyID:    propertyID,
		Amount:        amount,
		Currency:      metadata["currency"],
		Status:        status,
		Provider:      paymentProviderStripe,
		TransactionID: txID,
	}, nil
}

// transactionID prefers the payment intent id so the success callback and
// the payment_intent webhooks agree on the dedup key.
func transactionID(checkout *stripe.CheckoutSession) string {
	if checkout.PaymentIntent != nil && checkout.PaymentIntent.ID != "" {
		return checkout.PaymentIntent.ID
	}
	return checkout.ID
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func toPaymentResponses(payments []*models.Payment) []dtos.PaymentResponse {
	out := make([]dtos.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dtos.NewPaymentResponse(p))
	}
	return out
}
