package services

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/utils"
)

type paymentFixture struct {
	svc        PaymentService
	payments   *fakePaymentRepo
	properties *fakePropertyRepo
	viewings   *fakeViewingRepo
	stripe     *fakeStripeClient
	propertyID uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		payments:   newFakePaymentRepo(),
		properties: newFakePropertyRepo(),
		viewings:   newFakeViewingRepo(),
		stripe:     newFakeStripeClient(),
	}

	property := &models.Property{
		ID:            uuid.New(),
		Title:         "Studio in Jumeirah",
		Description:   "Cosy studio",
		PricePerMonth: 3800,
		SquareMeters:  42,
		LocationID:    uuid.New(),
		Address:       "7 Beach Road",
		IsActive:      true,
		Status:        models.PropertyStatusAvailable,
	}
	require.NoError(t, f.properties.Create(context.Background(), property))
	f.propertyID = property.ID

	f.svc = NewPaymentService(f.payments, f.properties, f.viewings, f.stripe,
		"aed", "https://rentora.test/success", "https://rentora.test/cancel")
	return f
}

func (f *paymentFixture) approveViewing(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.viewings.Create(context.Background(), &models.ViewingRequest{
		ID:         uuid.New(),
		PropertyID: f.propertyID,
		UserID:     userID,
		FullName:   "Sam Okafor",
		Email:      "sam@example.com",
		Status:     models.ViewingRequestStatusApproved,
	}))
}

func requirePaymentGateError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodePaymentNotPermitted, appErr.Code)
}

func TestCheckoutRejectsAdmins(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "admin-1")

	_, err := f.svc.CreateCheckout(context.Background(), "admin-1", true, f.propertyID)
	requirePaymentGateError(t, err)
}

func TestCheckoutRequiresApprovedViewing(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	requirePaymentGateError(t, err)
}

func TestCheckoutRequiresAvailableProperty(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "user-1")
	require.NoError(t, f.properties.UpdateWithRetry(context.Background(), f.propertyID, func(p *models.Property) error {
		p.Status = models.PropertyStatusRented
		return nil
	}))

	_, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	requirePaymentGateError(t, err)
}

func TestCheckoutCarriesMetadata(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "user-1")

	resp, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	require.NotEmpty(t, resp.URL)

	require.Len(t, f.stripe.createdParams, 1)
	params := f.stripe.createdParams[0]
	require.Equal(t, f.propertyID.String(), params.Metadata["propertyId"])
	require.Equal(t, "user-1", params.Metadata["userId"])
	require.Equal(t, "3800.00", params.Metadata["amount"])
	require.Equal(t, "aed", params.Metadata["currency"])
	require.Equal(t, int64(380000), *params.LineItems[0].PriceData.UnitAmount)
}

func TestConfirmSuccessIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "user-1")

	resp, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	require.NoError(t, err)

	sess := f.stripe.sessions[resp.SessionID]
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid
	sess.PaymentIntent = &stripe.PaymentIntent{ID: "pi_123"}

	first, err := f.svc.ConfirmSuccess(context.Background(), "user-1", resp.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, first.Status)
	require.Equal(t, "pi_123", first.TransactionID)

	second, err := f.svc.ConfirmSuccess(context.Background(), "user-1", resp.SessionID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := f.payments.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestConfirmSuccessRejectsOtherUsersSession(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "user-1")

	resp, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	require.NoError(t, err)
	f.stripe.sessions[resp.SessionID].PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid

	_, err = f.svc.ConfirmSuccess(context.Background(), "user-2", resp.SessionID)
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeForbidden, appErr.Code)
}

func TestConfirmSuccessRejectsUnpaidSession(t *testing.T) {
	f := newPaymentFixture(t)
	f.approveViewing(t, "user-1")

	resp, err := f.svc.CreateCheckout(context.Background(), "user-1", false, f.propertyID)
	require.NoError(t, err)
	f.stripe.sessions[resp.SessionID].PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid

	_, err = f.svc.ConfirmSuccess(context.Background(), "user-1", resp.SessionID)
	require.Error(t, err)

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, utils.ErrCodeConflict, appErr.Code)
}

func intentEvent(t *testing.T, eventType string, intent map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(intent)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func (f *paymentFixture) intentPayload(txID string) map[string]any {
	return map[string]any{
		"id": txID,
		"metadata": map[string]string{
			"propertyId": f.propertyID.String(),
			"userId":     "user-1",
			"amount":     strconv.FormatFloat(3800, 'f', 2, 64),
			"currency":   "aed",
		},
	}
}

func TestWebhookIntentSucceededCreatesWhenAbsent(t *testing.T) {
	f := newPaymentFixture(t)

	event := intentEvent(t, "payment_intent.succeeded", f.intentPayload("pi_789"))
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), event))

	p, err := f.payments.GetByTransactionID(context.Background(), "pi_789")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, models.PaymentStatusCompleted, p.Status)
	require.Equal(t, "user-1", p.UserID)

	// A replay of the same event stays a single row.
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), event))
	all, err := f.payments.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestWebhookPaymentFailedUpdatesExistingOnly(t *testing.T) {
	f := newPaymentFixture(t)

	// Unknown transaction: a no-op, not an error.
	event := intentEvent(t, "payment_intent.payment_failed", map[string]any{"id": "pi_missing"})
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), event))
	all, err := f.payments.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)

	// Known transaction flips to Failed.
	require.NoError(t, f.payments.Create(context.Background(), &models.Payment{
		ID:            uuid.New(),
		UserID:        "user-1",
		PropertyID:    f.propertyID,
		Amount:        3800,
		Currency:      "aed",
		Status:        models.PaymentStatusPending,
		Provider:      "stripe",
		TransactionID: "pi_known",
	}))
	event = intentEvent(t, "payment_intent.payment_failed", map[string]any{"id": "pi_known"})
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), event))

	p, err := f.payments.GetByTransactionID(context.Background(), "pi_known")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, p.Status)
}

func TestWebhookIgnoresUnhandledEvents(t *testing.T) {
	f := newPaymentFixture(t)

	event := intentEvent(t, "customer.created", map[string]any{"id": "cus_1"})
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), event))
}
