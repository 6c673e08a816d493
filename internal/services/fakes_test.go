package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stripe/stripe-go/v82"

	"github.com/rentora/listings-service/internal/models"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/storage"
	"github.com/rentora/listings-service/internal/utils"
)

/* ------------------------------------------------------------------
   Property repository
------------------------------------------------------------------ */

type fakePropertyRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{items: map[uuid.UUID]*models.Property{}}
}

func (r *fakePropertyRepo) Create(_ context.Context, p *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *fakePropertyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePropertyRepo) UpdateIfVersion(_ context.Context, p *models.Property, _ int64) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *p
	cp.RowVersion++
	r.items[p.ID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakePropertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return pgx.ErrNoRows
	}
	if err := mutate(p); err != nil {
		return err
	}
	_, err = r.UpdateIfVersion(ctx, p, p.RowVersion)
	return err
}

func (r *fakePropertyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *fakePropertyRepo) Search(_ context.Context, f repositories.PropertyFilter) ([]*models.Property, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Property
	for _, p := range r.items {
		if p.Listable() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() > out[j].ID.String() })
	return out, len(out), nil
}

func (r *fakePropertyRepo) ListByStatus(_ context.Context, status *models.PropertyStatus, _, _ int) ([]*models.Property, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Property
	for _, p := range r.items {
		if status == nil || p.Status == *status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *fakePropertyRepo) CountByStatus(_ context.Context) (map[models.PropertyStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.PropertyStatus]int{}
	for _, p := range r.items {
		out[p.Status]++
	}
	return out, nil
}

func (r *fakePropertyRepo) CountListableByLocation(_ context.Context) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]int{}
	for _, p := range r.items {
		if p.Listable() {
			out[p.LocationID]++
		}
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Property image repository
------------------------------------------------------------------ */

type fakeImageRepo struct {
	mu    sync.Mutex
	items []*models.PropertyImage
}

func newFakeImageRepo() *fakeImageRepo { return &fakeImageRepo{} }

func (r *fakeImageRepo) Create(_ context.Context, img *models.PropertyImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *img
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeImageRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.items {
		if img.ID == id {
			cp := *img
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeImageRepo) ListByPropertyID(_ context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PropertyImage
	for _, img := range r.items {
		if img.PropertyID == propertyID {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, img := range r.items {
		if img.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeImageRepo) SetMain(_ context.Context, propertyID, imageID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.items {
		if img.PropertyID == propertyID {
			img.IsMain = img.ID == imageID
		}
	}
	return nil
}

func (r *fakeImageRepo) EnsureMain(_ context.Context, propertyID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first *models.PropertyImage
	for _, img := range r.items {
		if img.PropertyID != propertyID {
			continue
		}
		if first == nil {
			first = img
		}
		if img.IsMain {
			return nil
		}
	}
	if first != nil {
		first.IsMain = true
	}
	return nil
}

/* ------------------------------------------------------------------
   Location repository
------------------------------------------------------------------ */

type fakeLocationRepo struct {
	mu    sync.Mutex
	items []*models.Location
}

func newFakeLocationRepo() *fakeLocationRepo { return &fakeLocationRepo{} }

func (r *fakeLocationRepo) Create(_ context.Context, l *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLocationRepo) GetByName(_ context.Context, name string) (*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if strings.EqualFold(l.Name, name) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLocationRepo) List(_ context.Context) ([]*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Location, 0, len(r.items))
	for _, l := range r.items {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeLocationRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

/* ------------------------------------------------------------------
   Viewing request repository
------------------------------------------------------------------ */

type fakeViewingRepo struct {
	mu    sync.Mutex
	items []*models.ViewingRequest
}

func newFakeViewingRepo() *fakeViewingRepo { return &fakeViewingRepo{} }

func (r *fakeViewingRepo) Create(_ context.Context, vr *models.ViewingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.PropertyID == vr.PropertyID && existing.UserID == vr.UserID && existing.Status.Active() {
			return utils.ErrViewingRequestExists
		}
	}
	cp := *vr
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeViewingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ViewingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vr := range r.items {
		if vr.ID == id {
			cp := *vr
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeViewingRepo) GetActiveByPropertyAndUser(_ context.Context, propertyID uuid.UUID, userID string) (*models.ViewingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vr := range r.items {
		if vr.PropertyID == propertyID && vr.UserID == userID && vr.Status.Active() {
			cp := *vr
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeViewingRepo) HasApproved(_ context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vr := range r.items {
		if vr.PropertyID == propertyID && vr.UserID == userID && vr.Status == models.ViewingRequestStatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeViewingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.ViewingRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vr := range r.items {
		if vr.ID == id {
			vr.Status = status
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeViewingRepo) CancelOtherPending(_ context.Context, propertyID, exceptID uuid.UUID) ([]*models.ViewingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ViewingRequest
	for _, vr := range r.items {
		if vr.PropertyID == propertyID && vr.ID != exceptID && vr.Status == models.ViewingRequestStatusPending {
			vr.Status = models.ViewingRequestStatusCancelled
			cp := *vr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeViewingRepo) List(_ context.Context, status *models.ViewingRequestStatus) ([]*models.ViewingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ViewingRequest
	for _, vr := range r.items {
		if status == nil || vr.Status == *status {
			cp := *vr
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeViewingRepo) CountByStatus(_ context.Context) (map[models.ViewingRequestStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.ViewingRequestStatus]int{}
	for _, vr := range r.items {
		out[vr.Status]++
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Payment repository
------------------------------------------------------------------ */

type fakePaymentRepo struct {
	mu    sync.Mutex
	items []*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo { return &fakePaymentRepo{} }

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.TransactionID == p.TransactionID {
			return utils.ErrPaymentExists
		}
	}
	cp := *p
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakePaymentRepo) GetByTransactionID(_ context.Context, txID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.TransactionID == txID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) UpdateStatusByTransactionID(_ context.Context, txID string, status models.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.TransactionID == txID {
			p.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) ListByUser(_ context.Context, userID string) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.items {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) List(_ context.Context) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Payment, 0, len(r.items))
	for _, p := range r.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Favourite repository
------------------------------------------------------------------ */

type fakeFavouriteRepo struct {
	mu    sync.Mutex
	items []*models.Favourite
}

func newFakeFavouriteRepo() *fakeFavouriteRepo { return &fakeFavouriteRepo{} }

func (r *fakeFavouriteRepo) Create(_ context.Context, f *models.Favourite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.UserID == f.UserID && existing.PropertyID == f.PropertyID {
			return nil
		}
	}
	cp := *f
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeFavouriteRepo) DeleteByPropertyAndUser(_ context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.items {
		if f.PropertyID == propertyID && f.UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFavouriteRepo) Exists(_ context.Context, propertyID uuid.UUID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.items {
		if f.PropertyID == propertyID && f.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFavouriteRepo) FilterFavourited(_ context.Context, userID string, propertyIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for _, f := range r.items {
		if f.UserID != userID {
			continue
		}
		for _, id := range propertyIDs {
			if f.PropertyID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r *fakeFavouriteRepo) ListActivePropertiesByUser(_ context.Context, _ string) ([]*models.Property, error) {
	return nil, nil
}

/* ------------------------------------------------------------------
   Message repository
------------------------------------------------------------------ */

type fakeMessageRepo struct {
	mu    sync.Mutex
	items []*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo { return &fakeMessageRepo{} }

func (r *fakeMessageRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeMessageRepo) List(_ context.Context) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Message, 0, len(r.items))
	for _, m := range r.items {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Notifier
------------------------------------------------------------------ */

type fakeNotifier struct {
	mu        sync.Mutex
	approved  []uuid.UUID
	cancelled []uuid.UUID
}

func (n *fakeNotifier) ViewingApproved(vr *models.ViewingRequest, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, vr.ID)
	return nil
}

func (n *fakeNotifier) ViewingCancelled(vr *models.ViewingRequest, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, vr.ID)
	return nil
}

func (n *fakeNotifier) approvedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.approved)
}

func (n *fakeNotifier) cancelledCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.cancelled)
}

/* ------------------------------------------------------------------
   Stripe client
------------------------------------------------------------------ */

type fakeStripeClient struct {
	mu            sync.Mutex
	createdParams []*stripe.CheckoutSessionParams
	sessions      map[string]*stripe.CheckoutSession
	createErr     error
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{sessions: map[string]*stripe.CheckoutSession{}}
}

func (c *fakeStripeClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.createdParams = append(c.createdParams, params)
	sess := &stripe.CheckoutSession{
		ID:       "cs_test_" + uuid.NewString(),
		URL:      "https://checkout.stripe.test/session",
		Metadata: params.Metadata,
	}
	c.sessions[sess.ID] = sess
	return sess, nil
}

func (c *fakeStripeClient) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
	}
	return sess, nil
}

/* ------------------------------------------------------------------
   Image optimizer
------------------------------------------------------------------ */

// fakeOptimizer skips decoding and stages tiny placeholder files, so the
// listing flow's two-phase commit runs against real staged files.
type fakeOptimizer struct {
	store   *storage.Store
	failOn  string
	counter int
	mu      sync.Mutex
}

func newFakeOptimizer(store *storage.Store) *fakeOptimizer {
	return &fakeOptimizer{store: store}
}

func (o *fakeOptimizer) Optimize(_ io.Reader, propertyID uuid.UUID, index int, originalName string) (*OptimizedImage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failOn != "" && o.failOn == originalName {
		return nil, io.ErrUnexpectedEOF
	}
	o.counter++
	base := propertyID.String() + "_" + string(rune('a'+index)) + "_" + uuid.NewString()[:8]
	out := &OptimizedImage{FallbackName: base + ".jpg", WebpName: base + ".webp"}
	for _, name := range []string{out.FallbackName, out.WebpName} {
		if err := o.store.Stage(name, func(w io.Writer) error {
			_, err := w.Write([]byte("img"))
			return err
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
