package routes

// Route paths, kept in one place so the router and the tests agree.
const (
	Health = "/health"

	Properties        = "/api/properties"
	PropertyByID      = "/api/properties/{id}"
	PropertyFavourite = "/api/properties/{id}/favourite"
	Favourites        = "/api/favourites"

	Locations        = "/api/locations"
	LocationsPopular = "/api/locations/popular"

	ViewingRequests = "/api/viewing-requests"

	PaymentsCheckout = "/api/payments/checkout"
	PaymentsConfirm  = "/api/payments/confirm"
	PaymentsMine     = "/api/payments"
	StripeWebhook    = "/api/webhooks/stripe"

	Messages = "/api/messages"

	AdminProperties         = "/api/admin/properties"
	AdminPropertyByID       = "/api/admin/properties/{id}"
	AdminDashboard          = "/api/admin/dashboard"
	AdminViewingRequests    = "/api/admin/viewing-requests"
	AdminViewingRequestByID = "/api/admin/viewing-requests/{id}"
	AdminMessages           = "/api/admin/messages"
	AdminPayments           = "/api/admin/payments"
)
