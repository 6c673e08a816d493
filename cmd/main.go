package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/rentora/listings-service/internal/app"
	"github.com/rentora/listings-service/internal/config"
	"github.com/rentora/listings-service/internal/controllers"
	"github.com/rentora/listings-service/internal/middleware"
	"github.com/rentora/listings-service/internal/repositories"
	"github.com/rentora/listings-service/internal/routes"
	"github.com/rentora/listings-service/internal/services"
	"github.com/rentora/listings-service/internal/storage"
	"github.com/rentora/listings-service/internal/utils"
)

const (
	stagedFileMaxAge = 2 * time.Hour
	stagedSweepSpec  = "@hourly"
)

func main() {
	utils.InitLogger("listings-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize listings-service:", err)
	}
	defer application.Close()

	store, err := storage.NewStore(cfg.UploadDir)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize image store:", err)
	}

	// Repositories
	propertyRepo := repositories.NewPropertyRepository(application.DB)
	imageRepo := repositories.NewPropertyImageRepository(application.DB)
	locationRepo := repositories.NewLocationRepository(application.DB)
	viewingRepo := repositories.NewViewingRequestRepository(application.DB)
	paymentRepo := repositories.NewPaymentRepository(application.DB)
	favouriteRepo := repositories.NewFavouriteRepository(application.DB)
	messageRepo := repositories.NewMessageRepository(application.DB)

	// Services
	optimizer := services.NewImageOptimizer(store)
	notifier := services.NewSendgridNotifier(cfg.SendgridAPIKey, cfg.SendgridFromName, cfg.SendgridFromEmail, cfg.SendgridSandboxMode)
	stripeClient := services.NewStripeClient(cfg.StripeSecretKey)

	listingService := services.NewListingService(propertyRepo, imageRepo, locationRepo, viewingRepo, favouriteRepo, optimizer, store)
	searchService := services.NewSearchService(propertyRepo, imageRepo, favouriteRepo)
	viewingService := services.NewViewingService(viewingRepo, propertyRepo, notifier)
	paymentService := services.NewPaymentService(paymentRepo, propertyRepo, viewingRepo, stripeClient,
		cfg.Currency, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	favouriteService := services.NewFavouriteService(favouriteRepo, propertyRepo)
	messageService := services.NewMessageService(messageRepo, propertyRepo)
	locationService := services.NewLocationService(locationRepo, propertyRepo)

	if err := locationService.SeedIfEmpty(context.Background()); err != nil {
		utils.Logger.Fatal("Failed to seed locations:", err)
	}

	// Controllers
	propertyController := controllers.NewPropertyController(searchService, listingService)
	adminPropertyController := controllers.NewAdminPropertyController(listingService)
	viewingController := controllers.NewViewingRequestController(viewingService)
	paymentController := controllers.NewPaymentController(paymentService)
	webhookController := controllers.NewStripeWebhookController(paymentService, cfg.StripeWebhookSecret)
	favouriteController := controllers.NewFavouriteController(favouriteService, searchService)
	messageController := controllers.NewMessageController(messageService)
	locationController := controllers.NewLocationController(locationService)

	auth := middleware.NewAuth(cfg.RSAPublicKey)

	// Router setup
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc(routes.Health, controllers.Health).Methods(http.MethodGet)
	router.HandleFunc(routes.StripeWebhook, webhookController.Handle).Methods(http.MethodPost)
	router.HandleFunc(routes.Locations, locationController.List).Methods(http.MethodGet)
	router.HandleFunc(routes.LocationsPopular, locationController.Popular).Methods(http.MethodGet)
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Root()))))

	// Public reads that personalize when a token is present
	public := router.NewRoute().Subrouter()
	public.Use(auth.Optional)
	public.HandleFunc(routes.Properties, propertyController.Search).Methods(http.MethodGet)
	public.HandleFunc(routes.PropertyByID, propertyController.Details).Methods(http.MethodGet)
	public.HandleFunc(routes.Messages, messageController.Submit).Methods(http.MethodPost)

	// Authenticated tenant routes
	secured := router.NewRoute().Subrouter()
	secured.Use(auth.Require)
	secured.HandleFunc(routes.ViewingRequests, viewingController.Submit).Methods(http.MethodPost)
	secured.HandleFunc(routes.PropertyFavourite, favouriteController.Toggle).Methods(http.MethodPost)
	secured.HandleFunc(routes.Favourites, favouriteController.ListMine).Methods(http.MethodGet)
	secured.HandleFunc(routes.PaymentsCheckout, paymentController.Checkout).Methods(http.MethodPost)
	secured.HandleFunc(routes.PaymentsConfirm, paymentController.Confirm).Methods(http.MethodPost)
	secured.HandleFunc(routes.PaymentsMine, paymentController.ListMine).Methods(http.MethodGet)

	// Admin routes
	admin := router.NewRoute().Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc(routes.AdminProperties, adminPropertyController.Create).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminProperties, adminPropertyController.List).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminPropertyByID, adminPropertyController.Update).Methods(http.MethodPut)
	admin.HandleFunc(routes.AdminPropertyByID, adminPropertyController.Delete).Methods(http.MethodDelete)
	admin.HandleFunc(routes.AdminDashboard, adminPropertyController.Dashboard).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminViewingRequests, viewingController.AdminList).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminViewingRequestByID, viewingController.AdminUpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc(routes.AdminMessages, messageController.AdminList).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminPayments, paymentController.AdminList).Methods(http.MethodGet)

	// Sweep staged upload files whose DB commit never happened.
	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(stagedSweepSpec, func() {
		removed, err := store.SweepStaged(stagedFileMaxAge)
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to sweep staged upload files")
			return
		}
		if removed > 0 {
			utils.Logger.Infof("Swept %d stale staged upload files", removed)
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule staged file sweep cron")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{cfg.AppURL}
	}
	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("listings-service failed to start:", err)
	}
}
