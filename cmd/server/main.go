package main

import (
	"bookit/internal/bookings/events"
	bookingshandler "bookit/internal/bookings/handler"
	bookingsrepo "bookit/internal/bookings/repository"
	bookingsservice "bookit/internal/bookings/service"
	"bookit/internal/bookings/validator"
	experienceshandler "bookit/internal/experiences/handler"
	experiencesrepo "bookit/internal/experiences/repository"
	experiencesservice "bookit/internal/experiences/service"
	inventoryrepo "bookit/internal/inventory/repository"
	promoshandler "bookit/internal/promos/handler"
	promosrepo "bookit/internal/promos/repository"
	promosservice "bookit/internal/promos/service"
	"bookit/pkg/app"
	"bookit/pkg/config"
)

const ServiceName = "bookit-server"

func main() {
	cfg := config.Load(ServiceName)

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting BookIt server")

	experienceRepo := experiencesrepo.NewMongoExperienceRepository(cfg)
	experienceService := experiencesservice.NewExperienceService(experienceRepo, cfg)

	promoRepo := promosrepo.NewMongoPromoRepository(cfg)
	promoService := promosservice.NewPromoService(promoRepo, cfg)

	inventoryRepo := inventoryrepo.NewMongoInventoryRepository(cfg)

	publisher, err := events.NewPublisher(cfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking event publisher", "error", err)
	}

	bookingValidator := validator.NewBookingValidator(cfg, cfg.Log)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		experienceRepo,
		inventoryRepo,
		promoService,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg,
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		experienceshandler.NewExperienceHandler(experienceService, cfg.Log),
		promoshandler.NewPromoHandler(promoService, cfg.Log),
	)
	serverApp.OnShutdown(publisher.Close)
	serverApp.Run()
}
