package handlers

import (
	"github.com/jmoiron/sqlx"

	"driveshare/internal/cache"
	"driveshare/internal/repos"
	"driveshare/internal/services"
)

type Deps struct {
	AuthHandler    *AuthHandler
	CarHandler     *CarHandler
	BookingHandler *BookingHandler
	UserHandler    *UserHandler
	MessageHandler *MessageHandler
	ReviewHandler  *ReviewHandler
}

func NewDeps(db *sqlx.DB, cc *cache.Client, auth *services.AuthService, payments services.PaymentProvider) *Deps {
	carRepo := repos.NewCarRepo(db)
	bookingRepo := repos.NewBookingRepo(db)
	messageRepo := repos.NewMessageRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	carSvc := services.NewCarService(carRepo, cc)
	bookingSvc := services.NewBookingService(bookingRepo, carRepo, cc, payments)

	return &Deps{
		AuthHandler:    &AuthHandler{Auth: auth},
		CarHandler:     &CarHandler{Cars: carSvc},
		BookingHandler: &BookingHandler{Bookings: bookingSvc, Repo: bookingRepo, Cars: carSvc},
		UserHandler:    &UserHandler{Users: auth.Users, Cache: cc},
		MessageHandler: &MessageHandler{Messages: messageRepo, Cars: carSvc},
		ReviewHandler:  &ReviewHandler{Reviews: reviewRepo, Bookings: bookingRepo, Cache: cc},
	}
}

// BookingService exposes the wired conflict engine for the background sweeper.
func (d *Deps) BookingService() *services.BookingService {
	return d.BookingHandler.Bookings
}
