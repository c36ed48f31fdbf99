package handler

import (
	"foodshare/internal/domain/service"
	"foodshare/internal/usecase"
)

var (
	listingHandler      *ListingHandler
	messageHandler      *MessageHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
	uploadHandler       *UploadHandler
	geocodeHandler      *GeocodeHandler
)

func Setup(
	listingUseCase *usecase.ListingUseCase,
	messageUseCase *usecase.MessageUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	userUseCase *usecase.UserUseCase,
	defaultRadiusKm float64,
) {
	listingHandler = NewListingHandler(listingUseCase, defaultRadiusKm)
	messageHandler = NewMessageHandler(messageUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	userHandler = NewUserHandler(userUseCase)
}

// SetupUploadHandler is only called when a blob store is configured.
func SetupUploadHandler(blobs service.BlobStore) {
	uploadHandler = NewUploadHandler(blobs)
}

// SetupGeocodeHandler is only called when a geocoder is configured.
func SetupGeocodeHandler(geocoder service.Geocoder) {
	geocodeHandler = NewGeocodeHandler(geocoder)
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetMessageHandler() *MessageHandler {
	return messageHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

func GetGeocodeHandler() *GeocodeHandler {
	return geocodeHandler
}
