package handlers

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Users     *UserHandler
	Providers *ProviderHandler
	Bookings  *BookingHandler
	Payments  *PaymentWebhookHandler
	Admin     *AdminHandler
}
