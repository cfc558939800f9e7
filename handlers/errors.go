package handlers

import (
	"errors"
	"net/http"

	"appointly/services/booking"
	"appointly/services/provider"
	"appointly/services/user"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var bookingStatus = map[booking.ErrorKind]int{
	booking.KindValidation:        http.StatusBadRequest,
	booking.KindNotFound:          http.StatusNotFound,
	booking.KindForbidden:         http.StatusForbidden,
	booking.KindConflict:          http.StatusConflict,
	booking.KindInvalidTransition: http.StatusConflict,
	booking.KindPolicyViolation:   http.StatusUnprocessableEntity,
	booking.KindPayment:           http.StatusPaymentRequired,
}

var sentinelStatus = []struct {
	err    error
	status int
	code   string
}{
	{user.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{user.ErrPhoneNotVerified, http.StatusForbidden, "phone_not_verified"},
	{user.ErrAlreadyVerified, http.StatusConflict, "already_verified"},
	{user.ErrInvalidOTP, http.StatusBadRequest, "invalid_otp"},
	{user.ErrOTPDelivery, http.StatusBadGateway, "otp_delivery_failed"},
	{user.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{provider.ErrProviderNotFound, http.StatusNotFound, "provider_not_found"},
	{provider.ErrAlreadyRegistered, http.StatusConflict, "provider_exists"},
	{provider.ErrOwnerNotFound, http.StatusNotFound, "user_not_found"},
	{provider.ErrInvalidInput, http.StatusBadRequest, "validation_failed"},
	{provider.ErrBlockedDateAbsent, http.StatusNotFound, "date_not_blocked"},
	{provider.ErrStorageDisabled, http.StatusServiceUnavailable, "storage_disabled"},
}

// respondError writes err as a JSON error with the matching status code.
// Anything unrecognised is a 500 and its details stay in the log.
func respondError(c *gin.Context, err error) {
	var be *booking.Error
	if errors.As(err, &be) {
		status, ok := bookingStatus[be.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		utils.JSONCodedError(c, status, be.Code, be.Message, "")
		return
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			utils.JSONCodedError(c, s.status, s.code, err.Error(), "")
			return
		}
	}

	getLogger(c).Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
}

func badRequest(c *gin.Context, err error) {
	utils.JSONCodedError(c, http.StatusBadRequest, "invalid_request", "Invalid request", err.Error())
}
