package httpx

import (
	"net/http"
	"time"

	"ebookstore/internal/platform/crypto"

	"github.com/rs/zerolog"
)

// DeviceCookieName holds the signed device token. It plays the role of browser-local storage:
// everything a device has purchased is scoped by the id inside it.
const DeviceCookieName = "ebs_device"

type DeviceOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// DeviceMiddleware resolves the device id from the cookie, issuing a new one when it is missing,
// expired or forged.
func DeviceMiddleware(opts DeviceOptions, logger zerolog.Logger) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = 365 * 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var deviceID string
			if c, err := r.Cookie(DeviceCookieName); err == nil && c.Value != "" {
				if claims, err := crypto.ParseDeviceToken(opts.Secret, c.Value); err == nil {
					deviceID = claims.Device
				} else {
					logger.Debug().Err(err).Str("request_id", RequestIDFrom(r)).Msg("rejecting device cookie")
				}
			}

			if deviceID == "" {
				deviceID = crypto.NewDeviceID()
				token, err := crypto.GenerateDeviceToken(opts.Secret, deviceID, opts.TTL)
				if err != nil {
					JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(ContextWithDevice(r.Context(), deviceID)))
		})
	}
}
