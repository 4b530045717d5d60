package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/context"
)

const (
	// HeaderUserID is the header key for the admin portal user ID
	HeaderUserID = "X-User-ID"
	// HeaderParticipantID is the header key for the participant site identity
	HeaderParticipantID = "X-Participant-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetUserID(ctx, req.Header.Get(HeaderUserID))
			ctx = context.SetParticipantID(ctx, req.Header.Get(HeaderParticipantID))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
