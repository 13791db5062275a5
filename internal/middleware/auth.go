// Package middleware provides the gin middlewares shared by all routes.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/pkg/tokenpkg"
	"github.com/go-petr/pet-finance/pkg/web"
)

// Authorization header keys and values.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

// Authorization errors returned to the client.
var (
	ErrAuthHeaderNotFound  = errors.New("authorization header is not provided")
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
	ErrForbidden           = errors.New("permission denied")
)

// AddAuthorization creates a token for the user and sets it into the request header.
func AddAuthorization(
	request *http.Request,
	tokenMaker tokenpkg.Maker,
	authorizationType string,
	userID int32,
	role string,
	duration time.Duration,
) error {
	token, _, err := tokenMaker.CreateToken(userID, role, duration)
	if err != nil {
		return err
	}

	authorizationHeader := fmt.Sprintf("%s %s", authorizationType, token)
	request.Header.Set(AuthHeaderKey, authorizationHeader)

	return nil
}

// AuthMiddleware verifies the bearer token and stores its payload under AuthPayloadKey.
func AuthMiddleware(tokenMaker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		l := zerolog.Ctx(gctx.Request.Context())

		authorizationHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authorizationHeader) == 0 {
			l.Info().Err(ErrAuthHeaderNotFound).Send()
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))

			return
		}

		fields := strings.Fields(authorizationHeader)
		if len(fields) < 2 {
			l.Info().Err(ErrBadAuthHeaderFormat).Send()
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))

			return
		}

		authorizationType := strings.ToLower(fields[0])
		if authorizationType != AuthTypeBearer {
			l.Info().Err(ErrUnsupportedAuthType).Str("type", authorizationType).Send()
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))

			return
		}

		payload, err := tokenMaker.VerifyToken(fields[1])
		if err != nil {
			l.Info().Err(err).Send()
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))

			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// RequireRole lets through only requests whose token carries one of roles.
//
// It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		payload := Payload(gctx)

		for _, role := range roles {
			if payload != nil && payload.Role == role {
				gctx.Next()
				return
			}
		}

		zerolog.Ctx(gctx.Request.Context()).Info().Err(ErrForbidden).Send()
		gctx.AbortWithStatusJSON(http.StatusForbidden, web.Error(ErrForbidden))
	}
}

// Payload returns the token payload stored by AuthMiddleware or nil.
func Payload(gctx *gin.Context) *tokenpkg.Payload {
	v, ok := gctx.Get(AuthPayloadKey)
	if !ok {
		return nil
	}

	payload, _ := v.(*tokenpkg.Payload)

	return payload
}
