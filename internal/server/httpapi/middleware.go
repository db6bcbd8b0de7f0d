package httpapi

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/auth"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

// accessTokenMiddleware admits requests carrying a valid admin bearer token
// and stores the caller as the request principal.
func (s *HTTPServer) accessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, common.BearerPrefix), s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "token expired")
				return
			}
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if claims.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}

		ctx := auth.WithPrincipal(r.Context(), auth.Principal{
			UserID:    claims.UserID,
			Role:      claims.Role,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
