package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
)

type principalKey struct{}

// PrincipalResolver turns an Authorization header into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, authorization string) (auth.Principal, error)
}

// AuthFailureRecorder is notified of every rejected request.
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// MustPrincipal returns the resolved principal and panics when Authenticate has not run.
func MustPrincipal(ctx context.Context) auth.Principal {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		panic("middleware: no principal in context; Authenticate must run first")
	}
	return p
}

// Authenticate resolves the bearer token and attaches the principal to the request.
func Authenticate(resolver PrincipalResolver, log *logrus.Entry, rec AuthFailureRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				reason := ""
				if e, ok := apperr.As(err); ok {
					reason = e.Reason
				}
				if rec != nil {
					rec.RecordAuthFailure(reason)
				}
				entry := logging.FromContext(r.Context(), log).WithFields(logrus.Fields{
					"reason": reason,
					"path":   r.URL.Path,
				})
				if reason == auth.ReasonFailed {
					entry.WithError(err).Error("authentication failed")
				} else {
					entry.Warn("request rejected")
				}
				respond.Error(w, r, log, err)
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx, log).WithField("user_id", p.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when the principal has one of the
// allowed roles. It must be mounted after Authenticate.
func RequireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := MustPrincipal(r.Context())
			if !auth.CheckRole(p, allowed...) {
				respond.Error(w, r, nil, auth.ErrNotPermitted)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
