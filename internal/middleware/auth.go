package middleware

import (
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/labstack/echo/v4"
)

// UserKey stores the authenticated *User in the echo context.
const UserKey = "user"

// User is the authenticated caller.
type User struct {
	ID          string
	Role        string
	Permissions []string
}

// HasPermission reports whether the user holds perm in the active organization.
func (u *User) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func SetUser(c echo.Context, u *User) {
	c.Set(UserKey, u)
}

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(c echo.Context) *User {
	u, _ := c.Get(UserKey).(*User)
	return u
}

func GetUserID(c echo.Context) string {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return ""
}

type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{server: s}
}

// AttachUser verifies a Clerk bearer token when one is present and stores the
// resulting User. It never rejects: requests without a valid token continue
// anonymously and routes decide through their access checks.
func (auth *AuthMiddleware) AttachUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var err error

			proceed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if claims, ok := clerk.SessionClaimsFromContext(r.Context()); ok {
					SetUser(c, userFromClaims(claims))
				}
				err = next(c)
			})

			invalid := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth.server.Logger.Debug().
					Str("function", "AttachUser").
					Str("request_id", GetRequestID(c)).
					Msg("invalid session token, continuing anonymously")
				err = next(c)
			})

			clerkhttp.WithHeaderAuthorization(
				clerkhttp.AuthorizationFailureHandler(invalid),
			)(proceed).ServeHTTP(c.Response(), c.Request())

			return err
		}
	}
}

func userFromClaims(claims *clerk.SessionClaims) *User {
	return &User{
		ID:          claims.Subject,
		Role:        claims.ActiveOrganizationRole,
		Permissions: claims.Claims.ActiveOrganizationPermissions,
	}
}
