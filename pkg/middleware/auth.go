package middleware

import (
	"strings"

	"github.com/ghseeli/service-booking/pkg/auth"
	"github.com/ghseeli/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Headers set by the API gateway once it has authenticated the caller.
const (
	UserIDHeader    = "X-User-ID"
	CompanyIDHeader = "X-Company-ID"
)

const principalKey = "principal"

// AuthMiddleware resolves the caller. A bearer token is verified when jwtManager is set;
// otherwise the gateway headers are trusted. Requests without a principal get 401.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			principal *auth.Principal
			err       error
		)

		if header := c.GetHeader("Authorization"); jwtManager != nil && header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				response.Unauthorized(c, "invalid authorization header format")
				return
			}
			principal, err = jwtManager.ValidateToken(token)
		} else {
			principal, err = principalFromHeaders(c)
		}
		if err != nil || principal == nil {
			response.Unauthorized(c, "unauthorized")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireCompany rejects principals that do not act for a company.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCompanyID(c); !ok {
			response.NotFound(c)
			return
		}
		c.Next()
	}
}

func principalFromHeaders(c *gin.Context) (*auth.Principal, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil, auth.ErrMissingClaim
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	p := &auth.Principal{UserID: userID, Role: auth.RoleCustomer}
	if raw := c.GetHeader(CompanyIDHeader); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return nil, auth.ErrInvalidToken
		}
		p.CompanyID = &companyID
		p.Role = auth.RoleCompany
	}
	return p, nil
}

// GetPrincipal returns the caller resolved by AuthMiddleware.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}

// GetUserID returns the caller's user id.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		return uuid.Nil, false
	}
	return p.UserID, true
}

// GetCompanyID returns the company the caller acts for, if any.
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(c)
	if !ok || p.CompanyID == nil {
		return uuid.Nil, false
	}
	return *p.CompanyID, true
}
