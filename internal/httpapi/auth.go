package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
)

// Claims: токен выдаёт внешний сервис авторизации; в sub лежит id пользователя.
type Claims struct {
	Role     string `json:"role"`
	SchoolID *int64 `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct{ hmac []byte }

func NewAuthenticator(secret string) *Authenticator { return &Authenticator{hmac: []byte(secret)} }

// Issue signs a token for p. Used by tests and local tooling.
func (a *Authenticator) Issue(p ctxutil.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:     string(p.Role),
		SchoolID: p.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.hmac)
}

// Parse проверяет подпись и срок и собирает Principal.
func (a *Authenticator) Parse(tokenStr string) (ctxutil.Principal, error) {
	var c Claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ctxutil.Principal{}, err
	}
	if !token.Valid {
		return ctxutil.Principal{}, errors.New("invalid token")
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return ctxutil.Principal{}, fmt.Errorf("bad subject %q", c.Subject)
	}
	role := models.Role(c.Role)
	if !role.Valid() {
		return ctxutil.Principal{}, fmt.Errorf("bad role %q", c.Role)
	}
	if role != models.Admin && c.SchoolID == nil {
		return ctxutil.Principal{}, fmt.Errorf("role %s without school", role)
	}
	return ctxutil.Principal{UserID: id, Role: role, SchoolID: c.SchoolID}, nil
}

// Middleware puts the bearer token's principal into the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		p, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "bad token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxutil.WithPrincipal(r.Context(), p)))
	})
}

// requireRole делает грубую проверку роли до хендлера; проверки «своя школа / сам учитель»
// делает сервис.
func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := ctxutil.PrincipalFrom(r.Context())
			if ok {
				for _, role := range roles {
					if p.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			writeMessage(w, http.StatusForbidden, "forbidden")
		})
	}
}
