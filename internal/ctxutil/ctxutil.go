package ctxutil

import (
	"context"
	"time"

	"github.com/Spok95/teacher-kpi/internal/models"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyPrincipal key = iota
	keyOpName
)

// Principal: кто выполняет запрос. Передаётся явно через контекст каждого запроса.
type Principal struct {
	UserID   int64
	Role     models.Role
	SchoolID *int64
}

// CanSeeSchool reports whether the principal may read data of schoolID.
func (p Principal) CanSeeSchool(schoolID int64) bool {
	if p.Role == models.Admin {
		return true
	}
	return p.SchoolID != nil && *p.SchoolID == schoolID
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(Principal)
	return p, ok
}

// WithOp /Op: имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keyOpName).(string)
	return s, ok
}

// DefaultDBTimeout переопределяется из конфига (DB_TIMEOUT) при старте.
var DefaultDBTimeout = 5 * time.Second

// WithTimeout: удобная обёртка над context.WithTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout: стандартный таймаут для БД.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		// если у родителя осталось меньше DefaultDBTimeout, берем остаток
		if remain := time.Until(dl); remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
