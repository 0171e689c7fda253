package app

import (
	httpMW "github.com/yungbote/courseguide-backend/internal/http/middleware"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

type Middleware struct {
	Identity *httpMW.IdentityMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{Identity: httpMW.NewIdentityMiddleware(log, cfg.JWTSecret)}
	if !mw.Identity.Enabled() {
		log.Warn("AUTH_JWT_SECRET unset; userId is trusted as sent")
	}
	return mw
}
