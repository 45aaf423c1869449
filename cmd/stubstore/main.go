// Command stubstore runs an in-memory Kollab API for local development.
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/auth"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	authenticate := buildAuthenticator()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	register(e, newMemStore(), authenticate, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func buildAuthenticator() authFunc {
	if strings.ToLower(os.Getenv("AUTH_MODE")) != "hs256" {
		// Unauthenticated mode for local development. A bearer token, when
		// present, is taken verbatim as the caller id.
		return func(header string) (string, error) {
			token, err := auth.BearerToken(header)
			if err != nil {
				return "local-user", nil
			}
			return token, nil
		}
	}
	verifier := auth.NewVerifier(nil, "", "")
	return verifier.UserIDFromAuthHeader
}
