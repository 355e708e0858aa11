package router

import (
	"go-ledger-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))

	// Ledger routes require a valid access token.
	mux.Handle("POST /accounts", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.CreateAccount)))
	mux.Handle("GET /accounts/{id}", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.GetAccount)))
	mux.Handle("POST /accounts/{id}/deposit", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.Deposit)))
	mux.Handle("POST /accounts/{id}/transfer", handler.AuthMiddleware(handler.ErrorHandlingMiddleware(accountHandler.Transfer)))

	return mux
}
