package handlers

import (
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/store"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger
var st *store.Store
var cfg *models.ConfigFile

func Setup(_cfg *models.ConfigFile, _sugar *zap.SugaredLogger, _st *store.Store) {
	cfg = _cfg
	sugar = _sugar
	st = _st
}

func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.BehindNginx {
		r.Use(middleware.RealIP)
	}
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}

	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Route("/auth", func(r chi.Router) {
			r.Post("/login", Login)
			r.Post("/register", Register)
			r.With(UserVerifier).Get("/newSession", NewSession)
			r.With(UserVerifier).Get("/isLoggedIn", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})

		api.Route("/user", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Get("/fetch", GetUserInfo)
			r.Post("/delete", DeleteUser)
		})

		api.Route("/category", func(r chi.Router) {
			r.Use(UserVerifier)
			r.With(WithSession).Get("/fetch", GetCategoryList)
			r.With(AdminVerifier).Post("/create", CreateCategory)
			r.With(AdminVerifier).Post("/update", UpdateCategory)
			r.With(AdminVerifier).Post("/delete", DeleteCategory)
		})

		api.Route("/server", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/create", CreateServer)
			r.With(WithSession).Get("/fetch", GetServerList)
			r.Post("/update", UpdateServer)
			r.Post("/delete", DeleteServer)
		})

		api.Route("/members", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/join", JoinServer)
			r.Post("/leave", LeaveServer)
			r.Get("/fetch", GetMemberList)
		})

		api.Route("/channel", func(r chi.Router) {
			r.Use(UserVerifier)
			r.Post("/create", CreateChannel)
			r.With(WithSession).Get("/fetch", GetChannelList)
			r.Post("/update", UpdateChannel)
			r.Post("/delete", DeleteChannel)
		})
	})

	var websocketPath string

	if cfg.BehindNginx {
		websocketPath = "/ws/"
	} else {
		websocketPath = "/ws"
		r.Handle("/cdn/*", http.StripPrefix("/cdn/", http.FileServer(http.Dir(cfg.UploadRoot))))
	}

	r.With(UserVerifier).Get(websocketPath, HandleWebSocket)

	return r
}

func ListenAndServe(isHttps bool, handler http.Handler) error {
	address := fmt.Sprintf("%s:%s", cfg.Address, cfg.Port)

	if isHttps {
		return http.ListenAndServeTLS(address, cfg.TlsCert, cfg.TlsKey, handler)
	}
	return http.ListenAndServe(address, handler)
}
