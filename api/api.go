package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"mellivora/fund"
	"mellivora/jobs"
	"mellivora/navsync"
	"mellivora/store"
)

var tokenAuth *jwtauth.JWTAuth

func init() {
	middleware.DefaultLogger = middleware.RequestLogger(&LogFormatter{})
}

func RunServer(st *store.Store) {

	tokenAuth = jwtauth.New("HS256", []byte(viper.GetString("jwt.secret")), nil)

	jobs.Init(st.DB())
	navsync.Register(st.DB(), viper.GetString("sync.base_url"))

	if viper.GetBool("jobs.enable") {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		jobs.Scheduler.Start(ctx)
		log.Info().Msg("Jobs are enabled. Scheduler started.")
	} else {
		log.Info().Msg("Jobs are disabled. Set jobs.enable to true to enable job scheduling.")
	}

	service := fund.NewService(st)
	fundHandlers := NewFundHandlers(service)
	jobHandlers := NewHTTPHandlers(st.DB())
	adminHandlers := NewAdminHandlers()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{viper.GetString("server.origins")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	r.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/jobs/upcoming", jobHandlers.GetUpcomingJobs)
		r.Get("/jobs/completed", jobHandlers.GetCompletedJobs)

		r.Get("/funds", fundHandlers.LookupFunds)
		r.Get("/fund/{code}/nav", fundHandlers.GetFundNav)
		r.Post("/funds/compare", fundHandlers.CompareFunds)
	})

	r.Group(func(r chi.Router) {
		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			userName := r.PostForm.Get("username")
			userPassword := r.PostForm.Get("password")

			if userName == "" || userPassword == "" {
				http.Error(w, "Missing username or password.", http.StatusBadRequest)
				return
			}
			if userName != viper.GetString("admin.username") || userPassword != viper.GetString("admin.password") {
				http.Error(w, "invalid username or password.", http.StatusBadRequest)
				return
			}

			token := MakeToken(userName)

			http.SetCookie(w, &http.Cookie{
				HttpOnly: true,
				Expires:  time.Now().Add(7 * 24 * time.Hour),
				SameSite: http.SameSiteLaxMode,
				Path:     "/",
				// Uncomment below for HTTPS:
				// Secure: true,
				Name:  "jwt", // Must be named "jwt" or else the token cannot be searched for by jwtauth.Verifier.
				Value: token,
			})

			body := make(map[string]string)
			body["token"] = token
			err := json.NewEncoder(w).Encode(body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))

		r.Post("/admin/action/sync", adminHandlers.TriggerProfileSync)
		r.Post("/admin/fund/{code}/action/sync", adminHandlers.TriggerNavSync)
	})

	log.Info().Str("port", viper.GetString("server.port")).Msg("Starting server")
	if err := http.ListenAndServe(fmt.Sprintf(":%s", viper.GetString("server.port")), r); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func MakeToken(name string) string {
	_, tokenString, _ := tokenAuth.Encode(map[string]interface{}{"username": name})
	return tokenString
}
