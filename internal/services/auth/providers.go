package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"github.com/magabrotheeeer/saas-starter/internal/config"
)

// SetupProviders регистрирует OAuth-провайдеров, для которых заданы ключи,
// и хранилище состояния OAuth в подписанной cookie. Возвращает имена провайдеров.
func SetupProviders(cfg config.OAuth, baseURL string, secure bool) []string {
	callback := func(provider string) string {
		return baseURL + "/api/v1/auth/" + provider + "/callback"
	}

	var (
		providers []goth.Provider
		names     []string
	)
	if cfg.GitHubClientID != "" {
		providers = append(providers, github.New(cfg.GitHubClientID, cfg.GitHubClientSecret, callback("github"), "user:email"))
		names = append(names, "github")
	}
	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, callback("google"), "email", "profile"))
		names = append(names, "google")
	}
	goth.UseProviders(providers...)

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	return names
}
