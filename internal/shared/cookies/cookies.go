package cookies

import (
	"net/http"
	"net/url"
	"strings"

	"colony-server/internal/shared/config"
)

// ColonyTokenName is the cookie carrying the colony access token.
const ColonyTokenName = "colony_token"

func SetColonyCookie(w http.ResponseWriter, cfg *config.Config, token string) {
	cookie := createColonyCookie(cfg)
	cookie.Value = token
	cookie.MaxAge = int(cfg.Auth.TokenExpiration.Seconds())

	http.SetCookie(w, cookie)
}

func ClearColonyCookie(w http.ResponseWriter, cfg *config.Config) {
	cookie := createColonyCookie(cfg)
	cookie.Value = ""
	cookie.MaxAge = -1

	http.SetCookie(w, cookie)
}

func createColonyCookie(cfg *config.Config) *http.Cookie {
	return &http.Cookie{
		Name:     ColonyTokenName,
		Path:     "/api/colonies",
		Domain:   extractDomain(cfg.Frontend.URL),
		HttpOnly: true,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: parseSameSite(cfg.Auth.CookieSameSite),
	}
}

func extractDomain(frontendURL string) string {
	parsedURL, err := url.Parse(frontendURL)
	if err != nil || parsedURL.Host == "" {
		return ""
	}

	host := strings.Split(parsedURL.Host, ":")[0]
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}

	return host
}

func parseSameSite(sameSiteStr string) http.SameSite {
	switch sameSiteStr {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
