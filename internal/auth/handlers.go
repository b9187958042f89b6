package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/csipacific/dashboard/internal/auth/sessioncookie"
	"github.com/csipacific/dashboard/internal/storage"
)

type contextKey struct{}

var sessionKey contextKey

// SessionFrom returns the authenticated session attached to the request
// context by RequireSession.
func SessionFrom(ctx context.Context) (storage.Session, bool) {
	session, ok := ctx.Value(sessionKey).(storage.Session)
	return session, ok
}

// sanitizeNext keeps post-login redirects on this site.
func sanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// HandleLogin starts the authorization-code flow with PKCE.
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	verifier := oauth2.GenerateVerifier()
	nonce := uuid.NewString()

	state, err := signState(s.cfg.SecretKey, nonce, now)
	if err != nil {
		s.logger.Printf("sign login state: %v", err)
		http.Error(w, "failed to start login", http.StatusInternalServerError)
		return
	}

	if err := s.store.CreateLoginState(r.Context(), storage.LoginState{
		State:     nonce,
		Verifier:  verifier,
		Redirect:  sanitizeNext(r.URL.Query().Get("next")),
		CreatedAt: now,
		ExpiresAt: now.Add(stateTTL),
	}); err != nil {
		s.logger.Printf("store login state: %v", err)
		http.Error(w, "failed to start login", http.StatusInternalServerError)
		return
	}

	authURL := s.oauthCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback finishes the flow: validates state, exchanges the code,
// resolves the user identity, and mints a session cookie.
func (s *Service) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		s.logger.Printf("authorization denied: %s (%s)", errParam, query.Get("error_description"))
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	now := s.now()
	nonce, err := verifyState(s.cfg.SecretKey, query.Get("state"), now)
	if err != nil {
		s.logger.Printf("reject callback state: %v", err)
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	pending, err := s.store.ConsumeLoginState(r.Context(), nonce)
	if err != nil {
		s.logger.Printf("consume login state: %v", err)
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := s.oauthCfg.Exchange(r.Context(), code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		s.logger.Printf("exchange authorization code: %v", err)
		http.Error(w, "failed to exchange authorization code", http.StatusBadGateway)
		return
	}

	session := storage.Session{
		ID:           uuid.NewString(),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry.UTC(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(sessionTTL),
	}

	// The identity lookup is best effort; the navbar just shows a label.
	if s.identity != nil {
		if me, err := s.identity.Me(r.Context(), token.AccessToken); err != nil {
			s.logger.Printf("fetch identity: %v", err)
		} else {
			session.UserLabel = me.Label()
			session.UserEmail = me.Email
		}
	}

	if err := s.store.CreateSession(r.Context(), session); err != nil {
		s.logger.Printf("store session: %v", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	sessioncookie.Write(w, r, session.ID)
	http.Redirect(w, r, sanitizeNext(pending.Redirect), http.StatusFound)
}

// HandleLogout removes the session and clears the cookie.
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := sessioncookie.Read(r); ok {
		if err := s.store.DeleteSession(r.Context(), id); err != nil {
			s.logger.Printf("delete session: %v", err)
		}
	}
	sessioncookie.Clear(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// RequireSession loads the session named by the cookie and attaches it to the
// request context, redirecting browsers to /login when absent or expired.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessioncookie.Read(r)
		if !ok {
			s.redirectToLogin(w, r)
			return
		}
		session, err := s.store.GetSession(r.Context(), id)
		if err != nil {
			sessioncookie.Clear(w, r)
			s.redirectToLogin(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if next := sanitizeNext(r.URL.RequestURI()); next != "/" {
		target += "?next=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusFound)
}
