package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ScopeSheets lets the catalog source read tabs and create missing ones
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

const (
	CallbackPort = 3000
	callbackPath = "/oauth/callback"
	flowTimeout  = 5 * time.Minute
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// RedirectURL is where the browser flow sends the authorization code
func RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d%s", CallbackPort, callbackPath)
}

// TokenStore keeps one token file per environment in Dir
type TokenStore struct {
	Dir string
}

// HomeTokenStore stores tokens under ~/.ninebox/tokens
func HomeTokenStore() (*TokenStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(home, ".ninebox", "tokens")}, nil
}

func (s *TokenStore) file(env string) string {
	return filepath.Join(s.Dir, env+".json")
}

// Load returns nil without error when env has no token yet
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.file(env))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	tok := new(oauth2.Token)
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return tok, nil
}

func (s *TokenStore) Save(env string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	return os.WriteFile(s.file(env), data, 0o600)
}

func (s *TokenStore) Delete(env string) error {
	err := os.Remove(s.file(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Authorizer hands out Google tokens for one OAuth client, caching them per
// environment and falling back to a browser consent flow.
type Authorizer struct {
	Config *oauth2.Config
	Tokens *TokenStore
	Logger *zap.Logger

	// scopes reports the scopes granted to a token; nil uses Google's tokeninfo endpoint
	scopes func(ctx context.Context, tok *oauth2.Token) ([]string, error)

	mu    sync.Mutex
	cache map[string]*oauth2.Token
}

func NewAuthorizer(cfg *oauth2.Config, tokens *TokenStore, logger *zap.Logger) *Authorizer {
	return &Authorizer{Config: cfg, Tokens: tokens, Logger: logger, cache: map[string]*oauth2.Token{}}
}

// Token returns a usable token for env. Only one browser flow runs at a time.
func (a *Authorizer) Token(ctx context.Context, env string) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tok := a.cache[env]; tok.Valid() {
		return tok, nil
	}

	tok, err := a.fromStore(ctx, env)
	if err != nil {
		a.Logger.Warn("Stored token unusable", zap.String("env", env), zap.Error(err))
	}
	if tok == nil {
		a.Logger.Info("No usable token, starting browser authorization")
		if tok, err = a.consent(ctx); err != nil {
			return nil, err
		}
		if err := a.Tokens.Save(env, tok); err != nil {
			a.Logger.Warn("Failed to save token", zap.Error(err))
		}
	}

	a.cache[env] = tok
	return tok, nil
}

// fromStore loads the saved token, refreshing it when expired. A token
// lacking a required scope is deleted so the next call asks for consent.
func (a *Authorizer) fromStore(ctx context.Context, env string) (*oauth2.Token, error) {
	saved, err := a.Tokens.Load(env)
	if err != nil || saved == nil {
		return nil, err
	}

	tok := saved
	if !saved.Valid() {
		if saved.RefreshToken == "" {
			return nil, nil
		}
		if tok, err = a.Config.TokenSource(ctx, saved).Token(); err != nil {
			return nil, fmt.Errorf("refresh failed: %w", err)
		}
	}

	if err := a.checkScopes(ctx, tok); err != nil {
		if derr := a.Tokens.Delete(env); derr != nil {
			a.Logger.Warn("Failed to delete token", zap.Error(derr))
		}
		return nil, err
	}

	if tok.AccessToken != saved.AccessToken {
		a.Logger.Info("Token refreshed")
		if err := a.Tokens.Save(env, tok); err != nil {
			a.Logger.Warn("Failed to save refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}

func (a *Authorizer) checkScopes(ctx context.Context, tok *oauth2.Token) error {
	lookup := a.scopes
	if lookup == nil {
		lookup = tokenInfoScopes
	}
	granted, err := lookup(ctx, tok)
	if err != nil {
		return err
	}
	var missing []string
	for _, s := range a.Config.Scopes {
		if !slices.Contains(granted, s) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("token is missing scopes %s", strings.Join(missing, ", "))
	}
	return nil
}

func tokenInfoScopes(ctx context.Context, tok *oauth2.Token) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("access_token", tok.AccessToken)
	req.URL.RawQuery = q.Encode()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tokeninfo returned %s: %s", resp.Status, body)
	}

	var info struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("tokeninfo: %w", err)
	}
	return strings.Fields(info.Scope), nil
}

// consent prints the authorization URL and waits on the local callback for the code
func (a *Authorizer) consent(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, flowTimeout)
	defer cancel()

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for oauth callback: %w", err)
	}

	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state || q.Get("code") == "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			select {
			case errs <- errors.New("callback without a matching state and code"):
			default:
			}
			return
		}
		fmt.Fprint(w, "Authorization complete. You can close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	fmt.Printf("\nOpen this URL to authorize ninebox:\n%s\n\n", a.Config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codes:
		tok, err := a.Config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		if err := a.checkScopes(ctx, tok); err != nil {
			return nil, err
		}
		return tok, nil
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}
