package config

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// GoogleClient is the installed-app OAuth client file downloaded from the
// Google cloud console. Only the sheets catalog source reads it.
type GoogleClient struct {
	Installed GoogleInstalledApp `json:"installed" validate:"required"`
}

type GoogleInstalledApp struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret" validate:"required"`
	ProjectID    string   `json:"project_id"`
	AuthURI      string   `json:"auth_uri" validate:"required,url"`
	TokenURI     string   `json:"token_uri" validate:"required,url"`
	RedirectURIs []string `json:"redirect_uris" validate:"omitempty,dive,uri"`
}

// LoadGoogleClient finds ninebox_oauth.<env>.json, or ninebox_oauth.json when env is empty
func LoadGoogleClient(env string) (*GoogleClient, error) {
	name := "ninebox_oauth.json"
	if env != "" {
		name = fmt.Sprintf("ninebox_oauth.%s.json", env)
	}
	path, err := findFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}
	return ReadGoogleClient(path)
}

func ReadGoogleClient(path string) (*GoogleClient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open oauth client file: %w", err)
	}
	defer f.Close()

	var c GoogleClient
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file %s: %w", path, err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid oauth client file %s: %w", path, err)
	}
	return &c, nil
}

// OAuth2 builds the oauth2 config for a local redirect and the given scopes
func (c *GoogleClient) OAuth2(redirectURL string, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.Installed.ClientID,
		ClientSecret: c.Installed.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.Installed.AuthURI,
			TokenURL: c.Installed.TokenURI,
		},
		RedirectURL: redirectURL,
		Scopes:      scopes,
	}
}
