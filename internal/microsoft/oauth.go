package microsoft

import (
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const defaultTenant = "common"

// Scopes requested for calendar read and write access.
var Scopes = []string{"offline_access", "Calendars.ReadWrite"}

// Credentials identifies the Entra ID application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Tenant       string
	RedirectURL  string
}

// OAuthConfig returns the OAuth2 config for Graph.
func OAuthConfig(creds Credentials) (*oauth2.Config, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("MICROSOFT_CLIENT_ID is not set")
	}
	tenant := creds.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	redirect := creds.RedirectURL
	if redirect == "" {
		redirect = "http://localhost"
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       Scopes,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
	}, nil
}
