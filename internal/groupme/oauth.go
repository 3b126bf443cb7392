package groupme

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/edgard/groupmebot/internal/config"
	errs "github.com/edgard/groupmebot/internal/errors"
)

// OAuth builds the admin authorization link and exchanges callback codes
// for access tokens.
type OAuth struct {
	cfg  *oauth2.Config
	http *http.Client
}

// NewOAuth creates the OAuth helper from the platform settings.
func NewOAuth(cfg config.GroupMeConfig) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   strings.TrimRight(cfg.OAuthURL, "/") + "/oauth/authorize",
				TokenURL:  strings.TrimRight(cfg.APIURL, "/") + "/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// AuthorizeURL returns the link an admin opens to authorize the bot. It
// carries the client id and redirect URI.
func (o *OAuth) AuthorizeURL() string {
	return o.cfg.AuthCodeURL("")
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.http)

	token, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", errs.NewUpstreamCallFailed(
				fmt.Sprintf("token exchange returned %d", retrieveErr.Response.StatusCode),
				fmt.Errorf("%s", strings.TrimSpace(string(retrieveErr.Body))))
		}
		return "", errs.NewUpstreamCallFailed("token exchange failed", err)
	}

	if token.AccessToken == "" {
		return "", errs.NewUpstreamCallFailed("token exchange returned no access token", nil)
	}
	return token.AccessToken, nil
}
