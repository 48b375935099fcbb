// package auth stores AniList OAuth credentials and produces the verified
// access tokens that list mutations require.
//
// AniList does not support refresh-token exchange; it issues year-long access
// tokens instead, so the store keeps one access token per user. Every token
// is verified against the account it claims to belong to before use, because
// writing someone's list with a token for the wrong account is the one
// mistake this tool must never make.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"anisync/internal/anilist"
	"anisync/internal/shared"
)

const (
	authorizeURL = "https://anilist.co/api/v2/oauth/authorize"
	tokenURL     = "https://anilist.co/api/v2/oauth/token"
)

// DefaultStorePath returns ~/.anisync/tokens.json, the token store location
// used when the config does not name one.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".anisync", "tokens.json"), nil
}

// ValidateCredentials checks the shape of user-supplied OAuth client
// credentials: AniList client ids are numeric and secrets alphanumeric.
func ValidateCredentials(clientID, clientSecret string) error {
	if clientID == "" {
		return fmt.Errorf("%w: client id is empty", shared.ErrInvalidCredentials)
	}
	for _, r := range clientID {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: client id should be a number, without quotes", shared.ErrInvalidCredentials)
		}
	}

	if clientSecret == "" {
		return fmt.Errorf("%w: client secret is empty", shared.ErrInvalidCredentials)
	}
	for _, r := range clientSecret {
		isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlnum {
			return fmt.Errorf("%w: client secret should be alphanumeric, without quotes", shared.ErrInvalidCredentials)
		}
	}

	return nil
}

type userTokens struct {
	AccessToken string `json:"access_token"`
}

type storeData struct {
	ClientID     string                `json:"client_id"`
	ClientSecret string                `json:"client_secret"`
	Users        map[string]userTokens `json:"users"`
}

// Store is the on-disk credential file: the OAuth client pair plus one
// access token per authorized user. Saved with 0600 permissions.
type Store struct {
	path string
	data storeData
}

// OpenStore loads the token store at path. A missing file yields an empty
// store; a file that exists but cannot be parsed is an error, since silently
// discarding saved credentials would force every user back through the
// authorization flow.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, data: storeData{Users: map[string]userTokens{}}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: token store %s: %v", shared.ErrInvalidConfig, path, err)
	}
	if s.data.Users == nil {
		s.data.Users = map[string]userTokens{}
	}

	return s, nil
}

// Path returns the file this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Credentials returns the stored OAuth client pair, either part possibly empty.
func (s *Store) Credentials() (clientID, clientSecret string) {
	return s.data.ClientID, s.data.ClientSecret
}

// SetCredentials replaces the stored OAuth client pair.
func (s *Store) SetCredentials(clientID, clientSecret string) {
	s.data.ClientID = clientID
	s.data.ClientSecret = clientSecret
}

// Token returns the stored access token for username, matching the store key
// case-insensitively the way AniList treats account names.
func (s *Store) Token(username string) (string, bool) {
	if u, ok := s.data.Users[username]; ok && u.AccessToken != "" {
		return u.AccessToken, true
	}
	for name, u := range s.data.Users {
		if strings.EqualFold(name, username) && u.AccessToken != "" {
			return u.AccessToken, true
		}
	}
	return "", false
}

// SetToken stores an access token for username.
func (s *Store) SetToken(username, token string) {
	s.data.Users[username] = userTokens{AccessToken: token}
}

// DeleteToken removes username's token, matching case-insensitively.
// Returns whether a token was removed.
func (s *Store) DeleteToken(username string) bool {
	for name := range s.data.Users {
		if strings.EqualFold(name, username) {
			delete(s.data.Users, name)
			return true
		}
	}
	return false
}

// Users lists every account with a stored token, sorted.
func (s *Store) Users() []string {
	names := make([]string, 0, len(s.data.Users))
	for name, u := range s.data.Users {
		if u.AccessToken != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Save writes the store to disk, creating its directory if needed.
func (s *Store) Save() error {
	out, err := shared.MarshalJSON(s.data, true)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token store directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, out, 0600); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}

	return nil
}

// Viewer is the identity check the manager runs against every token before
// trusting it.
type Viewer interface {
	Viewer(ctx context.Context, token string) (*anilist.User, error)
}

// Flow obtains an OAuth token interactively. Implementations decide how the
// authorization code comes back: a localhost callback ([CallbackFlow]) or a
// pasted redirect URL ([ManualFlow]).
type Flow interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// Manager resolves usernames to verified access tokens. Stored tokens are
// checked against the account they claim to belong to on every use; tokens
// the API reports as invalid are evicted and re-authorized through the flow.
type Manager struct {
	store       *Store
	api         Viewer
	flow        Flow
	redirectURI string
	logger      *log.Logger
}

// NewManager wires a token store to the API client used for verification.
// flow may be nil, which disables interactive authorization: tokens then
// come only from the store.
func NewManager(store *Store, api Viewer, flow Flow, redirectURI string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{store: store, api: api, flow: flow, redirectURI: redirectURI, logger: logger}
}

// Token returns a verified access token for username, authorizing through
// the flow when the store has none.
//
// A stored token whose Viewer resolves to a different account is an error,
// not an eviction: the stored name is wrong, and authorizing again would
// just mint another token for the wrong account.
func (m *Manager) Token(ctx context.Context, username string) (string, error) {
	if stored, ok := m.store.Token(username); ok {
		owner, err := m.api.Viewer(ctx, stored)
		switch {
		case err == nil && strings.EqualFold(owner.Name, username):
			return stored, nil
		case err == nil:
			return "", fmt.Errorf("%w: stored token for %s belongs to %s", shared.ErrInvalidCredentials, username, owner.Name)
		case isInvalidToken(err):
			m.logger.Warnf("stored token for %s is no longer valid, starting authorization", username)
			m.store.DeleteToken(username)
			if err := m.store.Save(); err != nil {
				return "", err
			}
		default:
			return "", err
		}
	}

	return m.Authorize(ctx, username)
}

// Authorize runs the OAuth flow for username, verifies the resulting token
// belongs to that account, and persists it.
func (m *Manager) Authorize(ctx context.Context, username string) (string, error) {
	if m.flow == nil {
		return "", fmt.Errorf("%w: no stored token for %s, run `anisync auth login %s`", shared.ErrNotAuthenticated, username, username)
	}

	config, err := m.oauthConfig()
	if err != nil {
		return "", err
	}

	token, err := m.flow.Authorize(ctx, config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	owner, err := m.api.Viewer(ctx, token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: could not verify the new token: %v", shared.ErrAuthFailed, err)
	}
	if !strings.EqualFold(owner.Name, username) {
		return "", fmt.Errorf("%w: authorized as %s, expected %s", shared.ErrAuthFailed, owner.Name, username)
	}

	m.store.SetToken(username, token.AccessToken)
	if err := m.store.Save(); err != nil {
		return "", err
	}
	m.logger.Infof("stored access token for %s", username)

	return token.AccessToken, nil
}

func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	clientID, clientSecret := m.store.Credentials()
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: OAuth client not configured, create one at https://anilist.co/settings/developer and run `anisync auth login`", shared.ErrMissingCredentials)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  m.redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authorizeURL,
			TokenURL: tokenURL,
		},
	}, nil
}

// isInvalidToken matches the message AniList returns for expired or revoked
// tokens. Anything else (network trouble, rate limits) must not evict a
// stored token.
func isInvalidToken(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Invalid token")
}
