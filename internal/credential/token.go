package credential

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenInfo is what `auth status` shows about an access token
type TokenInfo struct {
	Subject  string    `json:"subject,omitempty"`
	Username string    `json:"username,omitempty"`
	Audience []string  `json:"audience,omitempty"`
	Scopes   []string  `json:"scopes,omitempty"`
	Expires  time.Time `json:"expires"`
}

// Status summarizes the cached sign-in state of one backend
type Status struct {
	Backend  string     `json:"backend"`
	Accounts []Account  `json:"accounts"`
	Expires  time.Time  `json:"expires,omitzero"`
	Token    *TokenInfo `json:"token,omitempty"`
}

// DescribeToken decodes the claims of a JWT access token without verifying
// it. Opaque tokens (Google's) return an error.
func DescribeToken(raw string) (*TokenInfo, error) {
	tok, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("token is not a readable JWT: %w", err)
	}

	info := &TokenInfo{
		Subject:  tok.Subject(),
		Audience: tok.Audience(),
		Expires:  tok.Expiration(),
	}

	for _, claim := range []string{"preferred_username", "upn", "unique_name"} {
		if v, ok := tok.Get(claim); ok {
			if s, ok := v.(string); ok && s != "" {
				info.Username = s
				break
			}
		}
	}

	if v, ok := tok.Get("scp"); ok {
		if s, ok := v.(string); ok {
			info.Scopes = strings.Fields(s)
		}
	}

	return info, nil
}
