// Copyright 2026 The pureflashblade-mcp Authors

package flashblade

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
)

const (
	hostKey      = "host"
	apiTokenKey  = "api_token"
	verifySSLKey = "verify_ssl"
)

// Credentials identify one FlashBlade management endpoint and the API token used against it
type Credentials struct {
	Host      string
	APIToken  string
	VerifySSL bool
	Timeout   time.Duration
}

// CreateCredentials builds Credentials from loosely typed key/value input such as a query target
func CreateCredentials(args map[string]interface{}) (*Credentials, error) {
	host, _ := args[hostKey].(string)
	token, _ := args[apiTokenKey].(string)
	host = strings.TrimSpace(host)
	token = strings.TrimSpace(token)
	if host == "" || token == "" {
		return nil, fberrors.NewError(fberrors.InvalidArgument, "missing host or api_token")
	}

	cred := &Credentials{Host: host, APIToken: token}
	switch v := args[verifySSLKey].(type) {
	case nil:
	case bool:
		cred.VerifySSL = v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid %s value %q", verifySSLKey, v)
		}
		cred.VerifySSL = b
	default:
		return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid %s value %v", verifySSLKey, v)
	}
	return cred, nil
}

// BaseURL returns the https URL of the management endpoint. A host that already carries a
// scheme is used as given.
func (c *Credentials) BaseURL() string {
	host := strings.TrimRight(c.Host, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

func (c *Credentials) validate() error {
	if c == nil || strings.TrimSpace(c.Host) == "" || strings.TrimSpace(c.APIToken) == "" {
		return fberrors.NewError(fberrors.InvalidArgument, "missing host or api_token")
	}
	return nil
}

// key identifies the session for these credentials without keeping the token in clear text
func (c *Credentials) key() string {
	sum := sha256.Sum256([]byte(c.APIToken))
	return fmt.Sprintf("%s|%t|%s", c.BaseURL(), c.VerifySSL, hex.EncodeToString(sum[:]))
}
