package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Signer produces Coinbase Exchange CB-ACCESS-* authentication headers.
type Signer struct {
	key        string
	secret     []byte
	passphrase string
}

// NewSigner decodes the base64 API secret. An empty key yields a nil signer (public access only).
func NewSigner(key, secret, passphrase string) (*Signer, error) {
	if key == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "decode api secret")
	}
	return &Signer{key: key, secret: raw, passphrase: passphrase}, nil
}

// Headers signs timestamp + method + requestPath + body.
func (s *Signer) Headers(ts time.Time, method, requestPath string, body []byte) map[string]string {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	return map[string]string{
		"CB-ACCESS-KEY":        s.key,
		"CB-ACCESS-SIGN":       s.sign(timestamp + method + requestPath + string(body)),
		"CB-ACCESS-TIMESTAMP":  timestamp,
		"CB-ACCESS-PASSPHRASE": s.passphrase,
	}
}

func (s *Signer) sign(prehash string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Wipe clears the decoded secret.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	for i := range s.secret {
		s.secret[i] = 0
	}
}
