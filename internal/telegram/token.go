package telegram

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Pending confirmations are stateless: everything needed to generate lives in
// the callback token itself, so a restart between analysis and confirmation
// loses nothing.

// TokenTTL bounds how long a pending confirmation stays valid.
const TokenTTL = 15 * time.Minute

const tokenVersion = "v1:"

// Token decode failures.
var (
	ErrTokenInvalid = eris.New("pending token is invalid")
	ErrTokenExpired = eris.New("pending token has expired")
)

// PendingData carries a suggested generation request between the analysis
// message and the confirmation button press.
type PendingData struct {
	Topic     string   `json:"topic"`
	Pillar    string   `json:"pillar"`
	Template  string   `json:"template"`
	Keywords  []string `json:"keywords"`
	ExpiresAt int64    `json:"expiresAt"`
}

// EncodeToken serialises pending data into a versioned, expiring token.
func EncodeToken(data PendingData, now time.Time) (string, error) {
	data.ExpiresAt = now.Add(TokenTTL).Unix()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", eris.Wrap(err, "encoding pending data")
	}

	return tokenVersion + base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeToken parses and validates a token produced by EncodeToken.
func DecodeToken(token string, now time.Time) (*PendingData, error) {
	if !strings.HasPrefix(token, tokenVersion) {
		return nil, eris.Wrap(ErrTokenInvalid, "unknown token version")
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, tokenVersion))
	if err != nil {
		return nil, eris.Wrap(ErrTokenInvalid, "decoding base64")
	}

	var data PendingData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, eris.Wrap(ErrTokenInvalid, "decoding json")
	}

	if strings.TrimSpace(data.Topic) == "" || strings.TrimSpace(data.Pillar) == "" {
		return nil, eris.Wrap(ErrTokenInvalid, "missing topic or pillar")
	}

	if now.Unix() > data.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &data, nil
}
