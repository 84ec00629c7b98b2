package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ValidSignature checks the X-Line-Signature header against the raw request
// body: base64(HMAC-SHA256(channelSecret, body)). An empty secret skips
// validation, for local development without LINE credentials.
func ValidSignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" {
		return true
	}
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
