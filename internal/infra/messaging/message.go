package messaging

import (
	"crypto/sha256"
	"encoding/hex"
)

// outboundMessage is the JSON body handed to the messaging gateway, either
// directly or as the payload of a queued task.
type outboundMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// messageKey identifies a message by content so that replays of the same
// notification on the same day map to the same key.
func messageKey(day, recipient, text string) string {
	sum := sha256.Sum256([]byte(day + "\x00" + recipient + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}
