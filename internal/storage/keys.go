package storage

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// KeyPrefix is the namespace every image key for a trade must live under.
// Image creation rejects keys outside it.
func KeyPrefix(userID, tradeID string) string {
	return fmt.Sprintf("u/%s/trades/%s/", userID, tradeID)
}

// NewObjectKey builds a fresh, collision-resistant key inside the trade's
// namespace: u/{user}/trades/{trade}/{YYYYMMDD-HHMMSS}-{rand}.{ext}.
func NewObjectKey(userID, tradeID, ext string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	suffix := strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "=")
	ts := time.Now().UTC().Format("20060102-150405")
	return KeyPrefix(userID, tradeID) + ts + "-" + suffix + "." + ext
}
