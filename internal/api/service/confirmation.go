package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/api/models"
)

// codeGenerator derives single-use confirmation codes from a user's current
// mutable state. No code is ever stored: verification re-derives the HMAC
// from the same state, so any profile change (which bumps UpdatedAt)
// invalidates every previously issued code. Codes carry their issue
// timestamp and expire after the configured window.
type codeGenerator struct {
	secret []byte
	ttl    time.Duration
}

func newCodeGenerator(secret string, ttl time.Duration) *codeGenerator {
	return &codeGenerator{secret: []byte(secret), ttl: ttl}
}

// MakeCode issues a code of the form "<ts36>-<hmac20>".
func (g *codeGenerator) MakeCode(user *models.User, now time.Time) string {
	ts := now.Unix()
	return strconv.FormatInt(ts, 36) + "-" + g.digest(user, ts)
}

// CheckCode verifies a code against the user's present state and the time
// window. Constant-time on the digest comparison.
func (g *codeGenerator) CheckCode(user *models.User, code string, now time.Time) bool {
	tsPart, digestPart, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}
	issued := time.Unix(ts, 0)
	if issued.After(now) || now.Sub(issued) > g.ttl {
		return false
	}
	return hmac.Equal([]byte(digestPart), []byte(g.digest(user, ts)))
}

func (g *codeGenerator) digest(user *models.User, ts int64) string {
	// UpdatedAt is truncated to microseconds: postgres timestamptz keeps µs
	// precision, so the freshly created in-memory row and the row a later
	// request reloads must hash the same.
	state := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		user.ID,
		user.Username,
		user.Email,
		user.Role,
		user.UpdatedAt.Truncate(time.Microsecond).UnixMicro(),
		ts,
	)
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil))[:20]
}
