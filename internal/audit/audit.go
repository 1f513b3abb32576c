package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ActionDocumentRender = "document.render"
	ActionDocumentAnnex  = "document.annex"
)

const maxUserAgent = 512

var resourceTypes = map[string]bool{"contract": true, "proposal": true}

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	CompanyID     string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	DocumentID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Validate checks an entry describes a document action on a contract or proposal.
// Renders must name the template they used.
func (e Entry) Validate() error {
	switch e.Action {
	case ActionDocumentRender:
		if e.DocumentID == "" {
			return errors.New("audit: render entry without document id")
		}
	case ActionDocumentAnnex:
	default:
		return fmt.Errorf("audit: unknown action %q", e.Action)
	}
	if !resourceTypes[e.ResourceType] {
		return fmt.Errorf("audit: unknown resource type %q", e.ResourceType)
	}
	if e.ResourceID == "" {
		return errors.New("audit: empty resource id")
	}
	return nil
}

func truncateUserAgent(ua string) string {
	runes := []rune(ua)
	if len(runes) <= maxUserAgent {
		return ua
	}
	return string(runes[:maxUserAgent])
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ClientIP returns the caller address, preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
