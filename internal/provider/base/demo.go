package base

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"paygate/internal/domain/credential"
	"paygate/internal/domain/payment"
)

// Placeholder values an operator may have saved instead of a real
// credential. A required field holding one of these means the provider
// runs in demo mode.
var placeholderValues = map[string]bool{
	"changeme":    true,
	"placeholder": true,
	"demo":        true,
	"sample":      true,
	"xxx":         true,
	"todo":        true,
}

// IsPlaceholder reports whether a credential value is unusable for a
// live call: empty after trimming, a known placeholder, or an obvious
// template value ("your_api_key" and friends).
func IsPlaceholder(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	if placeholderValues[v] {
		return true
	}
	return strings.HasPrefix(v, "your_") || strings.HasPrefix(v, "your-")
}

// HasLiveCredentials reports whether every listed credential value is
// usable for a live call.
func HasLiveCredentials(values ...string) bool {
	for _, v := range values {
		if IsPlaceholder(v) {
			return false
		}
	}
	return true
}

// NewDemoToken synthesizes a 32 character uppercase hex token, shaped
// like the opaque identifiers the live providers hand out.
func NewDemoToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// DemoArena owns the demo-token state of one adapter instance: a
// process-lifetime map from token to status. Each token transitions
// Pending to Paid exactly once, on the first status observation, and
// stays Paid on every observation after that. Nothing is persisted
// across restarts.
type DemoArena struct {
	mu     sync.Mutex
	tokens map[string]payment.Status
}

func NewDemoArena() *DemoArena {
	return &DemoArena{tokens: make(map[string]payment.Status)}
}

// Create registers a freshly synthesized token as Pending.
func (a *DemoArena) Create(token string) {
	a.mu.Lock()
	a.tokens[token] = payment.StatusPending
	a.mu.Unlock()
}

// Observe returns the token's status after applying the single
// Pending-to-Paid transition. The transition is atomic with respect to
// concurrent observations of the same token.
func (a *DemoArena) Observe(token string) (payment.Status, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	status, ok := a.tokens[token]
	if !ok {
		return "", false
	}
	if status == payment.StatusPending {
		status = payment.StatusPaid
		a.tokens[token] = status
	}
	return status, true
}

// SynthesizeIntent creates the demo-mode payment intent: a fresh
// token recorded as Pending and a locally constructed redirect URL.
// No remote call is made.
func (a *DemoArena) SynthesizeIntent(code credential.ProviderCode, amount float64, appBaseURL string) *payment.Intent {
	token := NewDemoToken()
	a.Create(token)
	return &payment.Intent{
		Token:        token,
		RedirectURL:  appBaseURL + "/demo/checkout/" + token,
		Amount:       amount,
		Status:       payment.StatusPending,
		ProviderCode: code,
		Demo:         true,
	}
}

// ObserveResult wraps Observe in the normalized status shape.
func (a *DemoArena) ObserveResult(token string) (*payment.StatusResult, bool) {
	status, ok := a.Observe(token)
	if !ok {
		return nil, false
	}
	return &payment.StatusResult{
		Token:         token,
		PaymentStatus: status.Paid(),
		RawStatus:     status,
	}, true
}

// Len reports how many demo tokens the arena holds.
func (a *DemoArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tokens)
}
