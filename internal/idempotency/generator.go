package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope represents the scope of idempotency
type Scope string

const (
	// ScopeActivation keys the subscription created for a completed checkout
	ScopeActivation Scope = "activation"

	// Enrollment
	ScopeEnrollmentCustomer Scope = "enrollment_customer"
	ScopeEnrollmentCheckout Scope = "enrollment_checkout"
	ScopeDirectSubscription Scope = "direct_subscription"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:8]))
}

// ActivationKey is the gateway idempotency key for activating a checkout session
func (g *Generator) ActivationKey(sessionID string) string {
	return g.GenerateKey(ScopeActivation, map[string]interface{}{"session_id": sessionID})
}

// EnrollmentKey keys one step of a single enrollment attempt
func (g *Generator) EnrollmentKey(scope Scope, enrollmentID string) string {
	return g.GenerateKey(scope, map[string]interface{}{"enrollment_id": enrollmentID})
}

// ValidateKey validates if an idempotency key matches expected parameters
func (g *Generator) ValidateKey(scope Scope, params map[string]interface{}, key string) bool {
	return g.GenerateKey(scope, params) == key
}
