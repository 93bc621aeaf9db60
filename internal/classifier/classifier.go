// Package classifier decides whether a scanned bucket is publicly exposed.
package classifier

import (
	"regexp"
	"strings"

	"github.com/gcsguardian/guardian/internal/models"
)

// Signal names reported by Signals.
const (
	SignalPublic         = "public"
	SignalPublicExposure = "public_exposure"
	SignalIAMPublic      = "iam_public"
	SignalExposureState  = "exposure_state"
	SignalBinding        = "binding"
)

// publicPrincipal matches the well-known public identities anywhere in a
// member string, so "group:allUsers" counts.
var publicPrincipal = regexp.MustCompile(`(?i)allusers|allauthenticatedusers`)

// IsPublic reports whether any exposure signal holds for the record.
func IsPublic(r models.BucketRecord) bool {
	return r.Public ||
		r.PublicExposure ||
		r.IAMPublic ||
		exposureStatePublic(r.ExposureState) ||
		anyBindingPublic(r.Bindings)
}

// IsBindingPublic reports whether a binding grants access to allUsers or
// allAuthenticatedUsers.
func IsBindingPublic(b models.IAMBinding) bool {
	for _, id := range b.Identities() {
		if publicPrincipal.MatchString(id) {
			return true
		}
	}
	return false
}

// PublicRows returns the public records in input order. Never nil.
func PublicRows(rows []models.BucketRecord) []models.BucketRecord {
	out := make([]models.BucketRecord, 0, len(rows))
	for _, r := range rows {
		if IsPublic(r) {
			out = append(out, r)
		}
	}
	return out
}

// Signals lists which exposure signals fired, in evaluation order.
func Signals(r models.BucketRecord) []string {
	var fired []string
	if r.Public {
		fired = append(fired, SignalPublic)
	}
	if r.PublicExposure {
		fired = append(fired, SignalPublicExposure)
	}
	if r.IAMPublic {
		fired = append(fired, SignalIAMPublic)
	}
	if exposureStatePublic(r.ExposureState) {
		fired = append(fired, SignalExposureState)
	}
	if anyBindingPublic(r.Bindings) {
		fired = append(fired, SignalBinding)
	}
	return fired
}

// exposureStatePublic is a prefix match, so "public_object" and any future
// "public_*" state count as public.
func exposureStatePublic(state string) bool {
	return strings.HasPrefix(strings.ToLower(state), "public")
}

func anyBindingPublic(bindings []models.IAMBinding) bool {
	for _, b := range bindings {
		if IsBindingPublic(b) {
			return true
		}
	}
	return false
}
