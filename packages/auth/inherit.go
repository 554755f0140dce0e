package auth

import "github.com/abdul-hamid-achik/ababil/packages/model"

// Inherit returns the auth block that applies to a request. A defined,
// non-inherit request block wins (including an explicit noauth); otherwise the
// collection block applies, which may itself be nil meaning "no auth".
func Inherit(requestAuth, collectionAuth *model.RequestAuth) *model.RequestAuth {
	if !requestAuth.IsInherit() {
		return requestAuth
	}
	if collectionAuth.IsInherit() {
		return nil
	}
	return collectionAuth
}
