// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Provider error codes that mean the signing credentials have gone stale.
// These are transient from the caller's point of view: a fresh client built
// after a credential refresh will succeed, so they are the only class the
// orchestrator retries.
var credentialExpiryCodes = map[string]struct{}{
	"ExpiredTokenException":     {},
	"ExpiredToken":              {},
	"InvalidSignatureException": {},
}

// IsCredentialExpiry reports whether err is a credential-expiry failure from
// the provider.
//
// Classification is by provider error code, not message text. Any error
// that does not unwrap to a provider API error — network faults, context
// cancellation, validation errors — is not a credential expiry and must not
// be retried.
func IsCredentialExpiry(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := credentialExpiryCodes[apiErr.ErrorCode()]
	return ok
}
