package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns the SHA-256 hex digest of the request's canonical
// JSON form. Struct-ordered marshaling makes the encoding deterministic,
// so identical requests always produce identical fingerprints. Callers
// should fingerprint the normalized request (defaults applied) so that an
// explicit default and an omitted field address the same result.
func (r MeshRequest) Fingerprint() string {
	raw, err := json.Marshal(r)
	if err != nil {
		// MeshRequest contains only marshalable fields.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
