// Package verify checks detached signatures on downloaded release assets.
package verify

// Verifier checks a detached signature over data
type Verifier interface {
	// VerifyDetached returns an error unless sig is a valid signature of
	// data by a trusted key. sig may be armored or binary.
	VerifyDetached(data, sig []byte) error
}
