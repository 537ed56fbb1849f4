package verify

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/sirupsen/logrus"
)

// GPGVerifier implements Verifier using an OpenPGP keyring
type GPGVerifier struct {
	keyring openpgp.EntityList
}

// NewGPGVerifier creates a verifier from a public key file
func NewGPGVerifier(keyPath string) (*GPGVerifier, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	// Try to parse as armored key first
	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		// Try as binary key
		keyFile.Seek(0, 0)
		keyring, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	return NewKeyringVerifier(keyring)
}

// NewKeyringVerifier creates a verifier from an already parsed keyring
func NewKeyringVerifier(keyring openpgp.EntityList) (*GPGVerifier, error) {
	if len(keyring) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}

	for _, e := range keyring {
		logrus.Debugf("Trusting key %X", e.PrimaryKey.Fingerprint)
	}
	return &GPGVerifier{keyring: keyring}, nil
}

// VerifyDetached checks an armored or binary detached signature
func (v *GPGVerifier) VerifyDetached(data, sig []byte) error {
	var signer *openpgp.Entity
	var err error

	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte("-----BEGIN PGP")) {
		signer, err = openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fmt.Errorf("signature check failed: %w", err)
	}

	logrus.Debugf("Signature by %X verified", signer.PrimaryKey.Fingerprint)
	return nil
}
