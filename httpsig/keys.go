package httpsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// Minimum RSA key size in bits accepted by NewRSASigner and NewRSAVerifier.
const minRSAKeyBits = 2048

// KeyFormat selects the PEM encapsulation used when marshaling keys.
type KeyFormat string

const (
	// KeyFormatPKCS1 is the legacy RSA-specific encoding
	// ("RSA PRIVATE KEY" / "RSA PUBLIC KEY").
	KeyFormatPKCS1 KeyFormat = "pkcs1"

	// KeyFormatPKCS8 is the algorithm-wrapped encoding: PKCS#8 for private
	// keys ("PRIVATE KEY") and SPKI for public keys ("PUBLIC KEY").
	KeyFormatPKCS8 KeyFormat = "pkcs8"
)

// --- PEM codec ---

// ParsePrivateKey parses a PEM-armored RSA private key whose encoding is
// not known in advance. PKCS#1 is tried first, then PKCS#8. The PEM block
// label is not trusted; only the DER payload decides.
func ParsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	der, err := decodePEM(pemData)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is neither PKCS#1 nor PKCS#8", ErrKeyFormat)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, not RSA", ErrKeyFormat, parsed)
	}

	return key, nil
}

// ParsePublicKey parses a PEM-armored RSA public key whose encoding is not
// known in advance. PKCS#1 is tried first, then SPKI (PKIX).
func ParsePublicKey(pemData string) (*rsa.PublicKey, error) {
	der, err := decodePEM(pemData)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is neither PKCS#1 nor SPKI", ErrKeyFormat)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrKeyFormat, parsed)
	}

	return key, nil
}

// MarshalPrivateKey encodes key as a PEM document in the given format.
func MarshalPrivateKey(key *rsa.PrivateKey, format KeyFormat) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
	}

	switch format {
	case KeyFormatPKCS1:
		return encodePEM("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)), nil

	case KeyFormatPKCS8:
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}

		return encodePEM("PRIVATE KEY", der), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrKeyFormat, format)
	}
}

// MarshalPublicKey encodes key as a PEM document in the given format.
func MarshalPublicKey(key *rsa.PublicKey, format KeyFormat) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	switch format {
	case KeyFormatPKCS1:
		return encodePEM("RSA PUBLIC KEY", x509.MarshalPKCS1PublicKey(key)), nil

	case KeyFormatPKCS8:
		der, err := x509.MarshalPKIXPublicKey(key)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}

		return encodePEM("PUBLIC KEY", der), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrKeyFormat, format)
	}
}

func decodePEM(pemData string) ([]byte, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
	}

	return block.Bytes, nil
}

func encodePEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

// --- RSASSA-PKCS1-v1_5 SHA-256 ---

// Sign returns the base64-encoded RSASSA-PKCS1-v1_5 signature over the
// SHA-256 hash of signingString.
//
// PKCS#1 v1.5 padding has no random component, so the same key and input
// always produce the same signature.
func Sign(key *rsa.PrivateKey, signingString string) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: rsa private key must not be nil", ErrSigning)
	}

	digest := sha256.Sum256([]byte(signingString))

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64-encoded RSASSA-PKCS1-v1_5 SHA-256 signature over
// signingString. A malformed encoding yields ErrInvalidEncoding; every
// other failure yields ErrVerificationFailed.
func Verify(key *rsa.PublicKey, signature, signingString string) error {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidEncoding
	}

	if key == nil {
		return ErrVerificationFailed
	}

	digest := sha256.Sum256([]byte(signingString))

	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], raw); err != nil {
		return ErrVerificationFailed
	}

	return nil
}

type rsaSigner struct {
	key   *rsa.PrivateKey
	keyID string
}

// NewRSASigner creates a Signer using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSASigner(keyID string, key *rsa.PrivateKey) (Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
	}

	return &rsaSigner{key: key, keyID: keyID}, nil
}

func (s *rsaSigner) Sign(signingString string) (string, error) {
	return Sign(s.key, signingString)
}

func (s *rsaSigner) Algorithm() Algorithm { return AlgorithmRSASHA256 }
func (s *rsaSigner) KeyID() string        { return s.keyID }

type rsaVerifier struct {
	key   *rsa.PublicKey
	keyID string
}

// NewRSAVerifier creates a Verifier using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSAVerifier(keyID string, key *rsa.PublicKey) (Verifier, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
	}

	return &rsaVerifier{key: key, keyID: keyID}, nil
}

func (v *rsaVerifier) Verify(signature, signingString string) error {
	return Verify(v.key, signature, signingString)
}

func (v *rsaVerifier) Algorithm() Algorithm { return AlgorithmRSASHA256 }
func (v *rsaVerifier) KeyID() string        { return v.keyID }
