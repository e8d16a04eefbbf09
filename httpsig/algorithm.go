package httpsig

// Algorithm identifies the signature algorithm named in the algorithm
// parameter of the Signature header.
type Algorithm string

const (
	// AlgorithmRSASHA256 is RSASSA-PKCS1-v1_5 using SHA-256.
	AlgorithmRSASHA256 Algorithm = "rsa-sha256"

	// AlgorithmHS2019 is the opaque algorithm name of later cavage drafts.
	// The actual algorithm is derived from the key; for RSA keys it is
	// treated as rsa-sha256.
	AlgorithmHS2019 Algorithm = "hs2019"
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// supported reports whether signatures with this algorithm can be checked
// with an RSA public key. An empty algorithm is accepted.
func (a Algorithm) supported() bool {
	switch a {
	case "", AlgorithmRSASHA256, AlgorithmHS2019:
		return true
	default:
		return false
	}
}

// Signer creates signatures over signing strings.
type Signer interface {
	// Sign returns the base64-encoded signature over signingString.
	Sign(signingString string) (string, error)

	// Algorithm returns the algorithm identifier for this signer.
	Algorithm() Algorithm

	// KeyID returns the keyId placed in the Signature header.
	KeyID() string
}

// Verifier validates signatures over signing strings.
type Verifier interface {
	// Verify checks the base64-encoded signature against signingString.
	// Returns nil on success, non-nil on failure.
	Verify(signature, signingString string) error

	// Algorithm returns the algorithm identifier for this verifier.
	Algorithm() Algorithm

	// KeyID returns the key identifier for this verifier.
	KeyID() string
}
