package httpsig

import "errors"

// Key material errors.
var (
	// ErrKeyFormat is returned when a PEM document cannot be decoded as an
	// RSA key in any of the supported encodings (PKCS#1, PKCS#8, SPKI).
	ErrKeyFormat = errors.New("httpsig: unsupported key format")

	// ErrInvalidKey is returned when key material is unusable (nil,
	// insufficient size, etc.).
	ErrInvalidKey = errors.New("httpsig: invalid key material")
)

// Signing errors.
var (
	// ErrNoSigner is returned when SignConfig has no Signer configured.
	ErrNoSigner = errors.New("httpsig: signer must not be nil")

	// ErrNoCoveredComponents is returned when a signing string is requested
	// over an empty component list.
	ErrNoCoveredComponents = errors.New("httpsig: covered components must not be empty")

	// ErrMissingComponent is returned when a covered component references
	// a header that is not present on the message. It is never rendered as
	// an empty line.
	ErrMissingComponent = errors.New("httpsig: covered component missing from message")

	// ErrSigning is returned when the cryptographic signing operation fails.
	ErrSigning = errors.New("httpsig: signing failed")
)

// Verification errors.
var (
	// ErrNoResolver is returned when VerifyConfig has no KeyResolver configured.
	ErrNoResolver = errors.New("httpsig: key resolver must not be nil")

	// ErrSignatureNotFound is returned when the request carries neither a
	// Signature header nor a Signature authorization scheme.
	ErrSignatureNotFound = errors.New("httpsig: signature not found")

	// ErrMalformedHeader is returned when the Signature header cannot be
	// parsed.
	ErrMalformedHeader = errors.New("httpsig: malformed signature header")

	// ErrUnsupportedAlgorithm is returned when the envelope names an
	// algorithm other than rsa-sha256 or hs2019.
	ErrUnsupportedAlgorithm = errors.New("httpsig: unsupported signature algorithm")

	// ErrUncoveredComponent is returned when a component required by the
	// verifier is not listed in the envelope headers.
	ErrUncoveredComponent = errors.New("httpsig: required component not covered by signature")

	// ErrInvalidEncoding is returned when the signature value is not valid
	// base64.
	ErrInvalidEncoding = errors.New("httpsig: invalid signature encoding")

	// ErrVerificationFailed is returned for every cryptographic mismatch
	// and for keys the resolver cannot provide. Wrong keys, unknown keys
	// and tampered content are not told apart.
	ErrVerificationFailed = errors.New("httpsig: signature verification failed")

	// ErrDateSkew is returned when the Date header lies outside the
	// allowed clock skew.
	ErrDateSkew = errors.New("httpsig: date outside allowed clock skew")
)

// Digest errors.
var (
	// ErrDigestMismatch is returned when Digest verification fails.
	ErrDigestMismatch = errors.New("httpsig: digest mismatch")

	// ErrDigestNotFound is returned when the Digest header is required
	// but not present.
	ErrDigestNotFound = errors.New("httpsig: digest not found")

	// ErrUnsupportedDigest is returned when none of the Digest header
	// entries uses a supported algorithm.
	ErrUnsupportedDigest = errors.New("httpsig: unsupported digest algorithm")
)

// Component errors.
var (
	// ErrUnknownComponent is returned for pseudo components other than
	// (request-target) and for names that are not valid header tokens.
	ErrUnknownComponent = errors.New("httpsig: unknown component identifier")
)
