// Package httpsig signs and verifies HTTP requests with the draft-cavage
// "Signature" header used by ActivityPub servers.
//
// A signature covers an ordered list of components. Each component is a
// lower-cased header name or the (request-target) pseudo-header, whose
// value is the lower-cased method followed by the request path:
//
//	(request-target): post /inbox
//	host: example.com
//	date: Mon, 14 Nov 2022 03:08:11 GMT
//	digest: SHA-256=47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=
//
// The lines above form the signing string. It is signed with
// RSASSA-PKCS1-v1_5 over SHA-256 and sent as
//
//	Signature: keyId="https://example.com/@alice/actor.json#main-key",algorithm="rsa-sha256",headers="(request-target) host date digest",signature="..."
//
// # Keys
//
// ParsePrivateKey and ParsePublicKey accept PEM in either PKCS#1 or
// PKCS#8/SPKI form. Sign and Verify work directly on the signing string.
//
// # Requests
//
// SignRequest fills in Date and Digest when they are covered and adds
// the Signature header. VerifyRequest parses the header, checks coverage,
// the body digest and optionally the date skew, then verifies the
// signature with a key obtained from a KeyResolver.
//
// NewTransport wraps an http.RoundTripper so every outgoing request is
// signed. Middleware is the server-side counterpart for gorilla/mux
// routers.
package httpsig
