package actor

// JSON-LD contexts of an actor document.
const (
	ContextActivityStreams = "https://www.w3.org/ns/activitystreams"
	ContextSecurity        = "https://w3id.org/security/v1"
)

// Actor types.
const (
	TypePerson      = "Person"
	TypeApplication = "Application"
)

// Document is the ActivityPub actor document served at Identity.ID.
type Document struct {
	Context           []string  `json:"@context"`
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	PreferredUsername string    `json:"preferredUsername"`
	Name              string    `json:"name"`
	URL               string    `json:"url"`
	Inbox             string    `json:"inbox"`
	Outbox            string    `json:"outbox"`
	Endpoints         Endpoints `json:"endpoints"`
	PublicKey         PublicKey `json:"publicKey"`
}

// Endpoints lists server-wide endpoints of an actor.
type Endpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// PublicKey is the key block of an actor document.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPEM string `json:"publicKeyPem"`
}

func newDocument(id Identity, actorType, publicKeyPEM string) *Document {
	return &Document{
		Context:           []string{ContextActivityStreams, ContextSecurity},
		ID:                id.ID,
		Type:              actorType,
		PreferredUsername: id.Name,
		Name:              id.Name,
		URL:               id.URL,
		Inbox:             id.Inbox,
		Outbox:            id.Outbox,
		Endpoints:         Endpoints{SharedInbox: id.SharedInbox},
		PublicKey: PublicKey{
			ID:           id.KeyID,
			Owner:        id.ID,
			PublicKeyPEM: publicKeyPEM,
		},
	}
}
