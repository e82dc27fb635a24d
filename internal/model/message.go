package model

// MessageType is the closed set of canonical message content kinds. Raw
// vendor types outside this set map to MessageUnsupported; they are never
// dropped silently.
type MessageType string

const (
	MessageText        MessageType = "text"
	MessageImage       MessageType = "image"
	MessageAudio       MessageType = "audio"
	MessageVideo       MessageType = "video"
	MessageDocument    MessageType = "document"
	MessageLocation    MessageType = "location"
	MessageContact     MessageType = "contact"
	MessageSticker     MessageType = "sticker"
	MessageInteractive MessageType = "interactive"
	MessageButton      MessageType = "button"
	MessageOrder       MessageType = "order"
	MessageReaction    MessageType = "reaction"
	MessageSystem      MessageType = "system"
	MessageUnsupported MessageType = "unsupported"
)

// canonicalTypes maps vendor type tags onto the canonical set. Vendor names
// that already match a canonical kind map to themselves; aliases (such as the
// plural "contacts") are normalized here.
var canonicalTypes = map[string]MessageType{
	"text":        MessageText,
	"image":       MessageImage,
	"audio":       MessageAudio,
	"video":       MessageVideo,
	"document":    MessageDocument,
	"location":    MessageLocation,
	"contact":     MessageContact,
	"contacts":    MessageContact,
	"sticker":     MessageSticker,
	"interactive": MessageInteractive,
	"button":      MessageButton,
	"order":       MessageOrder,
	"reaction":    MessageReaction,
	"system":      MessageSystem,
}

// CanonicalMessageType maps a raw vendor type tag onto the closed canonical
// set. Unknown tags return MessageUnsupported.
func CanonicalMessageType(raw string) MessageType {
	if t, ok := canonicalTypes[raw]; ok {
		return t
	}
	return MessageUnsupported
}

// Message is the polymorphic content of an incoming message webhook. Type
// selects which content pointer is populated; for MessageUnsupported the
// original vendor tag is preserved in RawType.
type Message struct {
	ID      string
	Type    MessageType
	RawType string

	Text        *TextContent
	Media       *MediaContent
	Location    *LocationContent
	Contacts    []ContactCard
	Interactive *InteractiveReply
	Button      *ButtonReply
	Order       *OrderContent
	Reaction    *ReactionContent
	System      *SystemContent
}

// TextContent is the body of a text message.
type TextContent struct {
	Body string
}

// MediaContent covers image, audio, video, document and sticker payloads.
type MediaContent struct {
	MediaID  string
	MimeType string
	SHA256   string
	Filename string
	Caption  string
	Voice    bool
	Animated bool
}

// LocationContent is a shared location pin.
type LocationContent struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// ContactCard is one shared contact from a contacts message.
type ContactCard struct {
	FormattedName string
	FirstName     string
	LastName      string
	Phones        []ContactPhone
	Emails        []string
}

// ContactPhone is one phone entry on a shared contact card.
type ContactPhone struct {
	Phone          string
	Type           string
	PlatformUserID string
}

// InteractiveReply is the user's selection from an interactive message.
type InteractiveReply struct {
	ReplyType   string // "button_reply" or "list_reply"
	ID          string
	Title       string
	Description string
}

// ButtonReply is a quick-reply button press on a template message.
type ButtonReply struct {
	Payload string
	Text    string
}

// OrderContent is a cart submitted from a catalog.
type OrderContent struct {
	CatalogID string
	Text      string
	Items     []OrderItem
}

// OrderItem is one product line in an order.
type OrderItem struct {
	ProductRetailerID string
	Quantity          int
	ItemPrice         float64
	Currency          string
}

// ReactionContent is an emoji reaction to a prior message.
type ReactionContent struct {
	MessageID string
	Emoji     string
}

// SystemContent describes platform-generated notices, such as a user
// changing their phone number.
type SystemContent struct {
	Body              string
	SystemType        string
	NewPlatformUserID string
}
