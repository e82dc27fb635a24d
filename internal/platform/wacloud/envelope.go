package wacloud

// Vendor envelope for WhatsApp Cloud API webhook deliveries. One envelope
// wraps entries per business account, each carrying changes whose value holds
// messages, statuses, or errors.

type envelope struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string `json:"field"`
	Value value  `json:"value"`
}

type value struct {
	MessagingProduct string     `json:"messaging_product"`
	Metadata         metadata   `json:"metadata"`
	Contacts         []contact  `json:"contacts,omitempty"`
	Messages         []message  `json:"messages,omitempty"`
	Statuses         []status   `json:"statuses,omitempty"`
	Errors           []apiError `json:"errors,omitempty"`
}

type metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type contact struct {
	Profile profile `json:"profile"`
	WaID    string  `json:"wa_id"`
}

type profile struct {
	Name string `json:"name"`
}

type message struct {
	From      string      `json:"from"`
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Type      string      `json:"type"`
	Context   *msgContext `json:"context,omitempty"`
	Referral  *referral   `json:"referral,omitempty"`

	Text        *textBody     `json:"text,omitempty"`
	Image       *media        `json:"image,omitempty"`
	Audio       *media        `json:"audio,omitempty"`
	Video       *media        `json:"video,omitempty"`
	Document    *media        `json:"document,omitempty"`
	Sticker     *media        `json:"sticker,omitempty"`
	Location    *location     `json:"location,omitempty"`
	Contacts    []contactCard `json:"contacts,omitempty"`
	Interactive *interactive  `json:"interactive,omitempty"`
	Button      *button       `json:"button,omitempty"`
	Order       *order        `json:"order,omitempty"`
	Reaction    *reaction     `json:"reaction,omitempty"`
	System      *system       `json:"system,omitempty"`
}

// msgContext carries reply/forward metadata on an inbound message.
type msgContext struct {
	From                string `json:"from,omitempty"`
	ID                  string `json:"id,omitempty"`
	Forwarded           bool   `json:"forwarded,omitempty"`
	FrequentlyForwarded bool   `json:"frequently_forwarded,omitempty"`
}

// referral is the click-to-WhatsApp ad attribution block.
type referral struct {
	SourceURL  string `json:"source_url"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
	Headline   string `json:"headline,omitempty"`
	Body       string `json:"body,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Sha256   string `json:"sha256"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type contactCard struct {
	Name   cardName    `json:"name"`
	Phones []cardPhone `json:"phones,omitempty"`
	Emails []cardEmail `json:"emails,omitempty"`
}

type cardName struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
}

type cardPhone struct {
	Phone string `json:"phone"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

type cardEmail struct {
	Email string `json:"email"`
}

type interactive struct {
	Type        string     `json:"type"`
	ButtonReply *listReply `json:"button_reply,omitempty"`
	ListReply   *listReply `json:"list_reply,omitempty"`
}

type listReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type button struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

type order struct {
	CatalogID    string        `json:"catalog_id"`
	Text         string        `json:"text,omitempty"`
	ProductItems []productItem `json:"product_items"`
}

type productItem struct {
	ProductRetailerID string  `json:"product_retailer_id"`
	Quantity          int     `json:"quantity"`
	ItemPrice         float64 `json:"item_price"`
	Currency          string  `json:"currency"`
}

type reaction struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type system struct {
	Body     string `json:"body"`
	Type     string `json:"type"`
	NewWaID  string `json:"new_wa_id,omitempty"`
	Customer string `json:"customer,omitempty"`
}

type status struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	RecipientID  string            `json:"recipient_id"`
	Conversation *conversationInfo `json:"conversation,omitempty"`
	Pricing      *pricingInfo      `json:"pricing,omitempty"`
	Errors       []apiError        `json:"errors,omitempty"`
}

type conversationInfo struct {
	ID                  string             `json:"id"`
	ExpirationTimestamp string             `json:"expiration_timestamp,omitempty"`
	Origin              conversationOrigin `json:"origin"`
}

type conversationOrigin struct {
	Type string `json:"type"`
}

type pricingInfo struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model"`
	Category     string `json:"category"`
}

type apiError struct {
	Code      int        `json:"code"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	Href      string     `json:"href,omitempty"`
	ErrorData *errorData `json:"error_data,omitempty"`
}

type errorData struct {
	Details string `json:"details"`
}
