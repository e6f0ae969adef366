package model

// Wire message type discriminators. Every incoming frame is a JSON object
// whose "type" field selects one of two recognized shapes; anything else is
// dropped after logging.
const (
	// WireTypeWrapped is the app protocol shape: the barcode lives one level
	// down, in payload.content, with no format or timestamp supplied.
	WireTypeWrapped = "DATA"

	// WireTypeDirect is the flat shape: data, format, and timestamp at top level.
	WireTypeDirect = "barcode"
)

// WireMessage is the superset of both recognized wire shapes. Which fields
// are meaningful depends on Type; normalization picks them apart.
type WireMessage struct {
	Type    string      `json:"type"`
	Payload WirePayload `json:"payload"`

	// Direct-variant fields. Pointers distinguish absent fields, which take
	// placeholder defaults, from present-but-empty values, which do not.
	Data      *string  `json:"data"`
	Format    *string  `json:"format"`
	Timestamp *float64 `json:"timestamp"` // seconds since epoch; nil = absent
}

// WirePayload is the nested body of the wrapped variant.
type WirePayload struct {
	Content string `json:"content"`
}
