package esign

// Signer is the person asked to sign
type Signer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// SignatureField places the signature box on the document
type SignatureField struct {
	Page  int
	X     int
	Y     int
	Width int
}

type createRequestBody struct {
	Name         string `json:"name"`
	DeliveryMode string `json:"delivery_mode"`
	Timezone     string `json:"timezone"`
}

type signerInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Locale      string `json:"locale"`
}

type signerField struct {
	DocumentID string `json:"document_id"`
	Type       string `json:"type"`
	Page       int    `json:"page"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width,omitempty"`
}

type addSignerBody struct {
	Info                        signerInfo    `json:"info"`
	SignatureLevel              string        `json:"signature_level"`
	SignatureAuthenticationMode string        `json:"signature_authentication_mode"`
	Fields                      []signerField `json:"fields"`
}

type cancelBody struct {
	Reason string `json:"reason"`
}

type idResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}
