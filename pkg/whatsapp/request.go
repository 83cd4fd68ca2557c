package whatsapp

const MessagingProduct = "whatsapp"

type SendRequest struct {
	To               string
	Type             string
	Text             string
	TemplateName     string
	TemplateLanguage string
}

type messageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textBody        `json:"text,omitempty"`
	Template         *templateRequest `json:"template,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type templateRequest struct {
	Name     string           `json:"name"`
	Language templateLanguage `json:"language"`
}

type templateLanguage struct {
	Code string `json:"code"`
}
