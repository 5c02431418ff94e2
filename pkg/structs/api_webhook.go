package structs

// CreateWebhookResponse returns the binding and the ready-to-call URL for
// a freshly bound webhook. The secret is only returned here.
type CreateWebhookResponse struct {
	WebhookID string `json:"webhook_id"`
	Secret    string `json:"secret"`
	URL       string `json:"url"`
}
