package assistant

import "github.com/bloomcart/bloomcart/internal/adapter"

// Function names offered to the model.
const (
	FunctionCreateInquiry = "createInquiryRecord"
	FunctionSendSummary   = "sendSummary"
)

// SchemaVersion identifies the shape of the function declarations below.
// Bump it whenever a parameter is added, removed or renamed.
const SchemaVersion = 1

func str(desc string) *adapter.Schema {
	return &adapter.Schema{Type: "string", Description: desc}
}

func num(desc string) *adapter.Schema {
	return &adapter.Schema{Type: "number", Description: desc}
}

// Functions returns the two callable functions, in a fixed order.
func Functions() []adapter.FunctionSpec {
	return []adapter.FunctionSpec{
		{
			Name:        FunctionCreateInquiry,
			Description: "Submit the customer's inquiry to the shop. Call this only after the customer " +
				"has explicitly confirmed they want to submit, and only when name, phone and email are known.",
			Parameters: &adapter.Schema{
				Type: "object",
				Properties: map[string]*adapter.Schema{
					"contactName":     str("Customer's full name"),
					"contactPhone":    str("Customer's phone number"),
					"contactEmail":    str("Customer's email address"),
					"occasion":        str("Occasion, e.g. wedding, birthday, anniversary"),
					"preferredColors": str("Preferred colours or colour palette"),
					"budgetMin":       num("Lower end of the budget in the shop currency"),
					"budgetMax":       num("Upper end of the budget in the shop currency"),
					"deliveryArea":    str("Delivery area or venue location"),
					"eventDateTime":   str("Event or delivery date and time as the customer stated it"),
					"messageNote":     str("Card message or any other note"),
					"selectedCatalogItemIds": {
						Type:        "array",
						Description: "IDs of catalog items the customer picked",
						Items:       &adapter.Schema{Type: "string"},
					},
				},
				Required: []string{"contactName", "contactPhone", "contactEmail"},
			},
		},
		{
			Name:        FunctionSendSummary,
			Description: "Send a recap of the conversation so far to the shop team by email or WhatsApp, when the customer asks for it.",
			Parameters: &adapter.Schema{
				Type: "object",
				Properties: map[string]*adapter.Schema{
					"method": {
						Type:        "string",
						Description: "Delivery channel for the summary",
						Enum:        []string{"email", "whatsapp"},
					},
					"customerName":           str("Customer's name"),
					"customerContact":        str("Customer's phone number or email"),
					"occasion":               str("Occasion being planned"),
					"preferences":            str("Flowers, colours, style and budget preferences"),
					"conversationHighlights": str("Other noteworthy points from the conversation"),
				},
				Required: []string{"method", "customerName", "customerContact", "occasion", "preferences"},
			},
		},
	}
}
