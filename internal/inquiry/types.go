// Package inquiry persists sales leads captured by the assistant.
package inquiry

import "time"

// Status is the delivery lifecycle state of an inquiry.
type Status string

const (
	StatusNew    Status = "NEW"
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
	StatusClosed Status = "CLOSED"
)

// ValidStatus returns true if s is a recognised status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusSent, StatusFailed, StatusClosed:
		return true
	}
	return false
}

// Contact is the customer's contact block. All three fields are required.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Details holds the optional requirements captured in conversation.
type Details struct {
	Occasion               string   `json:"occasion,omitempty"`
	PreferredColors        string   `json:"preferredColors,omitempty"`
	BudgetMin              *float64 `json:"budgetMin,omitempty"`
	BudgetMax              *float64 `json:"budgetMax,omitempty"`
	DeliveryArea           string   `json:"deliveryArea,omitempty"`
	EventDateTime          string   `json:"eventDateTime,omitempty"`
	MessageNote            string   `json:"messageNote,omitempty"`
	SelectedCatalogItemIDs []string `json:"selectedCatalogItemIds,omitempty"`
}

// Inquiry is a stored sales lead.
type Inquiry struct {
	ID           string    `json:"id"`
	ReferenceID  string    `json:"referenceId"`
	UserID       string    `json:"userId"`
	Contact      Contact   `json:"contact"`
	Details      Details   `json:"details"`
	Status       Status    `json:"status"`
	WhatsAppSent bool      `json:"whatsappSent"`
	EmailSent    bool      `json:"emailSent"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewInquiry is the input to Store.Create.
type NewInquiry struct {
	UserID  string
	Contact Contact
	Details Details
}

// Created is returned by Store.Create.
type Created struct {
	InquiryID   string `json:"inquiryId"`
	ReferenceID string `json:"referenceId"`
}

// Patch is a partial status update. Nil flags are left untouched.
type Patch struct {
	Status       Status
	WhatsAppSent *bool
	EmailSent    *bool
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageLimit applies when Page.Limit is zero or negative.
const DefaultPageLimit = 20
