package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bloomcart/bloomcart/internal/adapter"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/notify"
)

var (
	// ErrUnknownFunction is returned for a call to an undeclared function.
	ErrUnknownFunction = errors.New("assistant: unknown function")
	// ErrBadArguments is returned when call arguments cannot be decoded.
	ErrBadArguments = errors.New("assistant: bad function arguments")
)

// Command is a decoded model function call. It is one of
// CreateInquiryCommand or SendSummaryCommand.
type Command interface {
	FunctionName() string
}

// Amount decodes a JSON number or a numeric string such as "20,000".
// Text that is not a number, such as "20k", is kept in Raw and leaves
// Value nil.
type Amount struct {
	Value *float64
	Raw   string
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '"' {
		var v float64
		if err := json.Unmarshal(b, &v); err != nil {
			a.Raw = string(b)
			return nil
		}
		a.Value = &v
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	clean := strings.NewReplacer(",", "", " ", "", "₹", "", "$", "").Replace(s)
	if clean == "" {
		return nil
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		a.Raw = s
		return nil
	}
	a.Value = &v
	return nil
}

// CreateInquiryCommand carries the arguments of createInquiryRecord.
type CreateInquiryCommand struct {
	ContactName            string   `json:"contactName"`
	ContactPhone           string   `json:"contactPhone"`
	ContactEmail           string   `json:"contactEmail"`
	Occasion               string   `json:"occasion"`
	PreferredColors        string   `json:"preferredColors"`
	BudgetMin              Amount   `json:"budgetMin"`
	BudgetMax              Amount   `json:"budgetMax"`
	DeliveryArea           string   `json:"deliveryArea"`
	EventDateTime          string   `json:"eventDateTime"`
	MessageNote            string   `json:"messageNote"`
	SelectedCatalogItemIDs []string `json:"selectedCatalogItemIds"`
}

func (CreateInquiryCommand) FunctionName() string { return FunctionCreateInquiry }

// UnparsedBudget returns budget text that could not be read as a number,
// or "" when both bounds were numeric or absent.
func (c CreateInquiryCommand) UnparsedBudget() string {
	switch {
	case c.BudgetMin.Raw != "" && c.BudgetMax.Raw != "":
		return c.BudgetMin.Raw + " to " + c.BudgetMax.Raw
	case c.BudgetMin.Raw != "":
		return c.BudgetMin.Raw
	default:
		return c.BudgetMax.Raw
	}
}

// ToNewInquiry maps the command onto an inquiry creation request. Budget
// text that is not a number is appended to the message note.
func (c CreateInquiryCommand) ToNewInquiry(userID string) inquiry.NewInquiry {
	note := strings.TrimSpace(c.MessageNote)
	if raw := c.UnparsedBudget(); raw != "" {
		if note != "" {
			note += "\n"
		}
		note += "Budget: " + raw
	}
	return inquiry.NewInquiry{
		UserID: userID,
		Contact: inquiry.Contact{
			Name:  strings.TrimSpace(c.ContactName),
			Phone: strings.TrimSpace(c.ContactPhone),
			Email: strings.TrimSpace(c.ContactEmail),
		},
		Details: inquiry.Details{
			Occasion:               strings.TrimSpace(c.Occasion),
			PreferredColors:        strings.TrimSpace(c.PreferredColors),
			BudgetMin:              c.BudgetMin.Value,
			BudgetMax:              c.BudgetMax.Value,
			DeliveryArea:           strings.TrimSpace(c.DeliveryArea),
			EventDateTime:          strings.TrimSpace(c.EventDateTime),
			MessageNote:            note,
			SelectedCatalogItemIDs: c.SelectedCatalogItemIDs,
		},
	}
}

// SendSummaryCommand carries the arguments of sendSummary.
type SendSummaryCommand struct {
	Method                 notify.Channel `json:"method"`
	CustomerName           string         `json:"customerName"`
	CustomerContact        string         `json:"customerContact"`
	Occasion               string         `json:"occasion"`
	Preferences            string         `json:"preferences"`
	ConversationHighlights string         `json:"conversationHighlights"`
}

func (SendSummaryCommand) FunctionName() string { return FunctionSendSummary }

// ParseCommand decodes a single function call.
func ParseCommand(call adapter.FunctionCall) (Command, error) {
	args := call.Args
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}

	switch call.Name {
	case FunctionCreateInquiry:
		var cmd CreateInquiryCommand
		if err := json.Unmarshal(args, &cmd); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, call.Name, err)
		}
		return cmd, nil
	case FunctionSendSummary:
		var cmd SendSummaryCommand
		if err := json.Unmarshal(args, &cmd); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, call.Name, err)
		}
		ch, err := notify.ParseChannel(string(cmd.Method))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, call.Name, err)
		}
		cmd.Method = ch
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, call.Name)
	}
}

// FirstCommand applies the first-call-wins policy: only calls[0] is
// decoded, any further calls are ignored. It returns nil, nil when there
// are no calls.
func FirstCommand(calls []adapter.FunctionCall) (Command, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	return ParseCommand(calls[0])
}
