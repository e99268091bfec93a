package assistant

import (
	"fmt"
	"strings"

	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// Fixed replies.
const (
	UnavailableReply = "Our assistant is currently unavailable. Please contact us directly and our team will be happy to help."
	RephraseReply    = "I'm sorry, I didn't quite catch that. Could you rephrase or tell me a little more about what you're looking for?"
)

// BuildSummary renders a sendSummary call into notification content. The
// template is fixed; missing values read "Not specified".
func BuildSummary(cmd SendSummaryCommand) notify.InquiryData {
	return notify.InquiryData{
		Title:        "Customer inquiry summary",
		CustomerName: strings.TrimSpace(cmd.CustomerName),
		Fields: []notify.Field{
			{Label: "Customer name", Value: notify.OrNotSpecified(cmd.CustomerName)},
			{Label: "Contact", Value: notify.OrNotSpecified(cmd.CustomerContact)},
			{Label: "Occasion", Value: notify.OrNotSpecified(cmd.Occasion)},
			{Label: "Preferences", Value: notify.OrNotSpecified(cmd.Preferences)},
			{Label: "Conversation highlights", Value: notify.OrNotSpecified(cmd.ConversationHighlights)},
		},
	}
}

func greetingName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return ", " + n
	}
	return ""
}

// summaryConfirmation composes the reply after a sendSummary dispatch. The
// email reply reads as a success whatever the dispatch result; the
// WhatsApp reply follows the real result.
func summaryConfirmation(cmd SendSummaryCommand, res notify.Result) string {
	name := greetingName(cmd.CustomerName)
	switch cmd.Method {
	case notify.ChannelEmail:
		return fmt.Sprintf("Thank you%s! I've sent a summary of your requirements to our team by email. "+
			"They will review it and get back to you shortly.", name)
	default:
		if res.Success {
			return fmt.Sprintf("Thank you%s! I've sent a summary of your requirements to our team on WhatsApp. "+
				"They will reach out to you shortly.", name)
		}
		return "I'm sorry, I couldn't send the summary over WhatsApp right now. " +
			"Would you like me to submit your inquiry instead so our team can contact you?"
	}
}

// inquiryConfirmation composes the reply after an inquiry is created.
func inquiryConfirmation(ref string, c inquiry.Contact) string {
	return fmt.Sprintf("Your inquiry has been submitted%s! Your reference ID is %s. "+
		"Our team will contact you at %s or %s to finalise the details.",
		greetingName(c.Name), ref, c.Phone, c.Email)
}

var contactLabels = map[string]string{
	"name":  "name",
	"phone": "phone number",
	"email": "email address",
}

// missingContactReply asks for the contact fields the model left out.
func missingContactReply(missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		if l, ok := contactLabels[f]; ok {
			labels = append(labels, l)
		} else {
			labels = append(labels, f)
		}
	}
	var list string
	switch len(labels) {
	case 0:
		list = "contact details"
	case 1:
		list = labels[0]
	default:
		list = strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
	return fmt.Sprintf("I'd love to submit your inquiry. Could you please share your %s first?", list)
}
