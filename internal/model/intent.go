package model

import "fmt"

// Checkout session metadata keys.
const (
	MetadataUserEmail  = "user_email"
	MetadataUserID     = "user_id"
	MetadataEventID    = "event_id"
	MetadataTicketType = "ticket_type"
	MetadataPendingID  = "pending_id"
)

// RegistrationIntent is a user's request to attend an event with a given
// ticket class. For paid tickets it travels through the payment gateway's
// session metadata.
type RegistrationIntent struct {
	UserID      string
	UserEmail   string
	EventID     string
	TicketClass TicketClass
	PendingID   string
}

// Metadata encodes the intent as checkout session metadata.
func (i RegistrationIntent) Metadata() map[string]string {
	md := map[string]string{
		MetadataUserEmail:  i.UserEmail,
		MetadataUserID:     i.UserID,
		MetadataEventID:    i.EventID,
		MetadataTicketType: string(i.TicketClass),
	}
	if i.PendingID != "" {
		md[MetadataPendingID] = i.PendingID
	}
	return md
}

// IntentFromMetadata rebuilds an intent from checkout session metadata.
// user_id, event_id and ticket_type are required.
func IntentFromMetadata(md map[string]string) (RegistrationIntent, error) {
	var missing []string
	for _, key := range []string{MetadataUserID, MetadataEventID, MetadataTicketType} {
		if md[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return RegistrationIntent{}, fmt.Errorf("%w: %v", ErrMissingRegistrationMetadata, missing)
	}

	class, err := ParseTicketClass(md[MetadataTicketType])
	if err != nil {
		return RegistrationIntent{}, err
	}

	return RegistrationIntent{
		UserID:      md[MetadataUserID],
		UserEmail:   md[MetadataUserEmail],
		EventID:     md[MetadataEventID],
		TicketClass: class,
		PendingID:   md[MetadataPendingID],
	}, nil
}
