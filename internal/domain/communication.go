package domain

import "time"

// CommunicationType classifies a bulk communication.
type CommunicationType string

const (
	CommTypeGeneral     CommunicationType = "GENERAL"
	CommTypeInformative CommunicationType = "INFORMATIVE"
	CommTypeAlert       CommunicationType = "ALERT"
	CommTypeMaintenance CommunicationType = "MAINTENANCE"
	CommTypeEvent       CommunicationType = "EVENT"
	CommTypeUrgent      CommunicationType = "URGENT"
)

var communicationTypes = map[CommunicationType]string{
	CommTypeGeneral:     "Geral",
	CommTypeInformative: "Informativo",
	CommTypeAlert:       "Alerta",
	CommTypeMaintenance: "Manutenção",
	CommTypeEvent:       "Evento",
	CommTypeUrgent:      "Urgente",
}

// Valid reports whether the type is known.
func (t CommunicationType) Valid() bool {
	_, ok := communicationTypes[t]
	return ok
}

// Label returns the display label for the type.
func (t CommunicationType) Label() string {
	return communicationTypes[t]
}

// CommunicationStatus enumerates dispatch lifecycle states.
type CommunicationStatus string

const (
	CommStatusDraft     CommunicationStatus = "DRAFT"
	CommStatusScheduled CommunicationStatus = "SCHEDULED"
	CommStatusSending   CommunicationStatus = "SENDING"
	CommStatusSent      CommunicationStatus = "SENT"
	CommStatusError     CommunicationStatus = "ERROR"
	CommStatusCancelled CommunicationStatus = "CANCELLED"
)

var communicationStatuses = map[CommunicationStatus]string{
	CommStatusDraft:     "Rascunho",
	CommStatusScheduled: "Agendado",
	CommStatusSending:   "Enviando",
	CommStatusSent:      "Enviado",
	CommStatusError:     "Erro",
	CommStatusCancelled: "Cancelado",
}

// Valid reports whether the status is known.
func (s CommunicationStatus) Valid() bool {
	_, ok := communicationStatuses[s]
	return ok
}

// Label returns the display label for the status.
func (s CommunicationStatus) Label() string {
	return communicationStatuses[s]
}

// CommunicationChannel selects the delivery transport set.
type CommunicationChannel string

const (
	ChannelEmail CommunicationChannel = "EMAIL"
	ChannelSMS   CommunicationChannel = "SMS"
	ChannelApp   CommunicationChannel = "APP_NOTIFICATION"
	ChannelAll   CommunicationChannel = "ALL"
)

var communicationChannels = map[CommunicationChannel]string{
	ChannelEmail: "E-mail",
	ChannelSMS:   "SMS",
	ChannelApp:   "Notificação App",
	ChannelAll:   "Todos os Canais",
}

// Valid reports whether the channel is known.
func (c CommunicationChannel) Valid() bool {
	_, ok := communicationChannels[c]
	return ok
}

// Label returns the display label for the channel.
func (c CommunicationChannel) Label() string {
	return communicationChannels[c]
}

// Communication is the aggregate root for a bulk citizen message.
// TotalSent and TotalErrors reflect the most recent send pass.
type Communication struct {
	ID                 string
	CreatorID          string
	Title              string
	Message            string
	Type               CommunicationType
	Status             CommunicationStatus
	Channel            CommunicationChannel
	NeighborhoodFilter *string
	CategoryFilter     *string
	ScheduledFor       *time.Time
	SentAt             *time.Time
	TotalRecipients    int
	TotalSent          int
	TotalErrors        int
	ErrorMessage       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanEdit reports whether the communication still accepts updates.
func (c *Communication) CanEdit() bool {
	return c.Status == CommStatusDraft || c.Status == CommStatusScheduled
}

// CanCancel reports whether the communication can still be cancelled.
func (c *Communication) CanCancel() bool {
	return c.Status == CommStatusScheduled || c.Status == CommStatusSending
}

// CommunicationRecipient is one delivery target owned by a communication.
// Only the dispatch engine mutates these rows.
type CommunicationRecipient struct {
	ID              string
	CommunicationID string
	Name            string
	Email           string
	Phone           string
	Sent            bool
	SentAt          *time.Time
	Failed          bool
	ErrorMessage    *string
	Attempts        int
	CreatedAt       time.Time
}

// Recipient is a resolved delivery target before persistence.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// RecipientFilter narrows the audience a communication targets.
type RecipientFilter struct {
	Neighborhood string
	Category     string
}
