package domain

import "time"

// ProtocolStatus enumerates lifecycle states for protocols.
type ProtocolStatus string

const (
	ProtocolStatusOpen         ProtocolStatus = "OPEN"
	ProtocolStatusUnderReview  ProtocolStatus = "UNDER_REVIEW"
	ProtocolStatusInProgress   ProtocolStatus = "IN_PROGRESS"
	ProtocolStatusAwaitingInfo ProtocolStatus = "AWAITING_INFO"
	ProtocolStatusApproved     ProtocolStatus = "APPROVED"
	ProtocolStatusRejected     ProtocolStatus = "REJECTED"
	ProtocolStatusFinalized    ProtocolStatus = "FINALIZED"
	ProtocolStatusCancelled    ProtocolStatus = "CANCELLED"
)

type statusMeta struct {
	label       string
	description string
}

var protocolStatuses = map[ProtocolStatus]statusMeta{
	ProtocolStatusOpen:         {"Aberto", "Protocolo recém criado, aguardando análise"},
	ProtocolStatusUnderReview:  {"Em Análise", "Protocolo sendo analisado pela equipe"},
	ProtocolStatusInProgress:   {"Em Andamento", "Protocolo em processo de atendimento"},
	ProtocolStatusAwaitingInfo: {"Aguardando Informações", "Aguardando informações complementares do solicitante"},
	ProtocolStatusApproved:     {"Aprovado", "Protocolo aprovado, será executado"},
	ProtocolStatusRejected:     {"Rejeitado", "Protocolo rejeitado"},
	ProtocolStatusFinalized:    {"Finalizado", "Protocolo finalizado com sucesso"},
	ProtocolStatusCancelled:    {"Cancelado", "Protocolo cancelado pelo solicitante ou administração"},
}

// Valid reports whether the status is a known lifecycle state.
func (s ProtocolStatus) Valid() bool {
	_, ok := protocolStatuses[s]
	return ok
}

// Label returns the display label for the status.
func (s ProtocolStatus) Label() string {
	return protocolStatuses[s].label
}

// Description returns the long description for the status.
func (s ProtocolStatus) Description() string {
	return protocolStatuses[s].description
}

// Terminal reports whether the status admits no further transitions.
func (s ProtocolStatus) Terminal() bool {
	return s == ProtocolStatusFinalized || s == ProtocolStatusCancelled
}

// ProtocolPriority enumerates urgency levels.
type ProtocolPriority string

const (
	ProtocolPriorityLow    ProtocolPriority = "LOW"
	ProtocolPriorityMedium ProtocolPriority = "MEDIUM"
	ProtocolPriorityHigh   ProtocolPriority = "HIGH"
	ProtocolPriorityUrgent ProtocolPriority = "URGENT"
)

type priorityMeta struct {
	label string
	color string
}

var protocolPriorities = map[ProtocolPriority]priorityMeta{
	ProtocolPriorityLow:    {"Baixa", "#4CAF50"},
	ProtocolPriorityMedium: {"Média", "#FF9800"},
	ProtocolPriorityHigh:   {"Alta", "#FF5722"},
	ProtocolPriorityUrgent: {"Urgente", "#F44336"},
}

// Valid reports whether the priority is known.
func (p ProtocolPriority) Valid() bool {
	_, ok := protocolPriorities[p]
	return ok
}

// Label returns the display label for the priority.
func (p ProtocolPriority) Label() string {
	return protocolPriorities[p].label
}

// Color returns the display color for the priority.
func (p ProtocolPriority) Color() string {
	return protocolPriorities[p].color
}

// ProtocolDataEntry holds one submitted field value.
type ProtocolDataEntry struct {
	ID         string
	ProtocolID string
	Kind       FieldKind
	Value      string
	CreatedAt  time.Time
}

// Protocol is the aggregate root for a citizen service request.
// Number and Deadline are fixed at creation and never recomputed.
type Protocol struct {
	ID           string
	Number       string
	ServiceID    string
	CitizenName  string
	CitizenEmail string
	CitizenPhone string
	Status       ProtocolStatus
	AssigneeID   *string
	Priority     ProtocolPriority
	Deadline     time.Time
	Description  string
	FinalizedAt  *time.Time
	FinalAnswer  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOverdue reports whether the deadline has passed while the protocol is
// still in a non-terminal state. Derived, never stored.
func (p *Protocol) IsOverdue(now time.Time) bool {
	return now.After(p.Deadline) && !p.Status.Terminal()
}

// DaysRemaining returns whole days until the deadline; negative when past.
func (p *Protocol) DaysRemaining(now time.Time) int {
	return int(p.Deadline.Sub(now).Hours() / 24)
}
