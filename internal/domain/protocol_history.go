package domain

import "time"

// ProtocolAction captures what kind of change a history entry records.
type ProtocolAction string

const (
	ActionCreated         ProtocolAction = "CREATED"
	ActionAssigned        ProtocolAction = "ASSIGNED"
	ActionStatusChanged   ProtocolAction = "STATUS_CHANGED"
	ActionPriorityChanged ProtocolAction = "PRIORITY_CHANGED"
	ActionCommentAdded    ProtocolAction = "COMMENT_ADDED"
	ActionInfoRequested   ProtocolAction = "INFO_REQUESTED"
	ActionFinalized       ProtocolAction = "FINALIZED"
)

var protocolActions = map[ProtocolAction]string{
	ActionCreated:         "Criado",
	ActionAssigned:        "Atribuído",
	ActionStatusChanged:   "Status Alterado",
	ActionPriorityChanged: "Prioridade Alterada",
	ActionCommentAdded:    "Comentário Adicionado",
	ActionInfoRequested:   "Informação Solicitada",
	ActionFinalized:       "Finalizado",
}

// Label returns the display label for the action.
func (a ProtocolAction) Label() string {
	return protocolActions[a]
}

// ProtocolHistoryEntry is an immutable audit record. Entries are only ever
// appended; nothing edits or deletes them.
type ProtocolHistoryEntry struct {
	ID             string
	ProtocolID     string
	ActorID        *string
	Action         ProtocolAction
	Description    string
	PreviousStatus *ProtocolStatus
	NewStatus      *ProtocolStatus
	CreatedAt      time.Time
}

// ProtocolComment is a staff annotation on a protocol. Internal comments are
// hidden from the citizen-facing surface.
type ProtocolComment struct {
	ID         string
	ProtocolID string
	AuthorID   string
	Text       string
	Internal   bool
	CreatedAt  time.Time
}
