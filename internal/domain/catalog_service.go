package domain

import "time"

// FieldKind enumerates the data fields a service may require from a citizen.
type FieldKind string

const (
	FieldKindLocation      FieldKind = "LOCATION"
	FieldKindPhoto         FieldKind = "PHOTO"
	FieldKindDescription   FieldKind = "DETAILED_DESCRIPTION"
	FieldKindRequesterData FieldKind = "REQUESTER_DATA"
	FieldKindDateTime      FieldKind = "DATE_TIME"
	FieldKindVehiclePlate  FieldKind = "VEHICLE_PLATE"
	FieldKindPropertyNo    FieldKind = "PROPERTY_NUMBER"
	FieldKindMeasurement   FieldKind = "MEASUREMENT"
	FieldKindDeclaredValue FieldKind = "DECLARED_VALUE"
	FieldKindDocuments     FieldKind = "ATTACHED_DOCUMENTS"
	FieldKindPriorProtocol FieldKind = "PRIOR_PROTOCOL_NUMBER"
	FieldKindNotes         FieldKind = "NOTES"
)

type fieldKindMeta struct {
	label       string
	description string
}

var fieldKinds = map[FieldKind]fieldKindMeta{
	FieldKindLocation:      {"Localização", "Endereço completo, CEP, bairro, ponto de referência"},
	FieldKindPhoto:         {"Foto", "Upload de imagens"},
	FieldKindDescription:   {"Descrição Detalhada", "Campo de texto longo para detalhes"},
	FieldKindRequesterData: {"Dados do Solicitante", "Nome, CPF, telefone, email"},
	FieldKindDateTime:      {"Data/Hora", "Data e hora desejada para atendimento"},
	FieldKindVehiclePlate:  {"Placa de Veículo", "Placa do veículo"},
	FieldKindPropertyNo:    {"Número do Imóvel", "Número do imóvel/lote"},
	FieldKindMeasurement:   {"Metragem/Dimensões", "Medidas em metros"},
	FieldKindDeclaredValue: {"Valor Declarado", "Valor em reais"},
	FieldKindDocuments:     {"Documentos Anexos", "Upload de documentos PDF/DOC"},
	FieldKindPriorProtocol: {"Protocolo Anterior", "Número de protocolo relacionado"},
	FieldKindNotes:         {"Observações", "Campo livre para observações gerais"},
}

// Valid reports whether the field kind belongs to the closed catalog.
func (k FieldKind) Valid() bool {
	_, ok := fieldKinds[k]
	return ok
}

// Label returns the display label for the field kind.
func (k FieldKind) Label() string {
	return fieldKinds[k].label
}

// Description returns the help text for the field kind.
func (k FieldKind) Description() string {
	return fieldKinds[k].description
}

// ServiceField defines one data field a service collects.
type ServiceField struct {
	ID           string
	ServiceID    string
	Kind         FieldKind
	Required     bool
	SortOrder    int
	Instructions string
	CreatedAt    time.Time
}

// CatalogService is a requestable municipal service. It supplies the SLA
// duration and the field definitions the protocol engine validates against.
type CatalogService struct {
	ID          string
	CategoryID  string
	Title       string
	Description string
	SLADays     int
	IsActive    bool
	Fields      []ServiceField
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequiredFieldKinds returns the kinds a protocol must supply values for.
func (s *CatalogService) RequiredFieldKinds() []FieldKind {
	var kinds []FieldKind
	for _, f := range s.Fields {
		if f.Required {
			kinds = append(kinds, f.Kind)
		}
	}
	return kinds
}
