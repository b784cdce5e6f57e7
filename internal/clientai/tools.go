package clientai

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ToolCall is one parsed tool invocation from the model. The set of
// implementations is closed: ParseToolCall is the only constructor and
// rejects unknown names, so a type switch over these variants is exhaustive.
type ToolCall interface {
	ToolName() string
	sealed()
}

// CadastrarPet registers a pet for the contact.
type CadastrarPet struct {
	Nome       string `json:"nome"`
	Especie    string `json:"especie"`
	Raca       string `json:"raca"`
	IdadeAnos  int    `json:"idade_anos"`
	IdadeMeses int    `json:"idade_meses"`
	Genero     string `json:"genero"`
}

// AgendarServico books a service.
type AgendarServico struct {
	PetNome        string `json:"pet_nome"`
	TipoServico    string `json:"tipo_servico"`
	Data           string `json:"data"`
	Hora           string `json:"hora"`
	DuracaoMinutos int    `json:"duracao_minutos"`
}

// ConsultarHorarios lists free slots for a service on a date.
type ConsultarHorarios struct {
	TipoServico string `json:"tipo_servico"`
	Data        string `json:"data"`
}

// CriarPlanoAdestramento opens a training plan.
type CriarPlanoAdestramento struct {
	PatientID     string   `json:"patientId"`
	PlanType      string   `json:"planType"`
	Goals         []string `json:"goals"`
	TotalSessions int      `json:"totalSessions"`
}

// ListarPlanosAdestramento lists training plans, optionally for one pet.
type ListarPlanosAdestramento struct {
	PatientID string `json:"patientId"`
}

// CriarReservaHospedagem reserves a daycare or boarding stay.
type CriarReservaHospedagem struct {
	PatientID       string `json:"patientId"`
	StayType        string `json:"stayType"`
	CheckInDate     string `json:"checkInDate"`
	CheckOutDate    string `json:"checkOutDate"`
	SpecialRequests string `json:"specialRequests"`
}

// ListarReservasHospedagem lists stays, optionally filtered.
type ListarReservasHospedagem struct {
	PatientID string `json:"patientId"`
	Status    string `json:"status"`
}

// ConsultarBipePet reads a pet's health record and open alerts.
type ConsultarBipePet struct {
	PatientID string `json:"patientId"`
}

// AdicionarAlertaSaude raises an urgent health alert.
type AdicionarAlertaSaude struct {
	PatientID   string `json:"patientId"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ConsultarBaseConhecimento searches the org's Q&A base.
type ConsultarBaseConhecimento struct {
	Question string `json:"question"`
}

// EscalarParaHumano hands the conversation to a human.
type EscalarParaHumano struct {
	Motivo string `json:"motivo"`
}

func (CadastrarPet) ToolName() string              { return "cadastrar_pet" }
func (AgendarServico) ToolName() string            { return "agendar_servico" }
func (ConsultarHorarios) ToolName() string         { return "consultar_horarios" }
func (CriarPlanoAdestramento) ToolName() string    { return "criar_plano_adestramento" }
func (ListarPlanosAdestramento) ToolName() string  { return "listar_planos_adestramento" }
func (CriarReservaHospedagem) ToolName() string    { return "criar_reserva_hospedagem" }
func (ListarReservasHospedagem) ToolName() string  { return "listar_reservas_hospedagem" }
func (ConsultarBipePet) ToolName() string          { return "consultar_bipe_pet" }
func (AdicionarAlertaSaude) ToolName() string      { return "adicionar_alerta_saude" }
func (ConsultarBaseConhecimento) ToolName() string { return "consultar_base_conhecimento" }
func (EscalarParaHumano) ToolName() string         { return "escalar_para_humano" }

func (CadastrarPet) sealed()              {}
func (AgendarServico) sealed()            {}
func (ConsultarHorarios) sealed()         {}
func (CriarPlanoAdestramento) sealed()    {}
func (ListarPlanosAdestramento) sealed()  {}
func (CriarReservaHospedagem) sealed()    {}
func (ListarReservasHospedagem) sealed()  {}
func (ConsultarBipePet) sealed()          {}
func (AdicionarAlertaSaude) sealed()      {}
func (ConsultarBaseConhecimento) sealed() {}
func (EscalarParaHumano) sealed()         {}

// ParseToolCall decodes the model's tool selection into a typed variant.
// Unknown names and malformed arguments are errors; the caller reports them
// back to the model as a failed tool result rather than crashing the turn.
func ParseToolCall(name string, arguments string) (ToolCall, error) {
	decode := func(v any) error {
		if arguments == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(arguments), v); err != nil {
			return fmt.Errorf("clientai: bad arguments for %s: %w", name, err)
		}
		return nil
	}

	switch name {
	case "cadastrar_pet":
		var c CadastrarPet
		return c, decode(&c)
	case "agendar_servico":
		var c AgendarServico
		return c, decode(&c)
	case "consultar_horarios":
		var c ConsultarHorarios
		return c, decode(&c)
	case "criar_plano_adestramento":
		var c CriarPlanoAdestramento
		return c, decode(&c)
	case "listar_planos_adestramento":
		var c ListarPlanosAdestramento
		return c, decode(&c)
	case "criar_reserva_hospedagem":
		var c CriarReservaHospedagem
		return c, decode(&c)
	case "listar_reservas_hospedagem":
		var c ListarReservasHospedagem
		return c, decode(&c)
	case "consultar_bipe_pet":
		var c ConsultarBipePet
		return c, decode(&c)
	case "adicionar_alerta_saude":
		var c AdicionarAlertaSaude
		return c, decode(&c)
	case "consultar_base_conhecimento":
		var c ConsultarBaseConhecimento
		return c, decode(&c)
	case "escalar_para_humano":
		var c EscalarParaHumano
		return c, decode(&c)
	default:
		return nil, fmt.Errorf("clientai: unknown tool %q", name)
	}
}

func schema(raw string) json.RawMessage {
	return json.RawMessage(raw)
}

// ToolDefinitions declares the customer-assistant toolbox for the first
// completion of each turn.
func ToolDefinitions() []openai.Tool {
	fns := []openai.FunctionDefinition{
		{
			Name:        "cadastrar_pet",
			Description: "Cadastra um novo pet para o cliente",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"nome": {"type": "string", "description": "Nome do pet"},
					"especie": {"type": "string", "enum": ["dog", "cat", "bird", "rabbit", "other"], "description": "Espécie do pet"},
					"raca": {"type": "string", "description": "Raça do pet (opcional)"},
					"idade_anos": {"type": "number", "description": "Idade em anos (opcional)"},
					"idade_meses": {"type": "number", "description": "Idade em meses (opcional)"},
					"genero": {"type": "string", "enum": ["male", "female"], "description": "Gênero do pet"}
				},
				"required": ["nome", "especie"]
			}`),
		},
		{
			Name:        "agendar_servico",
			Description: "Agenda um serviço para o pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"pet_nome": {"type": "string", "description": "Nome do pet"},
					"tipo_servico": {"type": "string", "description": "Tipo de serviço"},
					"data": {"type": "string", "description": "Data no formato YYYY-MM-DD"},
					"hora": {"type": "string", "description": "Hora no formato HH:MM"},
					"duracao_minutos": {"type": "number", "description": "Duração estimada em minutos"}
				},
				"required": ["tipo_servico", "data", "hora"]
			}`),
		},
		{
			Name:        "consultar_horarios",
			Description: "Consulta horários disponíveis para um serviço",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"tipo_servico": {"type": "string", "description": "Tipo de serviço"},
					"data": {"type": "string", "description": "Data desejada (YYYY-MM-DD)"}
				},
				"required": ["tipo_servico", "data"]
			}`),
		},
		{
			Name:        "criar_plano_adestramento",
			Description: "Criar novo plano de adestramento para um pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet"},
					"planType": {"type": "string", "description": "Tipo do plano de adestramento"},
					"goals": {"type": "array", "items": {"type": "string"}, "description": "Objetivos do adestramento"},
					"totalSessions": {"type": "number", "description": "Total de sessões"}
				},
				"required": ["patientId", "planType", "goals", "totalSessions"]
			}`),
		},
		{
			Name:        "listar_planos_adestramento",
			Description: "Listar planos de adestramento de um contato ou pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet (opcional)"}
				}
			}`),
		},
		{
			Name:        "criar_reserva_hospedagem",
			Description: "Criar reserva de daycare ou hospedagem para o pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet"},
					"stayType": {"type": "string", "enum": ["daycare", "hotel"], "description": "Tipo de estadia"},
					"checkInDate": {"type": "string", "format": "date", "description": "Data de entrada (YYYY-MM-DD)"},
					"checkOutDate": {"type": "string", "format": "date", "description": "Data de saída (YYYY-MM-DD)"},
					"specialRequests": {"type": "string", "description": "Pedidos especiais (opcional)"}
				},
				"required": ["patientId", "stayType", "checkInDate", "checkOutDate"]
			}`),
		},
		{
			Name:        "listar_reservas_hospedagem",
			Description: "Listar reservas de hospedagem/daycare",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet (opcional)"},
					"status": {"type": "string", "description": "Status da reserva (opcional)"}
				}
			}`),
		},
		{
			Name:        "consultar_bipe_pet",
			Description: "Consultar a ficha de saúde de um pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet"}
				},
				"required": ["patientId"]
			}`),
		},
		{
			Name:        "adicionar_alerta_saude",
			Description: "Adicionar alerta de saúde urgente à ficha do pet",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"patientId": {"type": "string", "description": "ID do pet"},
					"type": {"type": "string", "description": "Tipo de alerta"},
					"description": {"type": "string", "description": "Descrição do alerta"}
				},
				"required": ["patientId", "type", "description"]
			}`),
		},
		{
			Name:        "consultar_base_conhecimento",
			Description: "Buscar resposta na base de conhecimento da organização",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "Pergunta do cliente"}
				},
				"required": ["question"]
			}`),
		},
		{
			Name:        "escalar_para_humano",
			Description: "Escalona a conversa para um atendente humano",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"motivo": {"type": "string", "description": "Motivo da escalação"}
				},
				"required": ["motivo"]
			}`),
		},
	}

	tools := make([]openai.Tool, 0, len(fns))
	for i := range fns {
		tools = append(tools, openai.Tool{Type: openai.ToolTypeFunction, Function: &fns[i]})
	}
	return tools
}
