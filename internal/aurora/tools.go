package aurora

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// FunctionCall is one parsed function invocation from the model. The owner
// assistant still rides the legacy function-calling API, so declarations go
// out as Functions and selections come back as a single FunctionCall.
type FunctionCall interface {
	FunctionName() string
	sealed()
}

// BuscarAnalytics fetches business metrics for a period.
type BuscarAnalytics struct {
	Periodo string `json:"periodo"`
}

// ListarClientesInativos lists contacts with no recent appointments.
type ListarClientesInativos struct {
	Dias int `json:"dias"`
}

// SugerirCampanha sketches a marketing campaign.
type SugerirCampanha struct {
	Tipo string `json:"tipo"`
}

// BuscarServicos lists the catalog, optionally one category.
type BuscarServicos struct {
	Categoria string `json:"categoria"`
}

// BuscarPets filters registered pets by species and/or breed.
type BuscarPets struct {
	Especie string `json:"especie"`
	Raca    string `json:"raca"`
}

// CalcularMetricasFinanceiras computes revenue, average ticket and growth.
// CompararComAnterior defaults to true when the model omits it.
type CalcularMetricasFinanceiras struct {
	Periodo             string `json:"periodo"`
	CompararComAnterior *bool  `json:"comparar_com_anterior"`
}

// Compare reports whether the previous period should be computed.
func (c CalcularMetricasFinanceiras) Compare() bool {
	return c.CompararComAnterior == nil || *c.CompararComAnterior
}

// TransferirParaAtendimentoCliente hands a customer matter to the client AI.
type TransferirParaAtendimentoCliente struct {
	TelefoneCliente string `json:"telefone_cliente"`
	Motivo          string `json:"motivo"`
	Contexto        string `json:"contexto"`
}

// SolicitarAjudaTecnica raises a technical-help request to staff.
type SolicitarAjudaTecnica struct {
	TipoAjuda string `json:"tipo_ajuda"`
	Descricao string `json:"descricao"`
	Urgencia  string `json:"urgencia"`
}

// ConsultarBaseConhecimentoInterna queries the org's internal Q&A base.
type ConsultarBaseConhecimentoInterna struct {
	Pergunta string `json:"pergunta"`
}

func (BuscarAnalytics) FunctionName() string                  { return "buscar_analytics" }
func (ListarClientesInativos) FunctionName() string           { return "listar_clientes_inativos" }
func (SugerirCampanha) FunctionName() string                  { return "sugerir_campanha" }
func (BuscarServicos) FunctionName() string                   { return "buscar_servicos" }
func (BuscarPets) FunctionName() string                       { return "buscar_pets" }
func (CalcularMetricasFinanceiras) FunctionName() string      { return "calcular_metricas_financeiras" }
func (TransferirParaAtendimentoCliente) FunctionName() string { return "transferir_para_atendimento_cliente" }
func (SolicitarAjudaTecnica) FunctionName() string            { return "solicitar_ajuda_tecnica" }
func (ConsultarBaseConhecimentoInterna) FunctionName() string { return "consultar_base_conhecimento_interna" }

func (BuscarAnalytics) sealed()                  {}
func (ListarClientesInativos) sealed()           {}
func (SugerirCampanha) sealed()                  {}
func (BuscarServicos) sealed()                   {}
func (BuscarPets) sealed()                       {}
func (CalcularMetricasFinanceiras) sealed()      {}
func (TransferirParaAtendimentoCliente) sealed() {}
func (SolicitarAjudaTecnica) sealed()            {}
func (ConsultarBaseConhecimentoInterna) sealed() {}

// ParseFunctionCall decodes a model function selection. Unknown names and
// malformed arguments come back as errors for the caller to report as a
// failed result.
func ParseFunctionCall(name, arguments string) (FunctionCall, error) {
	decode := func(v any) error {
		if arguments == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(arguments), v); err != nil {
			return fmt.Errorf("aurora: bad arguments for %s: %w", name, err)
		}
		return nil
	}

	switch name {
	case "buscar_analytics":
		var c BuscarAnalytics
		return c, decode(&c)
	case "listar_clientes_inativos":
		var c ListarClientesInativos
		return c, decode(&c)
	case "sugerir_campanha":
		var c SugerirCampanha
		return c, decode(&c)
	case "buscar_servicos":
		var c BuscarServicos
		return c, decode(&c)
	case "buscar_pets":
		var c BuscarPets
		return c, decode(&c)
	case "calcular_metricas_financeiras":
		var c CalcularMetricasFinanceiras
		return c, decode(&c)
	case "transferir_para_atendimento_cliente":
		var c TransferirParaAtendimentoCliente
		return c, decode(&c)
	case "solicitar_ajuda_tecnica":
		var c SolicitarAjudaTecnica
		return c, decode(&c)
	case "consultar_base_conhecimento_interna":
		var c ConsultarBaseConhecimentoInterna
		return c, decode(&c)
	default:
		return nil, fmt.Errorf("aurora: unknown function %q", name)
	}
}

// PeriodRange maps a period keyword onto [from, to). Unknown keywords get
// the trailing week.
func PeriodRange(periodo string, now time.Time) (time.Time, time.Time) {
	switch periodo {
	case "hoje":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, now
	case "mes":
		return now.AddDate(0, -1, 0), now
	case "ano":
		return now.AddDate(-1, 0, 0), now
	default: // semana
		return now.AddDate(0, 0, -7), now
	}
}

func schema(raw string) json.RawMessage {
	return json.RawMessage(raw)
}

// FunctionDefinitions declares the owner-assistant toolbox.
func FunctionDefinitions() []openai.FunctionDefinition {
	return []openai.FunctionDefinition{
		{
			Name:        "buscar_analytics",
			Description: "Busca métricas e analytics do negócio",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"periodo": {"type": "string", "enum": ["hoje", "semana", "mes", "ano"], "description": "Período para as métricas"}
				},
				"required": ["periodo"]
			}`),
		},
		{
			Name:        "listar_clientes_inativos",
			Description: "Lista clientes sem interação recente",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"dias": {"type": "number", "description": "Dias de inatividade (padrão: 30)"}
				}
			}`),
		},
		{
			Name:        "sugerir_campanha",
			Description: "Sugere campanha de marketing automática",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"tipo": {"type": "string", "enum": ["reativacao", "promocional", "aniversario"], "description": "Tipo de campanha"}
				},
				"required": ["tipo"]
			}`),
		},
		{
			Name:        "buscar_servicos",
			Description: "Lista todos os serviços oferecidos ou filtra por categoria",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"categoria": {"type": "string", "description": "Categoria de serviço (opcional, padrão: all)"}
				}
			}`),
		},
		{
			Name:        "buscar_pets",
			Description: "Busca informações sobre pets cadastrados, filtrados por espécie ou raça",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"especie": {"type": "string", "description": "Espécie do pet (ex: cachorro, gato)"},
					"raca": {"type": "string", "description": "Raça específica"}
				}
			}`),
		},
		{
			Name:        "calcular_metricas_financeiras",
			Description: "Calcula receita, ticket médio e crescimento do negócio",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"periodo": {"type": "string", "enum": ["hoje", "semana", "mes", "ano"], "description": "Período para cálculo"},
					"comparar_com_anterior": {"type": "boolean", "description": "Comparar com período anterior (padrão: true)"}
				},
				"required": ["periodo"]
			}`),
		},
		{
			Name:        "transferir_para_atendimento_cliente",
			Description: "Transfere a conversa para a IA de atendimento quando o assunto é um cliente específico",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"telefone_cliente": {"type": "string", "description": "Número de telefone do cliente (opcional, se mencionado)"},
					"motivo": {"type": "string", "description": "Motivo da transferência (ex: agendar serviço, consultar histórico)"},
					"contexto": {"type": "string", "description": "Contexto adicional para a IA de atendimento"}
				},
				"required": ["motivo"]
			}`),
		},
		{
			Name:        "solicitar_ajuda_tecnica",
			Description: "Solicita ajuda técnica quando faltam dados ou configuração",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"tipo_ajuda": {"type": "string", "enum": ["dados_faltando", "configuracao_necessaria", "duvida_operacional", "outro"], "description": "Tipo de ajuda necessária"},
					"descricao": {"type": "string", "description": "Descrição do que está faltando ou precisa ser configurado"},
					"urgencia": {"type": "string", "enum": ["baixa", "media", "alta"], "description": "Nível de urgência"}
				},
				"required": ["tipo_ajuda", "descricao"]
			}`),
		},
		{
			Name:        "consultar_base_conhecimento_interna",
			Description: "Consulta a base de conhecimento interna sobre políticas e procedimentos do negócio",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"pergunta": {"type": "string", "description": "Pergunta sobre políticas internas, procedimentos ou informações do negócio"}
				},
				"required": ["pergunta"]
			}`),
		},
	}
}
