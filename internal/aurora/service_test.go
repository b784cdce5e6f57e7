package aurora

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxypet/petcare-ai-platform/internal/appointments"
	"github.com/oxypet/petcare-ai-platform/internal/bipe"
	"github.com/oxypet/petcare-ai-platform/internal/catalog"
	"github.com/oxypet/petcare-ai-platform/internal/contacts"
	"github.com/oxypet/petcare-ai-platform/internal/knowledge"
	"github.com/oxypet/petcare-ai-platform/internal/llm"
	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
)

// fixedNow anchors the period windows so the scripted stubs can tell the
// current week apart from the previous one.
var fixedNow = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

var weekStart = fixedNow.AddDate(0, 0, -7)

type scriptedChat struct {
	requests  []openai.ChatCompletionRequest
	responses []openai.ChatCompletionResponse
	errs      []error
}

func (s *scriptedChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return openai.ChatCompletionResponse{}, errors.New("unexpected completion call")
}

func textResponse(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
		},
		Usage: openai.Usage{PromptTokens: 200, CompletionTokens: 40},
	}
}

func functionResponse(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role:         openai.ChatMessageRoleAssistant,
				FunctionCall: &openai.FunctionCall{Name: name, Arguments: args},
			}},
		},
		Usage: openai.Usage{PromptTokens: 220, CompletionTokens: 18},
	}
}

type stubSettings struct{}

func (stubSettings) Get(context.Context, string) (*org.Settings, error) {
	return &org.Settings{
		OrganizationID: "org-1",
		BusinessName:   "PetShop Alegria",
	}, nil
}

type stubCatalog struct{}

func (stubCatalog) ListActive(context.Context, string) ([]catalog.Service, error) {
	return []catalog.Service{
		{ID: "svc-1", Name: "Banho", Category: "banho", PriceCents: 8000, DurationMinutes: 60},
		{ID: "svc-2", Name: "Tosa Completa", Category: "tosa", PriceCents: 12000, DurationMinutes: 90},
	}, nil
}
func (stubCatalog) Revenue(context.Context, string, time.Time, time.Time) ([]catalog.ServiceRevenue, error) {
	return []catalog.ServiceRevenue{
		{ServiceID: "svc-1", ServiceName: "Banho", TotalBookings: 8, TotalRevenueCents: 64000},
	}, nil
}

// stubAppointments doubles revenue and bookings week over week so growth
// comes out at a clean +100%.
type stubAppointments struct{}

func (stubAppointments) CountsByStatus(context.Context, string, time.Time, time.Time) (appointments.StatusCounts, error) {
	return appointments.StatusCounts{Total: 12, Completed: 8, Cancelled: 2, NoShow: 1}, nil
}
func (stubAppointments) CountBetween(_ context.Context, _ string, from, _ time.Time) (int, error) {
	if from.Before(weekStart) {
		return 5, nil
	}
	return 10, nil
}
func (stubAppointments) RevenueCents(_ context.Context, _ string, from, _ time.Time) (int64, error) {
	if from.Before(weekStart) {
		return 10000, nil
	}
	return 20000, nil
}

type stubPatients struct{}

func (stubPatients) SpeciesDistribution(context.Context, string) ([]patients.SpeciesCount, error) {
	return []patients.SpeciesCount{{Species: "dog", Count: 30}, {Species: "cat", Count: 12}}, nil
}
func (stubPatients) CommonBreeds(context.Context, string, int) ([]string, error) {
	return []string{"Yorkshire", "Poodle"}, nil
}
func (stubPatients) Search(context.Context, string, string, string) ([]patients.Patient, error) {
	return []patients.Patient{
		{ID: "pet-1", Name: "Rex", Species: "dog", Breed: "Yorkshire", AgeYears: 3},
		{ID: "pet-2", Name: "Mel", Species: "dog"},
	}, nil
}
func (stubPatients) CountWithoutActiveTraining(context.Context, string) (int, error) {
	return 8, nil
}

type stubContacts struct{}

func (stubContacts) FindByPhone(_ context.Context, _ string, phone string) (*contacts.Contact, error) {
	if phone == "5511988887777" {
		return &contacts.Contact{ID: "ct-1", FullName: "Maria Souza", PhoneNumber: "5511988887777"}, nil
	}
	return nil, contacts.ErrContactNotFound
}
func (stubContacts) FindInactive(context.Context, string, int, int) ([]contacts.InactiveContact, error) {
	return []contacts.InactiveContact{
		{Contact: contacts.Contact{FullName: "João Lima", PhoneNumber: "5511911112222"}, DaysInactive: 45},
		{Contact: contacts.Contact{FullName: "Ana Dias", PhoneNumber: "5511933334444"}, DaysInactive: 31},
	}, nil
}
func (stubContacts) CountInactive(context.Context, string, int) (int, error) { return 12, nil }

type stubTraining struct{}

func (stubTraining) CountActive(context.Context, string) (int, error) { return 3, nil }

type stubDaycare struct{}

func (stubDaycare) CheckInsBetween(context.Context, string, time.Time, time.Time) (int, error) {
	return 1, nil
}
func (stubDaycare) CheckOutsBetween(context.Context, string, time.Time, time.Time) (int, error) {
	return 2, nil
}

type stubKnowledge struct {
	used []string
}

func (s *stubKnowledge) Search(_ context.Context, _ string, query string, _ int) ([]knowledge.Entry, error) {
	if query == "nada" {
		return nil, nil
	}
	return []knowledge.Entry{
		{ID: "kb-1", Question: "Qual a política de cancelamento?", Answer: "Cancelamentos até 2h antes sem custo.", Relevance: 100},
	}, nil
}
func (s *stubKnowledge) MarkUsed(_ context.Context, _ string, entryID string) error {
	s.used = append(s.used, entryID)
	return nil
}
func (s *stubKnowledge) Count(context.Context, string) (int, error) { return 4, nil }

type stubHelp struct {
	questions []string
}

func (s *stubHelp) CreateTechnicalHelp(_ context.Context, _ string, question string) (*bipe.Entry, error) {
	s.questions = append(s.questions, question)
	return &bipe.Entry{ID: "bipe-1", ClientQuestion: question}, nil
}

type stubVariations struct{}

func (stubVariations) ErrorMessage(context.Context, string, string) string {
	return "Opa, deu ruim aqui! 😅"
}
func (stubVariations) TimeBasedGreeting(context.Context, string, string) string {
	return "Boa tarde, chefe! Como posso ajudar hoje?"
}

type memHistory struct {
	stored map[string][]HistoryMessage
}

func (m *memHistory) Load(_ context.Context, orgID, phone string) ([]HistoryMessage, error) {
	return m.stored[orgID+"/"+phone], nil
}
func (m *memHistory) Save(_ context.Context, orgID, phone string, msgs []HistoryMessage) error {
	if m.stored == nil {
		m.stored = map[string][]HistoryMessage{}
	}
	m.stored[orgID+"/"+phone] = msgs
	return nil
}

type stubInteractions struct {
	recorded []llm.Interaction
}

func (s *stubInteractions) Record(_ context.Context, in llm.Interaction) error {
	s.recorded = append(s.recorded, in)
	return nil
}

type fixture struct {
	svc          *Service
	chat         *scriptedChat
	help         *stubHelp
	knowledge    *stubKnowledge
	history      *memHistory
	interactions *stubInteractions
}

type panickyChat struct{}

func (panickyChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	panic("completion exploded")
}

func newFixture(t *testing.T, chat *scriptedChat) *fixture {
	f := newFixtureChat(t, chat)
	f.chat = chat
	return f
}

func newFixtureChat(t *testing.T, chat llm.ChatClient) *fixture {
	t.Helper()
	help := &stubHelp{}
	kb := &stubKnowledge{}
	hist := &memHistory{}
	recs := &stubInteractions{}
	svc := NewService(Deps{
		Chat:         chat,
		Profile:      llm.AuroraProfile(""),
		Interactions: recs,
		Settings:     stubSettings{},
		Catalog:      stubCatalog{},
		Appointments: stubAppointments{},
		Patients:     stubPatients{},
		Contacts:     stubContacts{},
		Training:     stubTraining{},
		Daycare:      stubDaycare{},
		Knowledge:    kb,
		Help:         help,
		Variations:   stubVariations{},
		History:      hist,
		Now:          func() time.Time { return fixedNow },
	})
	return &fixture{svc: svc, help: help, knowledge: kb, history: hist, interactions: recs}
}

func TestProcessOwnerMessagePlainConversation(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("Nossa semana foi ótima: 8 serviços completados! 🎉"),
	}}
	f := newFixture(t, chat)

	reply := f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Como foi a semana?")

	assert.Equal(t, "Nossa semana foi ótima: 8 serviços completados! 🎉", reply)
	require.Len(t, chat.requests, 1)
	req := chat.requests[0]

	require.NotEmpty(t, req.Functions)
	assert.Equal(t, "auto", req.FunctionCall)
	assert.InDelta(t, 0.9, req.Temperature, 0.001)
	assert.Equal(t, 1000, req.MaxTokens)

	system := req.Messages[0]
	assert.Equal(t, openai.ChatMessageRoleSystem, system.Role)
	assert.Contains(t, system.Content, "CONTEXTO COMPLETO DO NEGÓCIO")
	assert.Contains(t, system.Content, "PetShop Alegria")
	assert.Contains(t, system.Content, "DONO: Carla")
	assert.Contains(t, system.Content, "Receita da semana: R$ 200,00")
	assert.Contains(t, system.Content, "Cachorro: 30")

	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, openai.ChatMessageRoleUser, last.Role)
	assert.Equal(t, "Como foi a semana?", last.Content)

	require.Len(t, f.interactions.recorded, 1)
	assert.Equal(t, "aurora_conversation", f.interactions.recorded[0].Intent)
	assert.Empty(t, f.interactions.recorded[0].ContactID)

	saved := f.history.stored["org-1/5511900000000"]
	require.Len(t, saved, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, saved[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, saved[1].Role)
}

func TestProcessOwnerMessageRemembersHistory(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("Sim, como eu disse, 12 agendamentos."),
	}}
	f := newFixture(t, chat)
	f.history.stored = map[string][]HistoryMessage{
		"org-1/5511900000000": {
			{Role: openai.ChatMessageRoleUser, Content: "Quantos agendamentos tivemos?"},
			{Role: openai.ChatMessageRoleAssistant, Content: "Tivemos 12 agendamentos essa semana!"},
		},
	}

	f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Tem certeza?")

	req := chat.requests[0]
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "Quantos agendamentos tivemos?", req.Messages[1].Content)
	assert.Equal(t, "Tivemos 12 agendamentos essa semana!", req.Messages[2].Content)

	saved := f.history.stored["org-1/5511900000000"]
	assert.Len(t, saved, 4)
}

func TestProcessOwnerMessageFinancialMetrics(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		functionResponse("calcular_metricas_financeiras", `{"periodo":"semana"}`),
		textResponse("Crescemos 100% em receita! 🎉"),
	}}
	f := newFixture(t, chat)

	reply := f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Como está a receita?")

	assert.Equal(t, "Crescemos 100% em receita! 🎉", reply)
	require.Len(t, chat.requests, 2)

	second := chat.requests[1]
	assert.Empty(t, second.Functions)

	assistant := second.Messages[len(second.Messages)-2]
	require.NotNil(t, assistant.FunctionCall)
	assert.Equal(t, "calcular_metricas_financeiras", assistant.FunctionCall.Name)

	fnMsg := second.Messages[len(second.Messages)-1]
	assert.Equal(t, openai.ChatMessageRoleFunction, fnMsg.Role)
	assert.Equal(t, "calcular_metricas_financeiras", fnMsg.Name)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(fnMsg.Content), &result))
	assert.Equal(t, "semana", result["periodo"])
	assert.Equal(t, "200,00", result["receita_total_reais"])
	assert.Equal(t, float64(10), result["total_agendamentos"])
	assert.Equal(t, "20,00", result["ticket_medio_reais"])

	comparison, ok := result["comparacao"].(map[string]any)
	require.True(t, ok, "comparison should default on")
	assert.Equal(t, "100,00", comparison["receita_periodo_anterior_reais"])
	assert.Equal(t, "+100.0%", comparison["crescimento_receita_percentual"])
	assert.Equal(t, "+100.0%", comparison["crescimento_bookings_percentual"])

	require.Len(t, f.interactions.recorded, 2)
	assert.Equal(t, "calcular_metricas_financeiras", f.interactions.recorded[0].Intent)
	assert.Equal(t, "calcular_metricas_financeiras", f.interactions.recorded[1].Intent)
}

func TestProcessOwnerMessageUnknownFunctionFedBack(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		functionResponse("apagar_tudo", `{}`),
		textResponse("Essa eu não sei fazer."),
	}}
	f := newFixture(t, chat)

	f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Apaga tudo aí")

	require.Len(t, chat.requests, 2)
	fnMsg := chat.requests[1].Messages[len(chat.requests[1].Messages)-1]
	assert.JSONEq(t, `{"error":"Função não encontrada"}`, fnMsg.Content)
}

func TestProcessOwnerMessageCompletionFailure(t *testing.T) {
	chat := &scriptedChat{errs: []error{errors.New("gateway down")}}
	f := newFixture(t, chat)

	reply := f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Oi")

	assert.Equal(t, "Opa, deu ruim aqui! 😅", reply)
}

func TestProcessOwnerMessageRecoversFromPanic(t *testing.T) {
	f := newFixtureChat(t, panickyChat{})

	reply := f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Oi")

	assert.Equal(t, "Opa, deu ruim aqui! 😅", reply)
}

func TestProcessOwnerMessageEmptyContentGreets(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{textResponse("")}}
	f := newFixture(t, chat)

	reply := f.svc.ProcessOwnerMessage(context.Background(), "org-1", "5511900000000", "Carla", "Oi")

	assert.Equal(t, "Boa tarde, chefe! Como posso ajudar hoje?", reply)
}

func TestListarClientesInativosDefaultsWindow(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	result, err := f.svc.executeFunction(context.Background(), "org-1", ListarClientesInativos{})
	require.NoError(t, err)

	assert.Equal(t, 30, result["dias_inatividade"])
	assert.Equal(t, 2, result["total"])
	list := result["clientes"].([]map[string]any)
	assert.Equal(t, "João Lima", list[0]["nome"])
	assert.Equal(t, 45, list[0]["dias_inativo"])
}

func TestBuscarPetsDefaultsBreed(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	result, err := f.svc.executeFunction(context.Background(), "org-1", BuscarPets{Especie: "cachorro"})
	require.NoError(t, err)

	pets := result["pets"].([]map[string]any)
	require.Len(t, pets, 2)
	assert.Equal(t, "Cachorro", pets[0]["especie"])
	assert.Equal(t, "Yorkshire", pets[0]["raca"])
	assert.Equal(t, "3 anos", pets[0]["idade"])
	assert.Equal(t, "SRD", pets[1]["raca"])
	assert.Equal(t, "N/A", pets[1]["idade"])
}

func TestTransferirParaAtendimento(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	found, err := f.svc.executeFunction(context.Background(), "org-1", TransferirParaAtendimentoCliente{
		TelefoneCliente: "5511988887777",
		Motivo:          "agendar banho",
	})
	require.NoError(t, err)
	assert.Equal(t, true, found["success"])
	assert.Equal(t, "transferido", found["acao"])
	assert.Equal(t, "Maria Souza", found["cliente"])

	missing, err := f.svc.executeFunction(context.Background(), "org-1", TransferirParaAtendimentoCliente{
		TelefoneCliente: "5511900001111",
		Motivo:          "agendar banho",
	})
	require.NoError(t, err)
	assert.Equal(t, false, missing["success"])
}

func TestSolicitarAjudaTecnicaDefaultsUrgency(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	result, err := f.svc.executeFunction(context.Background(), "org-1", SolicitarAjudaTecnica{
		TipoAjuda: "dados_faltando",
		Descricao: "faltam preços dos serviços de tosa",
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])

	require.Len(t, f.help.questions, 1)
	assert.Equal(t, "[dados_faltando/media] faltam preços dos serviços de tosa", f.help.questions[0])
}

func TestConsultarBaseConhecimentoMarksUsage(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	result, err := f.svc.executeFunction(context.Background(), "org-1", ConsultarBaseConhecimentoInterna{
		Pergunta: "cancelamento",
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["found"])
	assert.Equal(t, "Cancelamentos até 2h antes sem custo.", result["resposta"])
	assert.Equal(t, []string{"kb-1"}, f.knowledge.used)

	empty, err := f.svc.executeFunction(context.Background(), "org-1", ConsultarBaseConhecimentoInterna{
		Pergunta: "nada",
	})
	require.NoError(t, err)
	assert.Equal(t, false, empty["found"])
}

func TestSugerirCampanhaAsksForConfirmation(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	result, err := f.svc.executeFunction(context.Background(), "org-1", SugerirCampanha{Tipo: "reativacao"})
	require.NoError(t, err)
	assert.Equal(t, "Campanha criada! Deseja que eu a execute automaticamente?", result["message"])
	assert.Contains(t, result["sugestao"], "desconto")
}

func TestDailySummary(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	summary, err := f.svc.DailySummary(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Contains(t, summary, "📊 *Resumo do Dia* - 02/06/2025")
	assert.Contains(t, summary, "✅ Completados: 8")
	assert.Contains(t, summary, "⚠️ No-shows: 1")
	assert.Contains(t, summary, "📅 10 agendamentos previstos")
	assert.Contains(t, summary, "3 planos ativos")
	assert.Contains(t, summary, "Check-ins hoje: 1")
	assert.Contains(t, summary, "1 no-show(s) hoje")
	// Ten bookings tomorrow clears the low-agenda nudge.
	assert.NotContains(t, summary, "Campanha de última hora")
}

func TestOpportunities(t *testing.T) {
	f := newFixture(t, &scriptedChat{})

	ops := f.svc.Opportunities(context.Background(), "org-1")

	require.Len(t, ops, 4)
	assert.Contains(t, ops[0], "12 clientes sem interação há mais de 30 dias")
	assert.Contains(t, ops[1], "8 pets sem plano de adestramento")
	assert.Contains(t, ops[2], "1 reservas de hospedagem")
	assert.Contains(t, ops[3], "apenas 4 entradas")
}
