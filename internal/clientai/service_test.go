package clientai

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
	"github.com/oxypet/petcare-ai-platform/internal/convo"
	"github.com/oxypet/petcare-ai-platform/internal/daycare"
	"github.com/oxypet/petcare-ai-platform/internal/knowledge"
	"github.com/oxypet/petcare-ai-platform/internal/llm"
	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
	"github.com/oxypet/petcare-ai-platform/internal/training"
)

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
		Usage: openai.Usage{PromptTokens: 100, CompletionTokens: 20},
	}
}

func toolResponse(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:       "call-1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: name, Arguments: args},
				}},
			}},
		},
		Usage: openai.Usage{PromptTokens: 120, CompletionTokens: 15},
	}
}

type fixtureStores struct {
	contacts     stubContacts
	patients     stubPatients
	convos       *stubConvos
	appointments *stubAppointments
	settings     stubSettings
	catalog      stubCatalog
	training     stubTraining
	daycare      stubDaycare
	knowledge    *stubKnowledge
	alerts       stubAlerts
	variations   stubVariations
	interactions *stubInteractions
}

type stubContacts struct{}

func (stubContacts) Get(context.Context, string, string) (*contacts.Contact, error) {
	return &contacts.Contact{ID: "ct-1", FullName: "Maria Souza", PhoneNumber: "5511999990000"}, nil
}

type stubPatients struct{}

func (stubPatients) Create(_ context.Context, p patients.Patient) (*patients.Patient, error) {
	p.ID = "pet-new"
	return &p, nil
}
func (stubPatients) Get(context.Context, string, string) (*patients.Patient, error) {
	return &patients.Patient{ID: "pet-1", Name: "Rex", Species: "dog"}, nil
}
func (stubPatients) ListByContact(context.Context, string, string) ([]patients.Patient, error) {
	return []patients.Patient{{ID: "pet-1", Name: "Rex", Species: "dog", AgeYears: 3}}, nil
}
func (stubPatients) AppendHealthNote(context.Context, string, string, string) error { return nil }

type stubConvos struct {
	appended  []convo.Message
	escalated string
}

func (s *stubConvos) GetOrCreateActive(context.Context, string, string) (*convo.Conversation, error) {
	return &convo.Conversation{ID: "conv-1", Status: convo.StatusActive}, nil
}
func (s *stubConvos) RecentMessages(context.Context, string, int) ([]convo.Message, error) {
	return []convo.Message{
		{Direction: convo.DirectionInbound, Content: "Oi"},
		{Direction: convo.DirectionOutbound, Content: "Oi! Como posso ajudar?"},
	}, nil
}
func (s *stubConvos) AppendMessage(_ context.Context, _ string, direction, content string) error {
	s.appended = append(s.appended, convo.Message{Direction: direction, Content: content})
	return nil
}
func (s *stubConvos) Escalate(_ context.Context, _, _, reason string) error {
	s.escalated = reason
	return nil
}

type stubAppointments struct {
	created []appointments.Appointment
	busy    []appointments.Appointment
}

func (s *stubAppointments) Create(_ context.Context, a appointments.Appointment) (*appointments.Appointment, error) {
	a.ID = "appt-new"
	s.created = append(s.created, a)
	return &a, nil
}
func (s *stubAppointments) ListForDay(context.Context, string, time.Time) ([]appointments.Appointment, error) {
	return s.busy, nil
}
func (s *stubAppointments) ListRecentByContact(context.Context, string, string, time.Time) ([]appointments.Appointment, error) {
	return nil, nil
}

type stubSettings struct{}

func (stubSettings) Get(context.Context, string) (*org.Settings, error) {
	return &org.Settings{
		OrganizationID: "org-1",
		BusinessName:   "Patas do Bairro",
		OperatingHours: testHours(),
	}, nil
}
func (stubSettings) GetOperatingHours(context.Context, string) (org.OperatingHours, error) {
	return testHours(), nil
}

func testHours() org.OperatingHours {
	return org.OperatingHours{
		"monday":    org.Day("08:00", "18:00", false),
		"tuesday":   org.Day("08:00", "18:00", false),
		"wednesday": org.Day("08:00", "18:00", false),
		"thursday":  org.Day("08:00", "18:00", false),
		"friday":    org.Day("08:00", "18:00", false),
		"saturday":  org.Day("09:00", "13:00", false),
		"sunday":    org.Day("", "", true),
	}
}

type stubCatalog struct{}

func (stubCatalog) ListActive(context.Context, string) ([]catalog.Service, error) {
	return []catalog.Service{
		{ID: "svc-1", Name: "Banho e Tosa", Category: "banho_tosa", DurationMinutes: 60, PriceCents: 8000},
	}, nil
}
func (stubCatalog) GetByCategory(_ context.Context, _ string, category string) (*catalog.Service, error) {
	if category == "banho_tosa" {
		return &catalog.Service{ID: "svc-1", Name: "Banho e Tosa", Category: "banho_tosa", DurationMinutes: 60, PriceCents: 8000}, nil
	}
	return nil, catalog.ErrServiceNotFound
}

type stubTraining struct{}

func (stubTraining) Create(_ context.Context, p training.Plan) (*training.Plan, error) {
	p.ID = "plan-new"
	p.Status = training.StatusActive
	return &p, nil
}
func (stubTraining) List(context.Context, string, string) ([]training.Plan, error) { return nil, nil }

type stubDaycare struct{}

func (stubDaycare) CreateStay(_ context.Context, s daycare.Stay) (*daycare.Stay, error) {
	s.ID = "stay-new"
	return &s, nil
}
func (stubDaycare) ListStays(context.Context, string, string, string) ([]daycare.Stay, error) {
	return nil, nil
}

type stubKnowledge struct {
	marked string
}

func (s *stubKnowledge) Search(context.Context, string, string, int) ([]knowledge.Entry, error) {
	return []knowledge.Entry{{ID: "kb-1", Answer: "O banho custa R$ 80.", Relevance: 100}}, nil
}
func (s *stubKnowledge) MarkUsed(_ context.Context, _, id string) error {
	s.marked = id
	return nil
}

type stubAlerts struct{}

func (stubAlerts) CreateHealthAlert(context.Context, string, string, string, string) (*bipe.Entry, error) {
	return &bipe.Entry{ID: "bipe-1"}, nil
}

type stubVariations struct{}

func (stubVariations) ErrorMessage(_ context.Context, _, errorContext string) string {
	if errorContext == "system_error" {
		return "Opa, tive um probleminha aqui. Pode tentar de novo? 😅"
	}
	return "Opa, não entendi muito bem. Pode reformular? 😅"
}
func (stubVariations) BookingConfirmation(context.Context, string, string, string, string) string {
	return "Pronto! Tudo certo! ✅"
}
func (stubVariations) PetRegistered(context.Context, string, string) string {
	return "Que legal! Cadastrado! 🐶"
}

type stubInteractions struct {
	recorded []llm.Interaction
}

func (s *stubInteractions) Record(_ context.Context, in llm.Interaction) error {
	s.recorded = append(s.recorded, in)
	return nil
}

type panickyChat struct{}

func (panickyChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	panic("completion exploded")
}

type customHoursSettings struct {
	hours org.OperatingHours
}

func (c customHoursSettings) Get(context.Context, string) (*org.Settings, error) {
	return &org.Settings{
		OrganizationID: "org-1",
		BusinessName:   "Patas do Bairro",
		OperatingHours: c.hours,
	}, nil
}
func (c customHoursSettings) GetOperatingHours(context.Context, string) (org.OperatingHours, error) {
	return c.hours, nil
}

func newFixture(chat llm.ChatClient) (*Service, *fixtureStores) {
	return newFixtureSettings(chat, stubSettings{})
}

func newFixtureSettings(chat llm.ChatClient, settings settingsStore) (*Service, *fixtureStores) {
	stores := &fixtureStores{
		convos:       &stubConvos{},
		appointments: &stubAppointments{},
		knowledge:    &stubKnowledge{},
		interactions: &stubInteractions{},
	}
	hours := appointments.NewHoursChecker(settings, nil, true)
	svc := NewService(Deps{
		Chat:         chat,
		Profile:      llm.ClientProfile(""),
		Interactions: stores.interactions,
		Settings:     settings,
		Catalog:      stubCatalog{},
		Contacts:     stubContacts{},
		Patients:     stubPatients{},
		Convos:       stores.convos,
		Appointments: stores.appointments,
		Training:     stubTraining{},
		Daycare:      stubDaycare{},
		Knowledge:    stores.knowledge,
		Alerts:       stubAlerts{},
		Variations:   stubVariations{},
		Hours:        hours,
	})
	return svc, stores
}

func TestProcessMessagePlainConversation(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textResponse("Oi Maria! Posso agendar um banho pro Rex 😊"),
	}}
	svc, stores := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Oi, tudo bem?")
	assert.Equal(t, "Oi Maria! Posso agendar um banho pro Rex 😊", reply)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	assert.NotEmpty(t, req.Tools)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "CONTEXTO DO CLIENTE")
	assert.Contains(t, req.Messages[0].Content, "Patas do Bairro")
	// history then the new message last
	assert.Equal(t, "Oi, tudo bem?", req.Messages[len(req.Messages)-1].Content)
	assert.InDelta(t, 0.85, float64(req.Temperature), 0.001)
	assert.Equal(t, 800, req.MaxTokens)

	require.Len(t, stores.interactions.recorded, 1)
	assert.Equal(t, "conversation", stores.interactions.recorded[0].Intent)

	// inbound + outbound persisted
	require.Len(t, stores.convos.appended, 2)
	assert.Equal(t, convo.DirectionOutbound, stores.convos.appended[1].Direction)
}

func TestProcessMessageToolRoundTrip(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolResponse("consultar_horarios", `{"tipo_servico":"banho_tosa","data":"2025-06-02"}`),
		textResponse("Temos estes horários livres: 08:00, 08:30..."),
	}}
	svc, stores := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Tem horário segunda?")
	assert.Equal(t, "Temos estes horários livres: 08:00, 08:30...", reply)

	require.Len(t, chat.requests, 2)
	second := chat.requests[1]
	assert.Empty(t, second.Tools)

	n := len(second.Messages)
	require.GreaterOrEqual(t, n, 2)
	assistantMsg := second.Messages[n-2]
	toolMsg := second.Messages[n-1]
	require.Len(t, assistantMsg.ToolCalls, 1)
	assert.Equal(t, "consultar_horarios", assistantMsg.ToolCalls[0].Function.Name)
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &result))
	assert.Equal(t, true, result["success"])
	assert.NotEmpty(t, result["horarios"])
	assert.Equal(t, float64(60), result["duracao_servico"])

	require.Len(t, stores.interactions.recorded, 2)
	assert.Equal(t, "consultar_horarios", stores.interactions.recorded[0].Intent)
	assert.Equal(t, "consultar_horarios", stores.interactions.recorded[1].Intent)
}

func TestProcessMessageBookingTool(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolResponse("agendar_servico", `{"pet_nome":"Rex","tipo_servico":"banho_tosa","data":"2030-06-03","hora":"10:00"}`),
		textResponse("Agendado! Banho do Rex dia 03/06 às 10:00 🎉"),
	}}
	svc, stores := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Quero banho pro Rex")
	assert.Contains(t, reply, "Agendado")

	require.Len(t, stores.appointments.created, 1)
	created := stores.appointments.created[0]
	assert.Equal(t, "pet-1", created.PatientID)
	assert.Equal(t, "svc-1", created.ServiceID)
	assert.Equal(t, appointments.StatusPending, created.Status)
	assert.True(t, created.CreatedByAI)
	assert.Equal(t, 60, created.DurationMinutes)
}

func TestProcessMessageUnknownToolFedBack(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolResponse("ferramenta_inexistente", `{}`),
		textResponse("Desculpa, não consegui fazer isso."),
	}}
	svc, _ := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "faz algo estranho")
	assert.Equal(t, "Desculpa, não consegui fazer isso.", reply)

	toolMsg := chat.requests[1].Messages[len(chat.requests[1].Messages)-1]
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &result))
	assert.Equal(t, false, result["success"])
}

func TestProcessMessageCompletionFailure(t *testing.T) {
	chat := &scriptedChat{errs: []error{errors.New("gateway down")}}
	svc, _ := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Oi")
	assert.Equal(t, "Opa, tive um probleminha aqui. Pode tentar de novo? 😅", reply)
}

func TestProcessMessageEmptyContentFallsBack(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{textResponse("  ")}}
	svc, _ := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Oi")
	assert.Equal(t, "Opa, não entendi muito bem. Pode reformular? 😅", reply)
}

func TestProcessMessageRecoversFromPanic(t *testing.T) {
	svc, _ := newFixture(panickyChat{})

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Oi")
	assert.Equal(t, "Opa, tive um probleminha aqui. Pode tentar de novo? 😅", reply)
}

func TestConsultarHorariosUnsetDayClosed(t *testing.T) {
	// 2025-06-04 is a Wednesday, absent from the schedule below.
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolResponse("consultar_horarios", `{"tipo_servico":"banho_tosa","data":"2025-06-04"}`),
		textResponse("Poxa, quarta estamos fechados 😕"),
	}}
	svc, _ := newFixtureSettings(chat, customHoursSettings{hours: org.OperatingHours{
		"monday": org.Day("08:00", "18:00", false),
	}})

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "Tem horário quarta?")
	assert.Equal(t, "Poxa, quarta estamos fechados 😕", reply)

	toolMsg := chat.requests[1].Messages[len(chat.requests[1].Messages)-1]
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &result))
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "fechados")
	assert.Empty(t, result["horarios"])
}

func TestSystemPromptMedicalGuardrails(t *testing.T) {
	settings := &org.Settings{
		OrganizationID: "org-1",
		BusinessName:   "Patas do Bairro",
		OperatingHours: testHours(),
	}
	services := []catalog.Service{
		{Name: "Banho e Tosa", Category: "banho_tosa", DurationMinutes: 60, PriceCents: 8000},
	}

	prompt := buildSystemPrompt(settings, services)
	assert.Contains(t, prompt, "CONTEXTO MÉDICO IMPORTANTE")
	assert.Contains(t, prompt, "NUNCA forneça diagnósticos veterinários")
	assert.Contains(t, prompt, "consulta presencial com veterinário")
	assert.Contains(t, prompt, "LGPD")
	assert.Contains(t, prompt, "atendimento veterinário imediato")
	assert.Contains(t, prompt, "NUNCA FAÇA")
	assert.Contains(t, prompt, "Agendar fora do horário")

	// The static fallback keeps the same guardrails.
	assert.Contains(t, fallbackSystemPrompt, "NUNCA forneça diagnósticos veterinários")
	assert.Contains(t, fallbackSystemPrompt, "consulta presencial com veterinário")
	assert.Contains(t, fallbackSystemPrompt, "Nunca faça:")
}

func TestProcessMessageEscalation(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolResponse("escalar_para_humano", `{"motivo":"cliente pediu"}`),
		textResponse("Claro! Já estou te transferindo para a equipe 😊"),
	}}
	svc, stores := newFixture(chat)

	reply := svc.ProcessMessage(context.Background(), "org-1", "ct-1", "quero falar com uma pessoa")
	assert.NotEmpty(t, reply)
	assert.Equal(t, "cliente pediu", stores.convos.escalated)
}

func TestParseToolCallUnknown(t *testing.T) {
	_, err := ParseToolCall("whatever", "{}")
	assert.Error(t, err)
}

func TestParseToolCallBadJSON(t *testing.T) {
	_, err := ParseToolCall("cadastrar_pet", "{nope")
	assert.Error(t, err)
}

func TestParseToolCallVariants(t *testing.T) {
	call, err := ParseToolCall("agendar_servico", `{"pet_nome":"Rex","tipo_servico":"banho_tosa","data":"2025-06-02","hora":"10:00"}`)
	require.NoError(t, err)
	booked, ok := call.(AgendarServico)
	require.True(t, ok)
	assert.Equal(t, "Rex", booked.PetNome)
	assert.Equal(t, "agendar_servico", booked.ToolName())
}
