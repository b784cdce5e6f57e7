// Package clientai is the customer-facing assistant. It answers WhatsApp
// messages from pet owners: registering pets, booking services, checking
// availability and escalating to humans when needed.
package clientai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/oxypet/petcare-ai-platform/internal/appointments"
	"github.com/oxypet/petcare-ai-platform/internal/bipe"
	"github.com/oxypet/petcare-ai-platform/internal/catalog"
	"github.com/oxypet/petcare-ai-platform/internal/contacts"
	"github.com/oxypet/petcare-ai-platform/internal/convo"
	"github.com/oxypet/petcare-ai-platform/internal/daycare"
	"github.com/oxypet/petcare-ai-platform/internal/knowledge"
	"github.com/oxypet/petcare-ai-platform/internal/llm"
	"github.com/oxypet/petcare-ai-platform/internal/observability/metrics"
	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
	"github.com/oxypet/petcare-ai-platform/internal/training"
	"github.com/oxypet/petcare-ai-platform/internal/variation"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

const agentName = "client_ai"

type contactStore interface {
	Get(ctx context.Context, orgID, contactID string) (*contacts.Contact, error)
}

type patientStore interface {
	Create(ctx context.Context, p patients.Patient) (*patients.Patient, error)
	Get(ctx context.Context, orgID, patientID string) (*patients.Patient, error)
	ListByContact(ctx context.Context, orgID, contactID string) ([]patients.Patient, error)
	AppendHealthNote(ctx context.Context, orgID, patientID, note string) error
}

type conversationStore interface {
	GetOrCreateActive(ctx context.Context, orgID, contactID string) (*convo.Conversation, error)
	RecentMessages(ctx context.Context, conversationID string, n int) ([]convo.Message, error)
	AppendMessage(ctx context.Context, conversationID, direction, content string) error
	Escalate(ctx context.Context, orgID, conversationID, reason string) error
}

type appointmentStore interface {
	Create(ctx context.Context, a appointments.Appointment) (*appointments.Appointment, error)
	ListForDay(ctx context.Context, orgID string, day time.Time) ([]appointments.Appointment, error)
	ListRecentByContact(ctx context.Context, orgID, contactID string, now time.Time) ([]appointments.Appointment, error)
}

type settingsStore interface {
	Get(ctx context.Context, orgID string) (*org.Settings, error)
	GetOperatingHours(ctx context.Context, orgID string) (org.OperatingHours, error)
}

type catalogStore interface {
	ListActive(ctx context.Context, orgID string) ([]catalog.Service, error)
	GetByCategory(ctx context.Context, orgID, category string) (*catalog.Service, error)
}

type trainingStore interface {
	Create(ctx context.Context, p training.Plan) (*training.Plan, error)
	List(ctx context.Context, orgID, patientID string) ([]training.Plan, error)
}

type daycareStore interface {
	CreateStay(ctx context.Context, s daycare.Stay) (*daycare.Stay, error)
	ListStays(ctx context.Context, orgID, patientID, status string) ([]daycare.Stay, error)
}

type knowledgeStore interface {
	Search(ctx context.Context, orgID, query string, limit int) ([]knowledge.Entry, error)
	MarkUsed(ctx context.Context, orgID, entryID string) error
}

type alertService interface {
	CreateHealthAlert(ctx context.Context, orgID, contactID, patientID, description string) (*bipe.Entry, error)
}

type variationService interface {
	ErrorMessage(ctx context.Context, orgID, errorContext string) string
	BookingConfirmation(ctx context.Context, orgID, date, timeOfDay, serviceName string) string
	PetRegistered(ctx context.Context, orgID, petName string) string
}

type interactionRecorder interface {
	Record(ctx context.Context, in llm.Interaction) error
}

// Deps collects everything the assistant needs. All fields are required
// unless noted.
type Deps struct {
	Chat         llm.ChatClient
	Profile      llm.SamplingProfile
	Prices       llm.PriceTable
	Interactions interactionRecorder

	Settings     settingsStore
	Catalog      catalogStore
	Contacts     contactStore
	Patients     patientStore
	Convos       conversationStore
	Appointments appointmentStore
	Training     trainingStore
	Daycare      daycareStore
	Knowledge    knowledgeStore
	Alerts       alertService
	Variations   variationService
	Hours        *appointments.HoursChecker

	Metrics *metrics.AIMetrics // optional
	Logger  *logging.Logger    // optional
	Now     func() time.Time   // optional, for tests
}

// Service runs the two-turn completion pipeline for customer messages.
type Service struct {
	deps    Deps
	logger  *logging.Logger
	metrics *metrics.AIMetrics
	now     func() time.Time
}

// NewService validates deps and builds the assistant.
func NewService(deps Deps) *Service {
	switch {
	case deps.Chat == nil:
		panic("clientai: chat client required")
	case deps.Interactions == nil:
		panic("clientai: interaction store required")
	case deps.Settings == nil:
		panic("clientai: settings store required")
	case deps.Catalog == nil:
		panic("clientai: catalog store required")
	case deps.Contacts == nil:
		panic("clientai: contact store required")
	case deps.Patients == nil:
		panic("clientai: patient store required")
	case deps.Convos == nil:
		panic("clientai: conversation store required")
	case deps.Appointments == nil:
		panic("clientai: appointment store required")
	case deps.Training == nil:
		panic("clientai: training store required")
	case deps.Daycare == nil:
		panic("clientai: daycare store required")
	case deps.Knowledge == nil:
		panic("clientai: knowledge store required")
	case deps.Alerts == nil:
		panic("clientai: alert service required")
	case deps.Variations == nil:
		panic("clientai: variation service required")
	case deps.Hours == nil:
		panic("clientai: hours checker required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Prices == nil {
		deps.Prices = llm.DefaultPrices
	}
	return &Service{deps: deps, logger: deps.Logger, metrics: deps.Metrics, now: deps.Now}
}

// ProcessMessage answers one inbound customer message. It never returns an
// error and never returns an empty reply: any failure inside the pipeline
// degrades to a humanized system-error response.
func (s *Service) ProcessMessage(ctx context.Context, orgID, contactID, text string) (reply string) {
	started := s.now()
	trace := &turnTrace{svc: s, orgID: orgID, contact: contactID, state: stateReceived}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn panicked", "org_id", orgID, "contact_id", contactID, "panic", r)
			s.metrics.ObserveCompletion(agentName, "error")
			trace.to(stateFallbackReplied)
			reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextSystemError)
		}
		s.metrics.ObserveTurnLatency(agentName, s.now().Sub(started).Seconds())
	}()

	var err error
	reply, err = s.processMessage(ctx, orgID, contactID, text, trace)
	if err != nil {
		s.logger.Error("turn failed", "org_id", orgID, "contact_id", contactID, "error", err)
		s.metrics.ObserveCompletion(agentName, "error")
		reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextSystemError)
		trace.to(stateFallbackReplied)
	}
	return reply
}

func (s *Service) processMessage(ctx context.Context, orgID, contactID, text string, trace *turnTrace) (string, error) {
	deps := contextDeps{
		contacts:     s.deps.Contacts,
		patients:     s.deps.Patients,
		convos:       s.deps.Convos,
		appointments: s.deps.Appointments,
		logger:       s.logger,
	}
	cc, err := deps.buildContext(ctx, orgID, contactID, s.now())
	if err != nil {
		return "", err
	}

	if err := s.deps.Convos.AppendMessage(ctx, cc.Conversation.ID, convo.DirectionInbound, text); err != nil {
		s.logger.Warn("inbound message not persisted", "conversation_id", cc.Conversation.ID, "error", err)
	}

	msgs := s.buildMessages(ctx, orgID, cc, text)
	trace.to(statePromptBuilt)

	first, err := s.complete(ctx, msgs, ToolDefinitions())
	if err != nil {
		return "", err
	}
	trace.to(stateFirstCompletion)
	s.recordInteraction(ctx, orgID, contactID, first, intentOf(first))

	reply := firstContent(first)

	if calls := toolCalls(first); len(calls) > 0 {
		call := calls[0] // one tool per turn
		trace.to(stateToolSelected)

		result := s.runTool(ctx, orgID, contactID, cc, call)
		trace.to(stateToolExecuted)

		msgs = append(msgs, first.Choices[0].Message)
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    result,
		})

		second, err := s.complete(ctx, msgs, nil)
		if err != nil {
			return "", err
		}
		trace.to(stateSecondCompletion)
		s.recordInteraction(ctx, orgID, contactID, second, intentOf(first))
		reply = firstContent(second)
	}

	if strings.TrimSpace(reply) == "" {
		reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextMisunderstanding)
	}

	if err := s.deps.Convos.AppendMessage(ctx, cc.Conversation.ID, convo.DirectionOutbound, reply); err != nil {
		s.logger.Warn("outbound message not persisted", "conversation_id", cc.Conversation.ID, "error", err)
	}
	s.metrics.ObserveCompletion(agentName, "ok")
	trace.to(stateReplied)
	return reply, nil
}

func (s *Service) buildMessages(ctx context.Context, orgID string, cc *ClientContext, text string) []openai.ChatCompletionMessage {
	system := fallbackSystemPrompt
	settings, err := s.deps.Settings.Get(ctx, orgID)
	if err != nil {
		s.logger.Warn("settings unavailable, using fallback prompt", "org_id", orgID, "error", err)
	} else {
		services, err := s.deps.Catalog.ListActive(ctx, orgID)
		if err != nil {
			s.logger.Warn("catalog unavailable", "org_id", orgID, "error", err)
		}
		system = buildSystemPrompt(settings, services)
	}

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system + cc.FormatForPrompt()},
	}
	for _, m := range cc.History {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role(), Content: m.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
}

func (s *Service) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionResponse, error) {
	req := openai.ChatCompletionRequest{Messages: msgs, Tools: tools}
	s.deps.Profile.Apply(&req)

	callCtx, cancel := s.deps.Profile.CallContext(ctx)
	defer cancel()

	resp, err := s.deps.Chat.CreateChatCompletion(callCtx, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("clientai: completion: %w", err)
	}
	s.metrics.ObserveTokens(agentName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp, nil
}

// recordInteraction logs usage and cost. Failures are logged and swallowed:
// accounting must never break the conversation.
func (s *Service) recordInteraction(ctx context.Context, orgID, contactID string, resp openai.ChatCompletionResponse, intent string) {
	in := llm.Interaction{
		OrganizationID:   orgID,
		ContactID:        contactID,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CostCents:        s.deps.Prices.CostCents(resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Intent:           intent,
	}
	if err := s.deps.Interactions.Record(ctx, in); err != nil {
		s.logger.Warn("interaction not recorded", "org_id", orgID, "error", err)
	}
}

func firstContent(resp openai.ChatCompletionResponse) string {
	for _, choice := range resp.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content
		}
	}
	return ""
}

func toolCalls(resp openai.ChatCompletionResponse) []openai.ToolCall {
	if len(resp.Choices) == 0 {
		return nil
	}
	return resp.Choices[0].Message.ToolCalls
}

func intentOf(resp openai.ChatCompletionResponse) string {
	if calls := toolCalls(resp); len(calls) > 0 {
		return calls[0].Function.Name
	}
	return "conversation"
}

// runTool executes one parsed tool call and returns the JSON fed back to the
// model. Parse and execution failures both become {"success": false, ...}
// results so the model can apologize gracefully.
func (s *Service) runTool(ctx context.Context, orgID, contactID string, cc *ClientContext, call openai.ToolCall) string {
	parsed, err := ParseToolCall(call.Function.Name, call.Function.Arguments)
	if err != nil {
		s.logger.Warn("tool call rejected", "tool", call.Function.Name, "error", err)
		s.metrics.ObserveToolCall(agentName, call.Function.Name, "parse_error")
		return toolError("Não consegui entender os dados da solicitação.")
	}

	result, err := s.executeTool(ctx, orgID, contactID, cc, parsed)
	if err != nil {
		s.logger.Error("tool execution failed", "tool", parsed.ToolName(), "error", err)
		s.metrics.ObserveToolCall(agentName, parsed.ToolName(), "error")
		return toolError("Tive um problema ao processar essa solicitação.")
	}
	s.metrics.ObserveToolCall(agentName, parsed.ToolName(), "ok")
	return toolJSON(result)
}

func (s *Service) executeTool(ctx context.Context, orgID, contactID string, cc *ClientContext, call ToolCall) (map[string]any, error) {
	switch c := call.(type) {
	case CadastrarPet:
		return s.cadastrarPet(ctx, orgID, contactID, c)
	case AgendarServico:
		return s.agendarServico(ctx, orgID, contactID, cc, c)
	case ConsultarHorarios:
		return s.consultarHorarios(ctx, orgID, c)
	case CriarPlanoAdestramento:
		return s.criarPlanoAdestramento(ctx, orgID, contactID, c)
	case ListarPlanosAdestramento:
		return s.listarPlanosAdestramento(ctx, orgID, c)
	case CriarReservaHospedagem:
		return s.criarReservaHospedagem(ctx, orgID, contactID, c)
	case ListarReservasHospedagem:
		return s.listarReservasHospedagem(ctx, orgID, c)
	case ConsultarBipePet:
		return s.consultarBipePet(ctx, orgID, c)
	case AdicionarAlertaSaude:
		return s.adicionarAlertaSaude(ctx, orgID, contactID, c)
	case ConsultarBaseConhecimento:
		return s.consultarBaseConhecimento(ctx, orgID, c)
	case EscalarParaHumano:
		return s.escalarParaHumano(ctx, orgID, cc, c)
	default:
		return nil, fmt.Errorf("clientai: unhandled tool %T", call)
	}
}

func (s *Service) cadastrarPet(ctx context.Context, orgID, contactID string, c CadastrarPet) (map[string]any, error) {
	pet, err := s.deps.Patients.Create(ctx, patients.Patient{
		OrganizationID: orgID,
		ContactID:      contactID,
		Name:           c.Nome,
		Species:        c.Especie,
		Breed:          c.Raca,
		AgeYears:       c.IdadeAnos,
		AgeMonths:      c.IdadeMeses,
		Gender:         c.Genero,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"pet": map[string]any{
			"id":      pet.ID,
			"name":    pet.Name,
			"species": pet.Species,
		},
		"message": s.deps.Variations.PetRegistered(ctx, orgID, pet.Name),
	}, nil
}

func (s *Service) agendarServico(ctx context.Context, orgID, contactID string, cc *ClientContext, c AgendarServico) (map[string]any, error) {
	when, err := time.ParseInLocation("2006-01-02 15:04", c.Data+" "+c.Hora, time.Local)
	if err != nil {
		return map[string]any{"success": false, "error": "Data ou hora inválida."}, nil
	}

	check, err := s.deps.Hours.Check(ctx, orgID, when)
	if err != nil {
		return nil, err
	}
	if !check.Open {
		return map[string]any{"success": false, "error": check.Reason}, nil
	}

	svc, err := s.resolveService(ctx, orgID, c.TipoServico)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return map[string]any{"success": false, "error": "Não oferecemos esse serviço."}, nil
		}
		return nil, err
	}

	pet := findPetByName(cc.Patients, c.PetNome)
	if pet == nil {
		return map[string]any{"success": false, "error": "Não encontrei esse pet no cadastro. Pode confirmar o nome?"}, nil
	}

	duration := c.DuracaoMinutos
	if duration <= 0 {
		duration = svc.DurationMinutes
	}
	appt, err := s.deps.Appointments.Create(ctx, appointments.Appointment{
		OrganizationID:  orgID,
		ContactID:       contactID,
		PatientID:       pet.ID,
		ServiceID:       svc.ID,
		ScheduledAt:     when,
		DurationMinutes: duration,
		Status:          appointments.StatusPending,
		PriceCents:      svc.PriceCents,
		CreatedByAI:     true,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":      true,
		"booking_id":   appt.ID,
		"service_name": svc.Name,
		"status":       appt.Status,
		"message": s.deps.Variations.BookingConfirmation(ctx, orgID,
			when.Format("02/01/2006"), when.Format("15:04"), svc.Name),
	}, nil
}

func (s *Service) consultarHorarios(ctx context.Context, orgID string, c ConsultarHorarios) (map[string]any, error) {
	day, err := time.ParseInLocation("2006-01-02", c.Data, time.Local)
	if err != nil {
		return map[string]any{"success": false, "error": "Data inválida."}, nil
	}
	hours, err := s.deps.Settings.GetOperatingHours(ctx, orgID)
	if err != nil {
		return nil, err
	}
	sched := hours[org.DayKey(day)]
	if sched == nil || sched.Closed {
		reason := "Desculpe, estamos fechados neste dia."
		if sched != nil {
			reason = appointments.CheckOpen(hours, day.Add(12*time.Hour)).Reason
		}
		return map[string]any{"success": false, "error": reason, "horarios": []string{}}, nil
	}

	// Slot length follows the requested service; unknown services keep the
	// one-hour default.
	duration := 60
	if svc, err := s.resolveService(ctx, orgID, c.TipoServico); err == nil {
		duration = svc.DurationMinutes
	}

	busy, err := s.deps.Appointments.ListForDay(ctx, orgID, day)
	if err != nil {
		return nil, err
	}
	slots := appointments.FreeSlots(day, hours, busy, duration)
	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.Label())
	}
	return map[string]any{
		"success":         true,
		"data":            c.Data,
		"horarios":        labels,
		"duracao_servico": duration,
	}, nil
}

func (s *Service) criarPlanoAdestramento(ctx context.Context, orgID, contactID string, c CriarPlanoAdestramento) (map[string]any, error) {
	plan, err := s.deps.Training.Create(ctx, training.Plan{
		OrganizationID: orgID,
		PatientID:      c.PatientID,
		ContactID:      contactID,
		Goal:           strings.Join(c.Goals, "; "),
		SessionCount:   c.TotalSessions,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"plan_id": plan.ID,
		"message": fmt.Sprintf("Plano de adestramento criado com %d sessões!", plan.SessionCount),
	}, nil
}

func (s *Service) listarPlanosAdestramento(ctx context.Context, orgID string, c ListarPlanosAdestramento) (map[string]any, error) {
	plans, err := s.deps.Training.List(ctx, orgID, c.PatientID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]any{
			"id":       p.ID,
			"goal":     p.Goal,
			"sessions": p.SessionCount,
			"status":   p.Status,
		})
	}
	return map[string]any{"success": true, "plans": out}, nil
}

func (s *Service) criarReservaHospedagem(ctx context.Context, orgID, contactID string, c CriarReservaHospedagem) (map[string]any, error) {
	checkIn, err := time.ParseInLocation("2006-01-02", c.CheckInDate, time.Local)
	if err != nil {
		return map[string]any{"success": false, "error": "Data de entrada inválida."}, nil
	}
	checkOut, err := time.ParseInLocation("2006-01-02", c.CheckOutDate, time.Local)
	if err != nil {
		return map[string]any{"success": false, "error": "Data de saída inválida."}, nil
	}
	if !checkOut.After(checkIn) {
		return map[string]any{"success": false, "error": "A saída precisa ser depois da entrada."}, nil
	}

	stay, err := s.deps.Daycare.CreateStay(ctx, daycare.Stay{
		OrganizationID: orgID,
		PatientID:      c.PatientID,
		ContactID:      contactID,
		StayType:       c.StayType,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Notes:          c.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success":   true,
		"stay_id":   stay.ID,
		"stay_type": stay.StayType,
		"message": fmt.Sprintf("Reserva feita de %s a %s!",
			checkIn.Format("02/01"), checkOut.Format("02/01")),
	}, nil
}

func (s *Service) listarReservasHospedagem(ctx context.Context, orgID string, c ListarReservasHospedagem) (map[string]any, error) {
	stays, err := s.deps.Daycare.ListStays(ctx, orgID, c.PatientID, c.Status)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(stays))
	for _, st := range stays {
		out = append(out, map[string]any{
			"id":        st.ID,
			"stay_type": st.StayType,
			"check_in":  st.CheckIn.Format("2006-01-02"),
			"check_out": st.CheckOut.Format("2006-01-02"),
			"status":    st.Status,
		})
	}
	return map[string]any{"success": true, "stays": out}, nil
}

func (s *Service) consultarBipePet(ctx context.Context, orgID string, c ConsultarBipePet) (map[string]any, error) {
	pet, err := s.deps.Patients.Get(ctx, orgID, c.PatientID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return map[string]any{"success": false, "error": "Pet não encontrado."}, nil
		}
		return nil, err
	}
	return map[string]any{
		"success": true,
		"pet": map[string]any{
			"name":         pet.Name,
			"species":      patients.SpeciesPT(pet.Species),
			"breed":        pet.Breed,
			"health_notes": pet.HealthNotes,
		},
	}, nil
}

func (s *Service) adicionarAlertaSaude(ctx context.Context, orgID, contactID string, c AdicionarAlertaSaude) (map[string]any, error) {
	note := fmt.Sprintf("[%s] %s: %s", s.now().Format("02/01/2006"), c.Type, c.Description)
	if err := s.deps.Patients.AppendHealthNote(ctx, orgID, c.PatientID, note); err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return map[string]any{"success": false, "error": "Pet não encontrado."}, nil
		}
		return nil, err
	}
	if _, err := s.deps.Alerts.CreateHealthAlert(ctx, orgID, contactID, c.PatientID, c.Description); err != nil {
		if errors.Is(err, bipe.ErrNoActiveConversation) {
			return map[string]any{"success": false, "error": "Nenhuma conversa ativa para registrar o alerta."}, nil
		}
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": "Alerta de saúde registrado. A equipe foi avisada!",
	}, nil
}

func (s *Service) consultarBaseConhecimento(ctx context.Context, orgID string, c ConsultarBaseConhecimento) (map[string]any, error) {
	entries, err := s.deps.Knowledge.Search(ctx, orgID, c.Question, 3)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return map[string]any{"success": true, "found": false}, nil
	}
	best := entries[0]
	if err := s.deps.Knowledge.MarkUsed(ctx, orgID, best.ID); err != nil {
		s.logger.Warn("knowledge usage not recorded", "entry_id", best.ID, "error", err)
	}
	return map[string]any{
		"success": true,
		"found":   true,
		"answer":  best.Answer,
	}, nil
}

func (s *Service) escalarParaHumano(ctx context.Context, orgID string, cc *ClientContext, c EscalarParaHumano) (map[string]any, error) {
	if err := s.deps.Convos.Escalate(ctx, orgID, cc.Conversation.ID, c.Motivo); err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": "Conversa transferida para um atendente humano.",
	}, nil
}

func (s *Service) resolveService(ctx context.Context, orgID, tipo string) (*catalog.Service, error) {
	svc, err := s.deps.Catalog.GetByCategory(ctx, orgID, tipo)
	if err == nil {
		return svc, nil
	}
	if !errors.Is(err, catalog.ErrServiceNotFound) {
		return nil, err
	}
	// No category match: fall back to a name search across the catalog.
	services, listErr := s.deps.Catalog.ListActive(ctx, orgID)
	if listErr != nil {
		return nil, listErr
	}
	needle := strings.ToLower(tipo)
	for i := range services {
		if strings.Contains(strings.ToLower(services[i].Name), needle) {
			return &services[i], nil
		}
	}
	return nil, catalog.ErrServiceNotFound
}

func findPetByName(pets []patients.Patient, name string) *patients.Patient {
	if name == "" {
		if len(pets) == 1 {
			return &pets[0]
		}
		return nil
	}
	needle := strings.ToLower(name)
	for i := range pets {
		if strings.ToLower(pets[i].Name) == needle {
			return &pets[i]
		}
	}
	return nil
}

func toolJSON(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return toolError("Falha ao montar a resposta.")
	}
	return string(data)
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]any{"success": false, "error": msg})
	return string(data)
}
