// Package aurora is the owner-facing assistant. It answers WhatsApp messages
// from the business owner with analytics, financial metrics and campaign
// suggestions drawn from the org's own data.
package aurora

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
	"github.com/oxypet/petcare-ai-platform/internal/knowledge"
	"github.com/oxypet/petcare-ai-platform/internal/llm"
	"github.com/oxypet/petcare-ai-platform/internal/observability/metrics"
	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
	"github.com/oxypet/petcare-ai-platform/internal/personality"
	"github.com/oxypet/petcare-ai-platform/internal/variation"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

const agentName = "aurora"

const conversationIntent = "aurora_conversation"

type settingsStore interface {
	Get(ctx context.Context, orgID string) (*org.Settings, error)
}

type catalogStore interface {
	ListActive(ctx context.Context, orgID string) ([]catalog.Service, error)
	Revenue(ctx context.Context, orgID string, from, to time.Time) ([]catalog.ServiceRevenue, error)
}

type appointmentStore interface {
	CountsByStatus(ctx context.Context, orgID string, from, to time.Time) (appointments.StatusCounts, error)
	CountBetween(ctx context.Context, orgID string, from, to time.Time) (int, error)
	RevenueCents(ctx context.Context, orgID string, from, to time.Time) (int64, error)
}

type patientStore interface {
	SpeciesDistribution(ctx context.Context, orgID string) ([]patients.SpeciesCount, error)
	CommonBreeds(ctx context.Context, orgID string, limit int) ([]string, error)
	Search(ctx context.Context, orgID, species, breed string) ([]patients.Patient, error)
	CountWithoutActiveTraining(ctx context.Context, orgID string) (int, error)
}

type contactStore interface {
	FindByPhone(ctx context.Context, orgID, phone string) (*contacts.Contact, error)
	FindInactive(ctx context.Context, orgID string, days, limit int) ([]contacts.InactiveContact, error)
	CountInactive(ctx context.Context, orgID string, days int) (int, error)
}

type trainingStore interface {
	CountActive(ctx context.Context, orgID string) (int, error)
}

type daycareStore interface {
	CheckInsBetween(ctx context.Context, orgID string, from, to time.Time) (int, error)
	CheckOutsBetween(ctx context.Context, orgID string, from, to time.Time) (int, error)
}

type knowledgeStore interface {
	Search(ctx context.Context, orgID, query string, limit int) ([]knowledge.Entry, error)
	MarkUsed(ctx context.Context, orgID, entryID string) error
	Count(ctx context.Context, orgID string) (int, error)
}

type helpService interface {
	CreateTechnicalHelp(ctx context.Context, orgID, question string) (*bipe.Entry, error)
}

type variationService interface {
	ErrorMessage(ctx context.Context, orgID, errorContext string) string
	TimeBasedGreeting(ctx context.Context, orgID, aiName string) string
}

type historyStore interface {
	Load(ctx context.Context, orgID, ownerPhone string) ([]HistoryMessage, error)
	Save(ctx context.Context, orgID, ownerPhone string, msgs []HistoryMessage) error
}

type interactionRecorder interface {
	Record(ctx context.Context, in llm.Interaction) error
}

// Thresholds tune the proactive reports. Zero values fall back to the
// defaults below.
type Thresholds struct {
	InactiveContactDays int // default 30
	LowAgendaBookings   int // default 10, next-3-days warning
	SummaryMinBookings  int // default 5, tomorrow's agenda nudge
}

func (t Thresholds) withDefaults() Thresholds {
	if t.InactiveContactDays <= 0 {
		t.InactiveContactDays = 30
	}
	if t.LowAgendaBookings <= 0 {
		t.LowAgendaBookings = 10
	}
	if t.SummaryMinBookings <= 0 {
		t.SummaryMinBookings = 5
	}
	return t
}

// Deps collects everything the owner assistant needs. All fields are
// required unless noted.
type Deps struct {
	Chat         llm.ChatClient
	Profile      llm.SamplingProfile
	Prices       llm.PriceTable
	Interactions interactionRecorder

	Settings     settingsStore
	Catalog      catalogStore
	Appointments appointmentStore
	Patients     patientStore
	Contacts     contactStore
	Training     trainingStore
	Daycare      daycareStore
	Knowledge    knowledgeStore
	Help         helpService
	Variations   variationService
	History      historyStore

	Thresholds Thresholds         // optional
	Metrics    *metrics.AIMetrics // optional
	Logger     *logging.Logger    // optional
	Now        func() time.Time   // optional, for tests
}

// Service runs the two-turn completion pipeline for owner messages.
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
		panic("aurora: chat client required")
	case deps.Interactions == nil:
		panic("aurora: interaction store required")
	case deps.Settings == nil:
		panic("aurora: settings store required")
	case deps.Catalog == nil:
		panic("aurora: catalog store required")
	case deps.Appointments == nil:
		panic("aurora: appointment store required")
	case deps.Patients == nil:
		panic("aurora: patient store required")
	case deps.Contacts == nil:
		panic("aurora: contact store required")
	case deps.Training == nil:
		panic("aurora: training store required")
	case deps.Daycare == nil:
		panic("aurora: daycare store required")
	case deps.Knowledge == nil:
		panic("aurora: knowledge store required")
	case deps.Help == nil:
		panic("aurora: help service required")
	case deps.Variations == nil:
		panic("aurora: variation service required")
	case deps.History == nil:
		panic("aurora: history store required")
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
	deps.Thresholds = deps.Thresholds.withDefaults()
	return &Service{deps: deps, logger: deps.Logger, metrics: deps.Metrics, now: deps.Now}
}

// ProcessOwnerMessage answers one inbound owner message. It never returns an
// error and never returns an empty reply: any failure inside the pipeline
// degrades to a humanized system-error response.
func (s *Service) ProcessOwnerMessage(ctx context.Context, orgID, ownerPhone, ownerName, text string) (reply string) {
	started := s.now()
	trace := &turnTrace{svc: s, orgID: orgID, owner: ownerPhone, state: stateReceived}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("owner turn panicked", "org_id", orgID, "panic", r)
			s.metrics.ObserveCompletion(agentName, "error")
			trace.to(stateFallbackReplied)
			reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextSystemError)
		}
		s.metrics.ObserveTurnLatency(agentName, s.now().Sub(started).Seconds())
	}()

	var err error
	reply, err = s.processOwnerMessage(ctx, orgID, ownerPhone, ownerName, text, trace)
	if err != nil {
		s.logger.Error("owner turn failed", "org_id", orgID, "error", err)
		s.metrics.ObserveCompletion(agentName, "error")
		reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextSystemError)
		trace.to(stateFallbackReplied)
	}
	return reply
}

func (s *Service) processOwnerMessage(ctx context.Context, orgID, ownerPhone, ownerName, text string, trace *turnTrace) (string, error) {
	bc := businessContextDeps{
		settings:     s.deps.Settings,
		catalog:      s.deps.Catalog,
		appointments: s.deps.Appointments,
		patients:     s.deps.Patients,
		logger:       s.logger,
	}.build(ctx, orgID, s.now())

	history, err := s.deps.History.Load(ctx, orgID, ownerPhone)
	if err != nil {
		s.logger.Warn("owner history unavailable", "org_id", orgID, "error", err)
	}

	system := fallbackSystemPrompt
	if bc.Settings != nil {
		system = buildSystemPrompt(bc.Settings, ownerName)
	}
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system + bc.FormatForPrompt(ownerName)},
	}
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
	trace.to(statePromptBuilt)

	first, err := s.complete(ctx, msgs, true)
	if err != nil {
		return "", err
	}
	trace.to(stateFirstCompletion)
	s.recordInteraction(ctx, orgID, first, intentOf(first))

	var reply string
	if fc := functionCall(first); fc != nil {
		trace.to(stateToolSelected)
		result := s.runFunction(ctx, orgID, *fc)
		trace.to(stateToolExecuted)

		msgs = append(msgs, first.Choices[0].Message)
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleFunction,
			Name:    fc.Name,
			Content: result,
		})

		second, err := s.complete(ctx, msgs, false)
		if err != nil {
			return "", err
		}
		trace.to(stateSecondCompletion)
		s.recordInteraction(ctx, orgID, second, intentOf(first))

		reply = firstContent(second)
		if strings.TrimSpace(reply) == "" {
			reply = s.deps.Variations.ErrorMessage(ctx, orgID, variation.ContextSystemError)
		}
	} else {
		reply = firstContent(first)
		if strings.TrimSpace(reply) == "" {
			reply = s.deps.Variations.TimeBasedGreeting(ctx, orgID, s.assistantName(bc))
		}
	}

	history = append(history,
		HistoryMessage{Role: openai.ChatMessageRoleUser, Content: text},
		HistoryMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
	if err := s.deps.History.Save(ctx, orgID, ownerPhone, history); err != nil {
		s.logger.Warn("owner history not persisted", "org_id", orgID, "error", err)
	}

	s.metrics.ObserveCompletion(agentName, "ok")
	trace.to(stateReplied)
	return reply, nil
}

func (s *Service) assistantName(bc *BusinessContext) string {
	if bc.Settings == nil {
		return "Aurora"
	}
	return personality.Parse(bc.Settings.PersonalityConfig).Aurora.Name
}

func (s *Service) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, withFunctions bool) (openai.ChatCompletionResponse, error) {
	req := openai.ChatCompletionRequest{Messages: msgs}
	if withFunctions {
		req.Functions = FunctionDefinitions()
		req.FunctionCall = "auto"
	}
	s.deps.Profile.Apply(&req)

	callCtx, cancel := s.deps.Profile.CallContext(ctx)
	defer cancel()

	resp, err := s.deps.Chat.CreateChatCompletion(callCtx, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("aurora: completion: %w", err)
	}
	s.metrics.ObserveTokens(agentName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp, nil
}

// recordInteraction logs usage and cost. The owner agent records no contact:
// the conversation belongs to the org, not a customer.
func (s *Service) recordInteraction(ctx context.Context, orgID string, resp openai.ChatCompletionResponse, intent string) {
	in := llm.Interaction{
		OrganizationID:   orgID,
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

func functionCall(resp openai.ChatCompletionResponse) *openai.FunctionCall {
	if len(resp.Choices) == 0 {
		return nil
	}
	return resp.Choices[0].Message.FunctionCall
}

func intentOf(resp openai.ChatCompletionResponse) string {
	if fc := functionCall(resp); fc != nil {
		return fc.Name
	}
	return conversationIntent
}

// runFunction executes one parsed function call and returns the JSON fed
// back to the model. Parse and execution failures both become error results
// so the model can apologize gracefully.
func (s *Service) runFunction(ctx context.Context, orgID string, fc openai.FunctionCall) string {
	parsed, err := ParseFunctionCall(fc.Name, fc.Arguments)
	if err != nil {
		s.logger.Warn("function call rejected", "function", fc.Name, "error", err)
		s.metrics.ObserveToolCall(agentName, fc.Name, "parse_error")
		return resultJSON(map[string]any{"error": "Função não encontrada"})
	}

	result, err := s.executeFunction(ctx, orgID, parsed)
	if err != nil {
		s.logger.Error("function execution failed", "function", parsed.FunctionName(), "error", err)
		s.metrics.ObserveToolCall(agentName, parsed.FunctionName(), "error")
		return resultJSON(map[string]any{"error": "Tive um problema ao buscar esses dados."})
	}
	s.metrics.ObserveToolCall(agentName, parsed.FunctionName(), "ok")
	return resultJSON(result)
}

func (s *Service) executeFunction(ctx context.Context, orgID string, call FunctionCall) (map[string]any, error) {
	switch c := call.(type) {
	case BuscarAnalytics:
		return s.buscarAnalytics(ctx, orgID, c)
	case ListarClientesInativos:
		return s.listarClientesInativos(ctx, orgID, c)
	case SugerirCampanha:
		return s.sugerirCampanha(c), nil
	case BuscarServicos:
		return s.buscarServicos(ctx, orgID, c)
	case BuscarPets:
		return s.buscarPets(ctx, orgID, c)
	case CalcularMetricasFinanceiras:
		return s.calcularMetricas(ctx, orgID, c)
	case TransferirParaAtendimentoCliente:
		return s.transferirParaAtendimento(ctx, orgID, c)
	case SolicitarAjudaTecnica:
		return s.solicitarAjudaTecnica(ctx, orgID, c)
	case ConsultarBaseConhecimentoInterna:
		return s.consultarBaseConhecimento(ctx, orgID, c)
	default:
		return nil, fmt.Errorf("aurora: unhandled function %T", call)
	}
}

func (s *Service) buscarAnalytics(ctx context.Context, orgID string, c BuscarAnalytics) (map[string]any, error) {
	from, to := PeriodRange(c.Periodo, s.now())
	counts, err := s.deps.Appointments.CountsByStatus(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := s.deps.Appointments.RevenueCents(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"periodo":            c.Periodo,
		"total_agendamentos": counts.Total,
		"completados":        counts.Completed,
		"cancelados":         counts.Cancelled,
		"no_shows":           counts.NoShow,
		"taxa_conclusao":     fmt.Sprintf("%.0f%%", counts.CompletionRate()),
		"receita_reais":      formatReais(revenue),
	}, nil
}

func (s *Service) listarClientesInativos(ctx context.Context, orgID string, c ListarClientesInativos) (map[string]any, error) {
	days := c.Dias
	if days <= 0 {
		days = s.deps.Thresholds.InactiveContactDays
	}
	inactive, err := s.deps.Contacts.FindInactive(ctx, orgID, days, 10)
	if err != nil {
		return nil, err
	}
	list := make([]map[string]any, 0, len(inactive))
	for _, ic := range inactive {
		list = append(list, map[string]any{
			"nome":         ic.FullName,
			"telefone":     ic.PhoneNumber,
			"dias_inativo": ic.DaysInactive,
		})
	}
	return map[string]any{
		"total":            len(inactive),
		"dias_inatividade": days,
		"clientes":         list,
	}, nil
}

var campaignIdeas = map[string]string{
	"reativacao":  "Mensagem personalizada para clientes inativos oferecendo 15% de desconto no próximo serviço.",
	"promocional": "Pacote promocional combinando banho e tosa com preço especial durante a semana.",
	"aniversario": "Mensagem de parabéns no aniversário do pet com brinde ou desconto exclusivo.",
}

func (s *Service) sugerirCampanha(c SugerirCampanha) map[string]any {
	idea, ok := campaignIdeas[c.Tipo]
	if !ok {
		idea = campaignIdeas["promocional"]
	}
	return map[string]any{
		"success":  true,
		"tipo":     c.Tipo,
		"sugestao": idea,
		"message":  "Campanha criada! Deseja que eu a execute automaticamente?",
	}
}

func (s *Service) buscarServicos(ctx context.Context, orgID string, c BuscarServicos) (map[string]any, error) {
	services, err := s.deps.Catalog.ListActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	list := make([]map[string]any, 0, len(services))
	for _, svc := range services {
		if c.Categoria != "" && c.Categoria != "all" && !strings.EqualFold(svc.Category, c.Categoria) {
			continue
		}
		list = append(list, map[string]any{
			"nome":            svc.Name,
			"categoria":       svc.Category,
			"preco_reais":     formatReais(int64(svc.PriceCents)),
			"duracao_minutos": svc.DurationMinutes,
		})
	}
	return map[string]any{"total": len(list), "servicos": list}, nil
}

func (s *Service) buscarPets(ctx context.Context, orgID string, c BuscarPets) (map[string]any, error) {
	pets, err := s.deps.Patients.Search(ctx, orgID, c.Especie, c.Raca)
	if err != nil {
		return nil, err
	}
	list := make([]map[string]any, 0, len(pets))
	for _, p := range pets {
		breed := p.Breed
		if breed == "" {
			breed = "SRD"
		}
		idade := "N/A"
		if p.AgeYears > 0 || p.AgeMonths > 0 {
			idade = fmt.Sprintf("%d anos", p.AgeYears)
			if p.AgeYears == 0 {
				idade = fmt.Sprintf("%d meses", p.AgeMonths)
			}
		}
		list = append(list, map[string]any{
			"nome":    p.Name,
			"especie": patients.SpeciesPT(p.Species),
			"raca":    breed,
			"idade":   idade,
		})
	}
	return map[string]any{"total": len(list), "pets": list}, nil
}

func (s *Service) calcularMetricas(ctx context.Context, orgID string, c CalcularMetricasFinanceiras) (map[string]any, error) {
	now := s.now()
	from, to := PeriodRange(c.Periodo, now)

	revenue, err := s.deps.Appointments.RevenueCents(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Appointments.CountBetween(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}

	var avgTicket int64
	if total > 0 {
		avgTicket = revenue / int64(total)
	}

	topRevenue, err := s.deps.Catalog.Revenue(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	if len(topRevenue) > 3 {
		topRevenue = topRevenue[:3]
	}
	topServices := make([]map[string]any, 0, len(topRevenue))
	for _, r := range topRevenue {
		topServices = append(topServices, map[string]any{
			"servico":       r.ServiceName,
			"receita_reais": formatReais(r.TotalRevenueCents),
			"agendamentos":  r.TotalBookings,
		})
	}

	result := map[string]any{
		"periodo":             c.Periodo,
		"receita_total_reais": formatReais(revenue),
		"total_agendamentos":  total,
		"ticket_medio_reais":  formatReais(avgTicket),
		"top_servicos":        topServices,
	}

	if c.Compare() {
		// Previous window: same length, ending where this one starts.
		prevFrom := from.Add(-to.Sub(from))
		prevRevenue, err := s.deps.Appointments.RevenueCents(ctx, orgID, prevFrom, from)
		if err != nil {
			return nil, err
		}
		prevTotal, err := s.deps.Appointments.CountBetween(ctx, orgID, prevFrom, from)
		if err != nil {
			return nil, err
		}
		result["comparacao"] = map[string]any{
			"receita_periodo_anterior_reais":  formatReais(prevRevenue),
			"crescimento_receita_percentual":  growthPercent(float64(revenue), float64(prevRevenue)),
			"crescimento_bookings_percentual": growthPercent(float64(total), float64(prevTotal)),
		}
	}
	return result, nil
}

// growthPercent renders signed growth vs the previous value. A zero previous
// value yields 0% instead of a division blowup.
func growthPercent(current, previous float64) string {
	if previous == 0 {
		return "0.0%"
	}
	pct := (current - previous) / previous * 100
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func (s *Service) transferirParaAtendimento(ctx context.Context, orgID string, c TransferirParaAtendimentoCliente) (map[string]any, error) {
	if c.TelefoneCliente == "" {
		return map[string]any{
			"success": true,
			"acao":    "orientacao",
			"motivo":  c.Motivo,
			"message": "Para assuntos de um cliente específico, me passe o telefone dele que eu direciono para a assistente de atendimento.",
		}, nil
	}
	contact, err := s.deps.Contacts.FindByPhone(ctx, orgID, c.TelefoneCliente)
	if err != nil {
		if errors.Is(err, contacts.ErrContactNotFound) {
			return map[string]any{
				"success": false,
				"error":   "Não encontrei nenhum cliente com esse telefone.",
			}, nil
		}
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"acao":     "transferido",
		"cliente":  contact.FullName,
		"telefone": contact.PhoneNumber,
		"motivo":   c.Motivo,
		"contexto": c.Contexto,
		"message":  fmt.Sprintf("Assunto de %s encaminhado para a assistente de atendimento.", contact.FullName),
	}, nil
}

func (s *Service) solicitarAjudaTecnica(ctx context.Context, orgID string, c SolicitarAjudaTecnica) (map[string]any, error) {
	urgency := c.Urgencia
	if urgency == "" {
		urgency = "media"
	}
	question := fmt.Sprintf("[%s/%s] %s", c.TipoAjuda, urgency, c.Descricao)
	if _, err := s.deps.Help.CreateTechnicalHelp(ctx, orgID, question); err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": "Pedido de ajuda registrado! A equipe vai te retornar em breve.",
	}, nil
}

func (s *Service) consultarBaseConhecimento(ctx context.Context, orgID string, c ConsultarBaseConhecimentoInterna) (map[string]any, error) {
	entries, err := s.deps.Knowledge.Search(ctx, orgID, c.Pergunta, 3)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return map[string]any{
			"success": true,
			"found":   false,
			"message": "Não encontrei nada sobre isso na base de conhecimento.",
		}, nil
	}
	best := entries[0]
	if err := s.deps.Knowledge.MarkUsed(ctx, orgID, best.ID); err != nil {
		s.logger.Warn("knowledge usage not recorded", "entry_id", best.ID, "error", err)
	}
	return map[string]any{
		"success":  true,
		"found":    true,
		"pergunta": best.Question,
		"resposta": best.Answer,
	}, nil
}

func resultJSON(v map[string]any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal"}`
	}
	return string(raw)
}
