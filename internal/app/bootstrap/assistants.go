package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/oxypet/petcare-ai-platform/internal/appointments"
	"github.com/oxypet/petcare-ai-platform/internal/aurora"
	"github.com/oxypet/petcare-ai-platform/internal/bipe"
	"github.com/oxypet/petcare-ai-platform/internal/catalog"
	"github.com/oxypet/petcare-ai-platform/internal/clientai"
	appconfig "github.com/oxypet/petcare-ai-platform/internal/config"
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
	"github.com/oxypet/petcare-ai-platform/internal/whatsapp"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// Services bundles the two assistants built over one shared repository set.
type Services struct {
	ClientAI *clientai.Service
	Aurora   *aurora.Service
	Metrics  *metrics.AIMetrics
}

// BuildServices wires repositories, the LLM gateway and both assistants.
// Redis is required: the owner assistant keeps its conversation history there.
func BuildServices(pool *pgxpool.Pool, rdb *redis.Client, chat llm.ChatClient, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer) (*Services, error) {
	if pool == nil {
		return nil, fmt.Errorf("bootstrap: postgres pool is required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("bootstrap: redis client is required")
	}
	if chat == nil {
		return nil, fmt.Errorf("bootstrap: chat client is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	settingsRepo := org.NewSettingsRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	contactsRepo := contacts.NewRepository(pool)
	patientsRepo := patients.NewRepository(pool)
	apptsRepo := appointments.NewRepository(pool)
	convosRepo := convo.NewRepository(pool)
	trainingRepo := training.NewRepository(pool)
	daycareRepo := daycare.NewRepository(pool)
	knowledgeRepo := knowledge.NewRepository(pool)
	interactions := llm.NewInteractionStore(pool)
	variations := variation.NewService(pool, logger)

	sender := whatsapp.NewLogSender(logger)
	alerts := bipe.NewService(pool, convosRepo, settingsRepo, sender, logger)
	hours := appointments.NewHoursChecker(settingsRepo, logger, cfg.HoursFailOpen)
	aiMetrics := metrics.NewAIMetrics(reg)

	clientSvc := clientai.NewService(clientai.Deps{
		Chat:         chat,
		Profile:      llm.ClientProfile(cfg.ClientModel),
		Interactions: interactions,
		Settings:     settingsRepo,
		Catalog:      catalogRepo,
		Contacts:     contactsRepo,
		Patients:     patientsRepo,
		Convos:       convosRepo,
		Appointments: apptsRepo,
		Training:     trainingRepo,
		Daycare:      daycareRepo,
		Knowledge:    knowledgeRepo,
		Alerts:       alerts,
		Variations:   variations,
		Hours:        hours,
		Metrics:      aiMetrics,
		Logger:       logger,
	})

	auroraSvc := aurora.NewService(aurora.Deps{
		Chat:         chat,
		Profile:      llm.AuroraProfile(cfg.AuroraModel),
		Interactions: interactions,
		Settings:     settingsRepo,
		Catalog:      catalogRepo,
		Appointments: apptsRepo,
		Patients:     patientsRepo,
		Contacts:     contactsRepo,
		Training:     trainingRepo,
		Daycare:      daycareRepo,
		Knowledge:    knowledgeRepo,
		Help:         alerts,
		Variations:   variations,
		History:      aurora.NewHistoryStore(rdb, nil),
		Thresholds: aurora.Thresholds{
			InactiveContactDays: cfg.InactiveContactDays,
			LowAgendaBookings:   cfg.LowAgendaThreshold,
			SummaryMinBookings:  cfg.DailySummaryMinimums,
		},
		Metrics: aiMetrics,
		Logger:  logger,
	})

	return &Services{ClientAI: clientSvc, Aurora: auroraSvc, Metrics: aiMetrics}, nil
}
