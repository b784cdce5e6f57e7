package aurora

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oxypet/petcare-ai-platform/internal/appointments"
	"github.com/oxypet/petcare-ai-platform/internal/catalog"
	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// BusinessContext is the full-business snapshot injected into the system
// prompt: catalog, trailing-week analytics and the pet base. Every branch
// degrades independently so a broken query costs one section, not the turn.
type BusinessContext struct {
	BusinessName string
	Settings     *org.Settings

	Services []catalog.Service

	WeekCounts       appointments.StatusCounts
	WeekRevenueCents int64
	TopService       string

	Species      []patients.SpeciesCount
	CommonBreeds []string
}

// TotalPets sums the species buckets.
func (bc *BusinessContext) TotalPets() int {
	total := 0
	for _, sc := range bc.Species {
		total += sc.Count
	}
	return total
}

// AvgTicketCents is week revenue over completed bookings. Zero completed
// bookings yields zero.
func (bc *BusinessContext) AvgTicketCents() int64 {
	if bc.WeekCounts.Completed == 0 {
		return 0
	}
	return bc.WeekRevenueCents / int64(bc.WeekCounts.Completed)
}

type businessContextDeps struct {
	settings     settingsStore
	catalog      catalogStore
	appointments appointmentStore
	patients     patientStore
	logger       *logging.Logger
}

func (d businessContextDeps) build(ctx context.Context, orgID string, now time.Time) *BusinessContext {
	bc := &BusinessContext{BusinessName: "Seu negócio"}
	weekAgo := now.AddDate(0, 0, -7)

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		settings, err := d.settings.Get(ctx, orgID)
		if err != nil {
			d.logger.Warn("settings unavailable for business context", "org_id", orgID, "error", err)
			return
		}
		bc.Settings = settings
		if settings.BusinessName != "" {
			bc.BusinessName = settings.BusinessName
		}
	}()

	go func() {
		defer wg.Done()
		services, err := d.catalog.ListActive(ctx, orgID)
		if err != nil {
			d.logger.Warn("catalog unavailable for business context", "org_id", orgID, "error", err)
			return
		}
		bc.Services = services

		revenue, err := d.catalog.Revenue(ctx, orgID, weekAgo, now)
		if err != nil {
			d.logger.Warn("service revenue unavailable", "org_id", orgID, "error", err)
			return
		}
		if len(revenue) > 0 {
			bc.TopService = revenue[0].ServiceName
		}
	}()

	go func() {
		defer wg.Done()
		counts, err := d.appointments.CountsByStatus(ctx, orgID, weekAgo, now)
		if err != nil {
			d.logger.Warn("week analytics unavailable", "org_id", orgID, "error", err)
			return
		}
		bc.WeekCounts = counts

		revenue, err := d.appointments.RevenueCents(ctx, orgID, weekAgo, now)
		if err != nil {
			d.logger.Warn("week revenue unavailable", "org_id", orgID, "error", err)
			return
		}
		bc.WeekRevenueCents = revenue
	}()

	go func() {
		defer wg.Done()
		species, err := d.patients.SpeciesDistribution(ctx, orgID)
		if err != nil {
			d.logger.Warn("species distribution unavailable", "org_id", orgID, "error", err)
			return
		}
		bc.Species = species

		breeds, err := d.patients.CommonBreeds(ctx, orgID, 5)
		if err != nil {
			d.logger.Warn("common breeds unavailable", "org_id", orgID, "error", err)
			return
		}
		bc.CommonBreeds = breeds
	}()

	wg.Wait()
	return bc
}

// FormatForPrompt renders the snapshot as the context block appended to the
// system prompt.
func (bc *BusinessContext) FormatForPrompt(ownerName string) string {
	var b strings.Builder
	b.WriteString("\n\n===== CONTEXTO COMPLETO DO NEGÓCIO =====\n\n")
	fmt.Fprintf(&b, "ORGANIZAÇÃO: %s\n", bc.BusinessName)
	if ownerName != "" {
		fmt.Fprintf(&b, "DONO: %s\n", ownerName)
	}

	b.WriteString("\nCONFIGURAÇÕES:\n")
	if bc.Settings != nil && bc.Settings.OperatingHours.Valid() {
		b.WriteString("- Horários de funcionamento:\n")
		b.WriteString(bc.Settings.OperatingHours.Format())
		b.WriteString("\n")
	} else {
		b.WriteString("- Horários de funcionamento: não configurados\n")
	}

	fmt.Fprintf(&b, "\nSERVIÇOS OFERECIDOS (%d total):\n", len(bc.Services))
	if len(bc.Services) == 0 {
		b.WriteString("Nenhum serviço cadastrado\n")
	}
	for _, svc := range bc.Services {
		fmt.Fprintf(&b, "- %s (%s): R$ %s", svc.Name, svc.Category, formatReais(int64(svc.PriceCents)))
		if svc.DurationMinutes > 0 {
			fmt.Fprintf(&b, ", %d min", svc.DurationMinutes)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nANALYTICS - ÚLTIMA SEMANA:\n")
	fmt.Fprintf(&b, "- Agendamentos totais: %d\n", bc.WeekCounts.Total)
	fmt.Fprintf(&b, "- Agendamentos completados: %d\n", bc.WeekCounts.Completed)
	fmt.Fprintf(&b, "- Cancelamentos: %d\n", bc.WeekCounts.Cancelled)
	fmt.Fprintf(&b, "- No-shows: %d\n", bc.WeekCounts.NoShow)
	fmt.Fprintf(&b, "- Taxa de conclusão: %.0f%%\n", bc.WeekCounts.CompletionRate())
	fmt.Fprintf(&b, "- Receita da semana: R$ %s\n", formatReais(bc.WeekRevenueCents))
	fmt.Fprintf(&b, "- Ticket médio: R$ %s\n", formatReais(bc.AvgTicketCents()))
	top := bc.TopService
	if top == "" {
		top = "N/A"
	}
	fmt.Fprintf(&b, "- Serviço mais vendido: %s\n", top)

	b.WriteString("\nBASE DE CLIENTES E PETS:\n")
	fmt.Fprintf(&b, "- Total de pets cadastrados: %d\n", bc.TotalPets())
	if len(bc.Species) > 0 {
		parts := make([]string, 0, len(bc.Species))
		for _, sc := range bc.Species {
			parts = append(parts, fmt.Sprintf("%s: %d", patients.SpeciesPT(sc.Species), sc.Count))
		}
		fmt.Fprintf(&b, "- Distribuição por espécie: %s\n", strings.Join(parts, ", "))
	} else {
		b.WriteString("- Distribuição por espécie: Nenhum pet cadastrado\n")
	}
	if len(bc.CommonBreeds) > 0 {
		fmt.Fprintf(&b, "- Raças mais comuns: %s\n", strings.Join(bc.CommonBreeds, ", "))
	} else {
		b.WriteString("- Raças mais comuns: N/A\n")
	}

	b.WriteString("\n=========================================")
	return b.String()
}

// formatReais renders cents as a BR-style decimal string.
func formatReais(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}
