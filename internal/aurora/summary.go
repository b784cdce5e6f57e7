package aurora

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DailySummary renders the morning WhatsApp digest for the owner: today's
// agenda outcome, tomorrow's load, training and daycare activity plus any
// nudges the numbers justify.
func (s *Service) DailySummary(ctx context.Context, orgID string) (string, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	counts, err := s.deps.Appointments.CountsByStatus(ctx, orgID, today, tomorrow)
	if err != nil {
		return "", fmt.Errorf("aurora: daily summary: %w", err)
	}
	tomorrowCount, err := s.deps.Appointments.CountBetween(ctx, orgID, tomorrow, dayAfter)
	if err != nil {
		return "", fmt.Errorf("aurora: daily summary: %w", err)
	}

	activePlans, err := s.deps.Training.CountActive(ctx, orgID)
	if err != nil {
		s.logger.Warn("training count unavailable for summary", "org_id", orgID, "error", err)
	}
	checkIns, err := s.deps.Daycare.CheckInsBetween(ctx, orgID, today, tomorrow)
	if err != nil {
		s.logger.Warn("daycare check-ins unavailable for summary", "org_id", orgID, "error", err)
	}
	checkOuts, err := s.deps.Daycare.CheckOutsBetween(ctx, orgID, today, tomorrow)
	if err != nil {
		s.logger.Warn("daycare check-outs unavailable for summary", "org_id", orgID, "error", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Resumo do Dia* - %s\n\n", today.Format("02/01/2006"))

	b.WriteString("*Agendamentos Hoje:*\n")
	fmt.Fprintf(&b, "✅ Completados: %d\n", counts.Completed)
	fmt.Fprintf(&b, "❌ Cancelamentos: %d\n", counts.Cancelled)
	fmt.Fprintf(&b, "⚠️ No-shows: %d\n", counts.NoShow)
	fmt.Fprintf(&b, "📋 Total: %d\n\n", counts.Total)

	b.WriteString("*Amanhã:*\n")
	fmt.Fprintf(&b, "📅 %d agendamentos previstos\n\n", tomorrowCount)

	b.WriteString("*🎓 Treinamento:*\n")
	fmt.Fprintf(&b, "%d planos ativos\n\n", activePlans)

	b.WriteString("*🏨 Hospedagem/Daycare:*\n")
	fmt.Fprintf(&b, "Check-ins hoje: %d\n", checkIns)
	fmt.Fprintf(&b, "Check-outs hoje: %d\n\n", checkOuts)

	if counts.NoShow > 0 {
		fmt.Fprintf(&b, "⚠️ *Atenção:* %d no-show(s) hoje. Considere lembretes mais próximos do horário.\n\n", counts.NoShow)
	}
	if tomorrowCount < s.deps.Thresholds.SummaryMinBookings {
		fmt.Fprintf(&b, "💡 *Oportunidade:* Agenda amanhã com %d agendamentos. Campanha de última hora?\n", tomorrowCount)
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// Opportunities scans the org's data for actionable gaps. Each branch
// degrades independently: a failed query drops its suggestion, never the
// whole report.
func (s *Service) Opportunities(ctx context.Context, orgID string) []string {
	now := s.now()
	threeDays := now.AddDate(0, 0, 3)
	var out []string

	inactiveDays := s.deps.Thresholds.InactiveContactDays
	inactive, err := s.deps.Contacts.CountInactive(ctx, orgID, inactiveDays)
	if err != nil {
		s.logger.Warn("inactive count unavailable", "org_id", orgID, "error", err)
	} else if inactive > 0 {
		out = append(out, fmt.Sprintf(
			"🔄 %d clientes sem interação há mais de %d dias. Campanha de reativação?",
			inactive, inactiveDays))
	}

	upcoming, err := s.deps.Appointments.CountBetween(ctx, orgID, now, threeDays)
	if err != nil {
		s.logger.Warn("upcoming count unavailable", "org_id", orgID, "error", err)
	} else if upcoming < s.deps.Thresholds.LowAgendaBookings {
		out = append(out, fmt.Sprintf(
			"📅 Apenas %d agendamentos nos próximos 3 dias. Hora de preencher a agenda!",
			upcoming))
	}

	untrained, err := s.deps.Patients.CountWithoutActiveTraining(ctx, orgID)
	if err != nil {
		s.logger.Warn("training gap unavailable", "org_id", orgID, "error", err)
	} else if untrained > 5 {
		out = append(out, fmt.Sprintf(
			"🎓 %d pets sem plano de adestramento ativo. Campanha de treinamento comportamental?",
			untrained))
	}

	stays, err := s.deps.Daycare.CheckInsBetween(ctx, orgID, now, threeDays)
	if err != nil {
		s.logger.Warn("daycare bookings unavailable", "org_id", orgID, "error", err)
	} else if stays < 3 {
		out = append(out, fmt.Sprintf(
			"🏨 Apenas %d reservas de hospedagem nos próximos 3 dias. Feriados chegando - promover daycare/hotel?",
			stays))
	}

	entries, err := s.deps.Knowledge.Count(ctx, orgID)
	if err != nil {
		s.logger.Warn("knowledge count unavailable", "org_id", orgID, "error", err)
	} else if entries < 10 {
		out = append(out, fmt.Sprintf(
			"📚 Base de conhecimento tem apenas %d entradas. Adicionar FAQs reduz tempo de resposta da IA!",
			entries))
	}

	return out
}
