package clientai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oxypet/petcare-ai-platform/internal/appointments"
	"github.com/oxypet/petcare-ai-platform/internal/contacts"
	"github.com/oxypet/petcare-ai-platform/internal/convo"
	"github.com/oxypet/petcare-ai-platform/internal/patients"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

const historyDepth = 5

// ClientContext is everything the assistant knows about the customer when a
// message arrives.
type ClientContext struct {
	Contact      *contacts.Contact
	Patients     []patients.Patient
	History      []convo.Message
	Recent       []appointments.Appointment
	Upcoming     []appointments.Appointment
	Conversation *convo.Conversation
}

type contextDeps struct {
	contacts     contactStore
	patients     patientStore
	convos       conversationStore
	appointments appointmentStore
	logger       *logging.Logger
}

// buildContext gathers contact, pets, history and bookings concurrently.
// Each lookup degrades independently: a failed branch logs and leaves its
// slice empty so one bad query never kills the turn.
func (d contextDeps) buildContext(ctx context.Context, orgID, contactID string, now time.Time) (*ClientContext, error) {
	cc := &ClientContext{}

	conversation, err := d.convos.GetOrCreateActive(ctx, orgID, contactID)
	if err != nil {
		return nil, fmt.Errorf("clientai: open conversation: %w", err)
	}
	cc.Conversation = conversation

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		contact, err := d.contacts.Get(ctx, orgID, contactID)
		if err != nil {
			d.logger.Warn("context: contact lookup failed", "contact_id", contactID, "error", err)
			return
		}
		cc.Contact = contact
	}()
	go func() {
		defer wg.Done()
		pets, err := d.patients.ListByContact(ctx, orgID, contactID)
		if err != nil {
			d.logger.Warn("context: patients lookup failed", "contact_id", contactID, "error", err)
			return
		}
		cc.Patients = pets
	}()
	go func() {
		defer wg.Done()
		history, err := d.convos.RecentMessages(ctx, conversation.ID, historyDepth)
		if err != nil {
			d.logger.Warn("context: history lookup failed", "conversation_id", conversation.ID, "error", err)
			return
		}
		cc.History = history
	}()
	go func() {
		defer wg.Done()
		appts, err := d.appointments.ListRecentByContact(ctx, orgID, contactID, now)
		if err != nil {
			d.logger.Warn("context: appointments lookup failed", "contact_id", contactID, "error", err)
			return
		}
		for _, a := range appts {
			if a.ScheduledAt.Before(now) {
				cc.Recent = append(cc.Recent, a)
			} else {
				cc.Upcoming = append(cc.Upcoming, a)
			}
		}
	}()
	wg.Wait()

	return cc, nil
}

var statusPT = map[string]string{
	appointments.StatusPending:   "Pendente",
	appointments.StatusConfirmed: "Confirmado",
	appointments.StatusCompleted: "Concluído",
	appointments.StatusCancelled: "Cancelado",
	appointments.StatusNoShow:    "Não compareceu",
}

func statusLabel(status string) string {
	if v, ok := statusPT[status]; ok {
		return v
	}
	return status
}

// FormatForPrompt renders the context block appended to the system prompt.
func (cc *ClientContext) FormatForPrompt() string {
	var b strings.Builder
	b.WriteString("\n--- CONTEXTO DO CLIENTE ---\n")

	if cc.Contact != nil {
		name := cc.Contact.FullName
		if name == "" {
			name = "Nome não informado"
		}
		fmt.Fprintf(&b, "\nCliente: %s\n", name)
		fmt.Fprintf(&b, "Telefone: %s\n", cc.Contact.PhoneNumber)
		if cc.Contact.Email != "" {
			fmt.Fprintf(&b, "Email: %s\n", cc.Contact.Email)
		}
	}

	if len(cc.Patients) > 0 {
		fmt.Fprintf(&b, "\nPets cadastrados (%d):\n", len(cc.Patients))
		for _, p := range cc.Patients {
			fmt.Fprintf(&b, "  • %s - %s", p.Name, patients.SpeciesPT(p.Species))
			if p.Breed != "" {
				fmt.Fprintf(&b, ", %s", p.Breed)
			}
			fmt.Fprintf(&b, " (%s)\n", formatAge(p.AgeYears, p.AgeMonths))
		}
	} else {
		b.WriteString("\nNenhum pet cadastrado.\n")
	}

	if len(cc.Recent) > 0 {
		fmt.Fprintf(&b, "\nAgendamentos recentes (%d):\n", len(cc.Recent))
		for _, a := range cc.Recent {
			fmt.Fprintf(&b, "  • %s - Status: %s\n",
				a.ScheduledAt.Format("02/01/2006"), statusLabel(a.Status))
		}
	}

	if len(cc.Upcoming) > 0 {
		fmt.Fprintf(&b, "\nAgendamentos futuros (%d):\n", len(cc.Upcoming))
		for _, a := range cc.Upcoming {
			fmt.Fprintf(&b, "  • %s às %s - Status: %s\n",
				a.ScheduledAt.Format("02/01/2006"), a.ScheduledAt.Format("15:04"), statusLabel(a.Status))
		}
	}

	b.WriteString("\n--- FIM DO CONTEXTO ---\n")
	return b.String()
}

func formatAge(years, months int) string {
	switch {
	case years == 0 && months == 0:
		return "idade não informada"
	case years == 0:
		return fmt.Sprintf("%d meses", months)
	case months == 0:
		if years == 1 {
			return "1 ano"
		}
		return fmt.Sprintf("%d anos", years)
	default:
		return fmt.Sprintf("%d anos e %d meses", years, months)
	}
}
