package variation

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	assert.Equal(t, "Oi! Como posso te ajudar? 😊", Fallback(TypeGreeting))
	assert.Equal(t, "Opa, não entendi muito bem. Pode reformular? 😅", Fallback(TypeError))
	assert.Equal(t, "Como posso ajudar?", Fallback("unknown"))
}

func TestApplyPlaceholders(t *testing.T) {
	got := ApplyPlaceholders("Agendado para {date} às {time}!", map[string]string{
		"date": "10/06",
		"time": "14:00",
	})
	assert.Equal(t, "Agendado para 10/06 às 14:00!", got)

	// Unmatched placeholders stay put.
	assert.Equal(t, "Oi {name}", ApplyPlaceholders("Oi {name}", nil))
}

func TestGreetingContext(t *testing.T) {
	assert.Equal(t, ContextMorning, GreetingContext(6))
	assert.Equal(t, ContextMorning, GreetingContext(11))
	assert.Equal(t, ContextGeneral, GreetingContext(12))
	assert.Equal(t, ContextGeneral, GreetingContext(17))
	assert.Equal(t, ContextNight, GreetingContext(18))
	assert.Equal(t, ContextNight, GreetingContext(23))
	assert.Equal(t, ContextGeneral, GreetingContext(3))
}

type failingDB struct{}

func (failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("db down")
}

func TestRandomFallsBackOnError(t *testing.T) {
	svc := NewServiceWithDB(failingDB{}, nil)
	got := svc.Random(context.Background(), "org-1", TypeConfirmation, ContextBookingConfirmed, nil)
	assert.Equal(t, "Pronto! Tudo certo! ✅", got)
}

func TestBookingConfirmationDefaultService(t *testing.T) {
	svc := NewServiceWithDB(nil, nil)
	got := svc.BookingConfirmation(context.Background(), "org-1", "10/06", "14:00", "")
	// Fallback template has no placeholders, but the call must not blow up.
	assert.NotEmpty(t, got)
}
