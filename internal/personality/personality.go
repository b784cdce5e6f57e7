// Package personality turns the org's AI personality configuration into
// prompt fragments. Orgs tune how the customer assistant and the owner
// assistant talk; missing or broken config falls back to the defaults.
package personality

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Customer-assistant personalities.
const (
	ClientAmigavel             = "amigavel"
	ClientProfissionalCaloroso = "profissional-caloroso"
	ClientEnergetico           = "energetico"
)

// Owner-assistant personalities.
const (
	AuroraParceiraProxima       = "parceira-proxima"
	AuroraConsultoraEstrategica = "consultora-estrategica"
)

// Data-driven styles for the owner assistant.
const (
	StyleCelebratorio = "celebratorio"
	StyleAnalitico    = "analitico"
	StyleProativo     = "proativo"
)

// ClientConfig shapes how the customer assistant talks.
type ClientConfig struct {
	Name           string `json:"name"`
	Personality    string `json:"personality"`
	Tone           string `json:"tone"`
	EmojiFrequency string `json:"emoji_frequency"`
	BrazilianSlang bool   `json:"brazilian_slang"`
	EmpathyLevel   int    `json:"empathy_level"`
}

// AuroraConfig shapes how the owner assistant talks.
type AuroraConfig struct {
	Name            string `json:"name"`
	Personality     string `json:"personality"`
	Tone            string `json:"tone"`
	DataDrivenStyle string `json:"data_driven_style"`
}

// Config is the full per-org personality configuration as stored in
// organization_settings.ai_personality_config.
type Config struct {
	ClientAI ClientConfig `json:"client_ai"`
	Aurora   AuroraConfig `json:"oxy_assistant"`
}

// Default is the configuration used when an org has none.
func Default() Config {
	return Config{
		ClientAI: ClientConfig{
			Name:           "Luna",
			Personality:    ClientAmigavel,
			Tone:           "casual",
			EmojiFrequency: "medium",
			BrazilianSlang: true,
			EmpathyLevel:   8,
		},
		Aurora: AuroraConfig{
			Name:            "Aurora",
			Personality:     AuroraParceiraProxima,
			Tone:            "coleguinha",
			DataDrivenStyle: StyleCelebratorio,
		},
	}
}

// Parse decodes a stored config, falling back to Default on empty or
// malformed input.
func Parse(raw json.RawMessage) Config {
	if len(raw) == 0 {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Default()
	}
	if cfg.ClientAI.Name == "" {
		cfg.ClientAI.Name = "Luna"
	}
	if cfg.Aurora.Name == "" {
		cfg.Aurora.Name = "Aurora"
	}
	return cfg
}

var clientDescriptions = map[string]string{
	ClientAmigavel:             "amigável, empático e acolhedor, como um atendente que realmente se importa",
	ClientProfissionalCaloroso: "profissional mas caloroso, equilibrando competência com proximidade",
	ClientEnergetico:           "animado, energético e entusiasmado, trazendo positividade para cada conversa",
}

var clientTones = map[string]string{
	"casual":      "Use linguagem casual e natural do dia a dia brasileiro. Seja espontâneo!",
	"semi-formal": "Mantenha um equilíbrio entre profissionalismo e naturalidade. Seja cordial mas próximo.",
	"informal":    "Seja super descontraído e natural, como numa conversa entre amigos. Use gírias quando apropriado!",
}

var emojiGuidelines = map[string]string{
	"none":   "NÃO use emojis",
	"low":    "Use emojis ocasionalmente, apenas para enfatizar pontos importantes (1-2 por mensagem no máximo)",
	"medium": "Use emojis para dar vida às mensagens, mas com moderação (2-3 por mensagem)",
	"high":   "Use emojis generosamente para tornar a conversa mais expressiva e divertida!",
}

// ClientDescription renders the customer-assistant personality block for the
// system prompt.
func ClientDescription(cfg ClientConfig) string {
	persona, ok := clientDescriptions[cfg.Personality]
	if !ok {
		persona = clientDescriptions[ClientAmigavel]
	}
	tone, ok := clientTones[cfg.Tone]
	if !ok {
		tone = clientTones["casual"]
	}
	emoji, ok := emojiGuidelines[cfg.EmojiFrequency]
	if !ok {
		emoji = emojiGuidelines["medium"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é %s, atendente virtual %s.\n\n", cfg.Name, persona)
	fmt.Fprintf(&b, "TOM DE VOZ: %s\n\n", tone)
	fmt.Fprintf(&b, "EMOJIS: %s\n\n", emoji)
	if cfg.BrazilianSlang {
		b.WriteString(`LINGUAGEM BRASILEIRA: Use expressões naturais brasileiras como "opa", "tá", "né", "beleza", "massa", "bacana", etc. Seja autêntico!` + "\n\n")
	}
	fmt.Fprintf(&b, "EMPATIA: Nível %d/10 - %s\n\n", cfg.EmpathyLevel, empathyDescription(cfg.EmpathyLevel))
	return b.String()
}

var auroraDescriptions = map[string]string{
	AuroraParceiraProxima:       "parceira de negócios próxima e engajada, como uma sócia que vibra com cada conquista",
	AuroraConsultoraEstrategica: "consultora estratégica experiente, focada em dados e resultados com visão de longo prazo",
}

var auroraTones = map[string]string{
	"coleguinha": `Seja próxima como uma amiga de confiança. Use "a gente", "nosso", "vamos". Você FAZ PARTE do time!`,
	"mentora":    "Seja uma mentora experiente e encorajadora. Guie com sabedoria mas celebre com entusiasmo.",
}

var auroraStyles = map[string]string{
	StyleCelebratorio: "COMEMORE cada vitória com entusiasmo! Use emojis, exclamações. Faça o dono sentir o sucesso! 🎉",
	StyleAnalitico:    "Apresente dados de forma clara e objetiva, focando em insights acionáveis e comparações relevantes.",
	StyleProativo:     "Identifique oportunidades ANTES que o dono pergunte. Sugira ações concretas baseadas nos dados.",
}

// AuroraDescription renders the owner-assistant personality block for the
// system prompt.
func AuroraDescription(cfg AuroraConfig) string {
	persona, ok := auroraDescriptions[cfg.Personality]
	if !ok {
		persona = auroraDescriptions[AuroraParceiraProxima]
	}
	tone, ok := auroraTones[cfg.Tone]
	if !ok {
		tone = auroraTones["coleguinha"]
	}
	style, ok := auroraStyles[cfg.DataDrivenStyle]
	if !ok {
		style = auroraStyles[StyleCelebratorio]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é %s, %s.\n\n", cfg.Name, persona)
	fmt.Fprintf(&b, "TOM DE VOZ: %s\n\n", tone)
	fmt.Fprintf(&b, "ESTILO DATA-DRIVEN: %s\n\n", style)
	return b.String()
}

func empathyDescription(level int) string {
	switch {
	case level <= 3:
		return "Seja objetivo e direto, foque em resolver o problema."
	case level <= 6:
		return "Demonstre compreensão e interesse genuíno pelo cliente."
	case level <= 8:
		return "Seja muito empático, valide emoções e crie conexão real com o cliente."
	default:
		return "Seja extremamente empático e acolhedor. Trate cada interação como única e especial."
	}
}
