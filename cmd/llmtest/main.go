package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/oxypet/petcare-ai-platform/internal/llm"
)

// Quick smoke test for the OpenAI gateway: sends a short multi-turn pet-care
// conversation with both sampling profiles and prints latency and token usage.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}
	client := openai.NewClient(apiKey)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "Oi! Quanto custa o banho e tosa para um golden retriever?"},
		{Role: openai.ChatMessageRoleAssistant, Content: "Oi! 🐶 O banho e tosa para porte grande sai por R$ 120,00. Quer agendar um horário essa semana?"},
		{Role: openai.ChatMessageRoleUser, Content: "Quero sim, tem horário na quinta de manhã?"},
	}
	system := "Você é a atendente virtual de um pet shop. Seja breve e simpática."

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("OpenAI Gateway Test")
	fmt.Println(strings.Repeat("=", 60))

	profiles := []struct {
		name    string
		profile llm.SamplingProfile
	}{
		{"client", llm.ClientProfile(os.Getenv("CLIENT_AI_MODEL"))},
		{"aurora", llm.AuroraProfile(os.Getenv("AURORA_MODEL"))},
	}

	for i, p := range profiles {
		fmt.Printf("\n[%d] Testing %s profile (%s)...\n", i+1, p.name, p.profile.Model)

		req := openai.ChatCompletionRequest{
			Messages: append([]openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
			}, messages...),
		}
		p.profile.Apply(&req)

		ctx, cancel := p.profile.CallContext(context.Background())
		start := time.Now()
		resp, err := client.CreateChatCompletion(ctx, req)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			fmt.Printf("    ❌ %s error: %v\n", p.name, err)
			continue
		}
		fmt.Printf("    ✅ response (%v):\n", elapsed.Round(time.Millisecond))
		if len(resp.Choices) > 0 {
			fmt.Printf("    %s\n", resp.Choices[0].Message.Content)
		}
		fmt.Printf("    Tokens: in=%d, out=%d\n", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("If both profiles responded, the gateway credentials are good.")
}
