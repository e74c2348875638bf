package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"habitsToBuild": {
			Type:        TypeArray,
			Description: "Habits to build",
			Items:       &Schema{Type: TypeString},
		},
	},
	Required: []string{"habitsToBuild"},
}

func TestGroqClient_GenerateContent(t *testing.T) {
	var got groqRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "{\"habitsToBuild\":[\"walk\"]}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client := NewGroqClient("test-key", "llama-test", time.Second)
	client.endpoint = server.URL

	resp, err := client.GenerateContent(context.Background(), Request{
		Prompt:            "plan my week",
		SystemInstruction: "You are a coach.",
		Schema:            testSchema,
		Temperature:       0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"habitsToBuild":["walk"]}`, resp.Content)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, "llama-test", resp.Usage.Model)

	assert.Equal(t, "llama-test", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "You are a coach.")
	assert.Contains(t, got.Messages[0].Content, `"habitsToBuild"`)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "plan my week", got.Messages[1].Content)
}

func TestGroqClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ServerError", http.StatusInternalServerError, `{"error":"boom"}`, "status=500"},
		{"NoChoices", http.StatusOK, `{"choices": []}`, "no content generated"},
		{"BadJSON", http.StatusOK, `not json`, "failed to decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewGroqClient("k", "m", time.Second)
			client.endpoint = server.URL

			_, err := client.GenerateContent(context.Background(), Request{Prompt: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGroqClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewGroqClient("k", "m", 0)
	client.endpoint = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateContent(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestToGeminiSchema(t *testing.T) {
	out := toGeminiSchema(testSchema)

	require.NotNil(t, out)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, []string{"habitsToBuild"}, out.Required)

	habits := out.Properties["habitsToBuild"]
	require.NotNil(t, habits)
	assert.Equal(t, genai.TypeArray, habits.Type)
	assert.Equal(t, "Habits to build", habits.Description)
	require.NotNil(t, habits.Items)
	assert.Equal(t, genai.TypeString, habits.Items.Type)

	assert.Nil(t, toGeminiSchema(nil))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 4, TotalTokenCount: 7},
	}

	assert.Equal(t, `{"a":1}`, responseText(resp))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	usage := geminiUsage(resp, "gemini-test")
	assert.Equal(t, 3, usage.PromptTokens)
	assert.Equal(t, 4, usage.CompletionTokens)
	assert.Equal(t, 7, usage.TotalTokens)
	assert.Equal(t, "gemini-test", usage.Model)
}
