package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/sweetpotato0/keyara/provider"
)

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}},
		},
	}
}

func TestFirstText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name: "blocked prompt",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
			},
			wantErr: true,
		},
		{name: "candidate without content", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, wantErr: true},
		{name: "whitespace text", resp: textResponse(genai.Text("  \n")), wantErr: true},
		{name: "first part is text", resp: textResponse(genai.Text("  Hello from Keyara \n"), genai.Text("ignored")), want: "Hello from Keyara"},
		{name: "skips non-text parts", resp: textResponse(genai.Blob{MIMEType: "image/png"}, genai.Text("caption")), want: "caption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstText(tt.resp)
			if tt.wantErr {
				if !errors.Is(err, provider.ErrEmptyResponse) {
					t.Fatalf("expected ErrEmptyResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderGenerate(t *testing.T) {
	client := NewClient(DefaultConfig("test-key"))
	p := client.Model("gemini-1.5-flash-latest")
	var seen string
	p.call = func(ctx context.Context, text string) (*genai.GenerateContentResponse, error) {
		seen = text
		return textResponse(genai.Text("RentEase lists homes in Mumbai.")), nil
	}

	got, err := p.Generate(context.Background(), "SYSTEM\n\nWhere?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "RentEase lists homes in Mumbai." {
		t.Errorf("unexpected text %q", got)
	}
	if seen != "SYSTEM\n\nWhere?" {
		t.Errorf("prompt not forwarded verbatim: %q", seen)
	}
	if p.Name() != "gemini:gemini-1.5-flash-latest" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestProviderGenerateWrapsErrors(t *testing.T) {
	p := NewClient(nil).Model("gemini-1.5-pro-latest")
	p.call = func(ctx context.Context, text string) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("404 model not found")
	}
	if _, err := p.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMissingAPIKeyFailsWithoutDialing(t *testing.T) {
	client := NewClient(DefaultConfig(""))
	p := client.Model("gemini-1.5-pro-latest")
	if _, err := p.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected missing key error")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without dial: %v", err)
	}
}

func TestFactoryBuildsModels(t *testing.T) {
	reg := provider.NewRegistry()
	if err := reg.Register(Vendor, NewClient(DefaultConfig("k")).Factory()); err != nil {
		t.Fatalf("register: %v", err)
	}
	cands, err := reg.Build([]string{"gemini-1.5-pro-002", "gemini:gemini-1.5-flash-002"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cands[0].Provider.Name() != "gemini:gemini-1.5-pro-002" || cands[1].Provider.Name() != "gemini:gemini-1.5-flash-002" {
		t.Fatalf("unexpected providers %v, %v", cands[0].Provider.Name(), cands[1].Provider.Name())
	}
}

func TestConfigApplyZeroTemperature(t *testing.T) {
	cfg := DefaultConfig("key")
	cfg.Temperature = provider.Ptr[float32](0)
	model := &genai.GenerativeModel{}
	cfg.apply(model)
	if model.Temperature == nil || *model.Temperature != 0 {
		t.Errorf("temperature 0 not applied: %v", model.Temperature)
	}
	if model.MaxOutputTokens == nil || *model.MaxOutputTokens != 1024 {
		t.Errorf("max output tokens not applied: %v", model.MaxOutputTokens)
	}

	unset := &genai.GenerativeModel{}
	(&Config{}).apply(unset)
	if unset.Temperature != nil || unset.MaxOutputTokens != nil {
		t.Errorf("empty config should leave model defaults")
	}
}
