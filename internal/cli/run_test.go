package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/forPelevin/topiccut/internal/pipeline"
)

func TestLoadTopicsFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "mapping",
			content: "topics:\n  - pricing\n  - \" hiring \"\n  - \"\"\n",
			want:    []string{"pricing", "hiring"},
		},
		{
			name:    "bare list",
			content: "- roadmap\n- q&a\n",
			want:    []string{"roadmap", "q&a"},
		},
		{
			name:    "unrelated mapping",
			content: "title: nope\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "topics.yaml")
			if err := os.WriteFile(p, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := loadTopicsFile(p)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("OPENROUTER_BASE_URL", "")
	t.Setenv("OPENROUTER_ALLOWED_HOSTS", "")
	t.Setenv("STORE_DIR", t.TempDir())
	t.Setenv("MODEL_MAX_RETRIES", "3")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != pipeline.ProviderOpenRouter || cfg.OpenRouterBaseURL != "https://openrouter.ai" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Backoff == nil || cfg.Backoff.MaxRetries != 3 {
		t.Fatalf("expected backoff override, got %+v", cfg.Backoff)
	}
}

func TestConfigFromEnv_Errors(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "bedrock")
	t.Setenv("STORE_DIR", "")
	t.Setenv("BUCKET_NAME", "")
	t.Setenv("HIGHLIGHT_TABLE_NAME", "")
	t.Setenv("MODEL_MAX_RETRIES", "")
	if _, err := configFromEnv(); err == nil || !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("expected config error, got %v", err)
	}

	t.Setenv("STORE_DIR", t.TempDir())
	t.Setenv("MODEL_MAX_RETRIES", "many")
	if _, err := configFromEnv(); err == nil || !strings.Contains(err.Error(), "MODEL_MAX_RETRIES") {
		t.Fatalf("expected retries error, got %v", err)
	}
}

func TestRoot_RequiredFlags(t *testing.T) {
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"select", "--clip", "c1"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), `required flag(s) "index", "topic" not set`) {
		t.Fatalf("unexpected error: %v", err)
	}
}
