package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

func TestNewScriptService_NilFactory(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic")
		}
	}()
	NewScriptService(nil, slog.New(slog.DiscardHandler))
}

func TestGenerateScripts_InvalidConfig(t *testing.T) {
	cf, _, _, lg := validDeps()
	svc := NewScriptService(cf, lg)

	tests := []struct {
		name   string
		config mstools.ScriptConfig
	}{
		{"missing SourceConnectionString", mstools.ScriptConfig{OutputDir: "/tmp/out"}},
		{"missing OutputDir", mstools.ScriptConfig{SourceConnectionString: "sqlserver://sa:pw@dbhost?database=App"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateScripts(context.Background(), tt.config)
			if !errors.Is(err, mstools.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestGenerateScripts_SourceMustNameDatabase(t *testing.T) {
	cf, _, _, lg := validDeps()
	svc := NewScriptService(cf, lg)

	config := mstools.ScriptConfig{
		SourceConnectionString: "sqlserver://sa:pw@dbhost:1433",
		OutputDir:              t.TempDir(),
	}

	_, err := svc.GenerateScripts(context.Background(), config)
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got: %v", err)
	}
	if !strings.Contains(err.Error(), "must name a database") {
		t.Errorf("Expected database requirement in message, got: %v", err)
	}
}

func TestGenerateScripts_ConnectorFailure(t *testing.T) {
	dialErr := errors.New("no route to host")
	cf := func(_ *mstools.ConnectionConfig) (mstools.Connector, error) {
		return nil, dialErr
	}
	svc := NewScriptService(cf, slog.New(slog.DiscardHandler))

	config := mstools.ScriptConfig{
		SourceConnectionString: "sqlserver://sa:pw@dbhost:1433?database=App",
		OutputDir:              t.TempDir(),
	}

	_, err := svc.GenerateScripts(context.Background(), config)
	if !errors.Is(err, dialErr) {
		t.Fatalf("Expected the connector error, got: %v", err)
	}
}
