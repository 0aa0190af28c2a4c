package services

import (
	"errors"
	"testing"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

func TestParseEndpoint_AppliesAuthSettings(t *testing.T) {
	config, err := parseEndpoint("sqlserver://sa:pw@dbhost:1433?database=App", authOptions{
		method:         mstools.AuthMethodAzureEntraID,
		azureTenantID:  "tenant",
		azureClientID:  "client",
		azureSecret:    "secret",
		googleInstance: "",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if config.Database != "App" {
		t.Errorf("Database = %q, want App", config.Database)
	}
	if config.AppName != "mstools" {
		t.Errorf("AppName = %q, want mstools", config.AppName)
	}
	if config.AuthMethod != mstools.AuthMethodAzureEntraID {
		t.Errorf("AuthMethod = %v, want AuthMethodAzureEntraID", config.AuthMethod)
	}
	if config.AzureTenantID != "tenant" || config.AzureClientID != "client" || config.AzureClientSecret != "secret" {
		t.Errorf("Azure credentials not applied: %+v", config)
	}
}

func TestParseEndpoint_GoogleInstance(t *testing.T) {
	config, err := parseEndpoint("sqlserver://sa:pw@dbhost?database=App", authOptions{
		method:         mstools.AuthMethodGoogleCloudSQL,
		googleInstance: "proj:region:inst",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if config.GoogleInstance != "proj:region:inst" {
		t.Errorf("GoogleInstance = %q", config.GoogleInstance)
	}
}

func TestParseEndpoint_InvalidString(t *testing.T) {
	_, err := parseEndpoint("sqlserver://dbhost:notaport", authOptions{})
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if !errors.Is(err, mstools.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got: %v", err)
	}
}

func TestSameServer(t *testing.T) {
	std := func(host string, port int, instance string) *mstools.ConnectionConfig {
		return &mstools.ConnectionConfig{Host: host, Port: port, Instance: instance}
	}
	google := func(instance string) *mstools.ConnectionConfig {
		return &mstools.ConnectionConfig{AuthMethod: mstools.AuthMethodGoogleCloudSQL, GoogleInstance: instance}
	}

	tests := []struct {
		name string
		a, b *mstools.ConnectionConfig
		want bool
	}{
		{"same host case-insensitive", std("DBHOST", 1433, ""), std("dbhost", 1433, ""), true},
		{"different host", std("dbhost", 1433, ""), std("other", 1433, ""), false},
		{"different port", std("dbhost", 1433, ""), std("dbhost", 1444, ""), false},
		{"different instance", std("dbhost", 0, "SQLEXPRESS"), std("dbhost", 0, ""), false},
		{"same named instance", std("dbhost", 0, "sqlexpress"), std("dbhost", 0, "SQLEXPRESS"), true},
		{"same cloud sql instance", google("p:r:i"), google("p:r:i"), true},
		{"different cloud sql instance", google("p:r:i"), google("p:r:j"), false},
		{"empty cloud sql instances never match", google(""), google(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameServer(tt.a, tt.b); got != tt.want {
				t.Errorf("sameServer = %v, want %v", got, tt.want)
			}
		})
	}
}
