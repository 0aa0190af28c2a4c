package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// resetDeployFlags resets the deploy flag values to their zero state. Flags
// are package-level globals that persist across tests.
func resetDeployFlags() {
	deployFlags = deployFlagValues{}
}

func TestBuildDeployConfig(t *testing.T) {
	tests := []struct {
		name            string
		setupFlags      func()
		wantDstContains string
		wantMaxPasses   int
		wantTimeout     time.Duration
		wantErr         bool
		wantErrContains string
	}{
		{
			name: "granular destination",
			setupFlags: func() {
				deployFlags.server.server = "staging"
				deployFlags.server.username = "sa"
				deployFlags.server.database = "AppDB_Copy"
				deployFlags.timeout = 10 * time.Minute
			},
			wantDstContains: "database=AppDB_Copy",
			wantMaxPasses:   0,
			wantTimeout:     10 * time.Minute,
		},
		{
			name: "destination connection string with retry budget",
			setupFlags: func() {
				deployFlags.destination = "sqlserver://sa:pw@staging:1433?database=AppDB_Copy"
				deployFlags.maxPasses = 10
				deployFlags.timeout = 10 * time.Minute
			},
			wantDstContains: "staging",
			wantMaxPasses:   10,
			wantTimeout:     10 * time.Minute,
		},
		{
			name: "database flag overrides connection string",
			setupFlags: func() {
				deployFlags.destination = "sqlserver://sa:pw@staging:1433?database=master"
				deployFlags.server.database = "AppDB_Copy"
				deployFlags.timeout = 10 * time.Minute
			},
			wantDstContains: "database=AppDB_Copy",
			wantTimeout:     10 * time.Minute,
		},
		{
			name: "missing database",
			setupFlags: func() {
				deployFlags.server.server = "staging"
				deployFlags.server.username = "sa"
			},
			wantErr:         true,
			wantErrContains: "database name is required",
		},
		{
			name: "connection string conflicts with granular flags",
			setupFlags: func() {
				deployFlags.destination = "sqlserver://sa:pw@staging:1433?database=AppDB_Copy"
				deployFlags.server.server = "otherhost"
			},
			wantErr:         true,
			wantErrContains: "cannot specify both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetDeployFlags()
			clearConnectionEnv(t)
			t.Chdir(t.TempDir())

			tt.setupFlags()

			config, err := buildDeployConfig(deployCmd, "./fix.sql", discardLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildDeployConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.wantErrContains != "" && !strings.Contains(err.Error(), tt.wantErrContains) {
					t.Errorf("buildDeployConfig() error = %v, want error containing %q", err, tt.wantErrContains)
				}
				return
			}

			if config.ScriptPath != "./fix.sql" {
				t.Errorf("ScriptPath = %q, want ./fix.sql", config.ScriptPath)
			}
			if !strings.Contains(config.DestinationConnectionString, tt.wantDstContains) {
				t.Errorf("DestinationConnectionString = %q, want it to contain %q",
					config.DestinationConnectionString, tt.wantDstContains)
			}
			if config.MaxPasses != tt.wantMaxPasses {
				t.Errorf("MaxPasses = %d, want %d", config.MaxPasses, tt.wantMaxPasses)
			}
			if config.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", config.Timeout, tt.wantTimeout)
			}
		})
	}
}

func TestBuildDeployConfig_DestinationFromEnvironment(t *testing.T) {
	resetDeployFlags()
	clearConnectionEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("MSTOOLS_DESTINATION", "sqlserver://sa:pw@staging:1433?database=AppDB_Copy")

	config, err := buildDeployConfig(deployCmd, "./fix.sql", discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(config.DestinationConnectionString, "staging") {
		t.Errorf("expected destination from MSTOOLS_DESTINATION, got %q", config.DestinationConnectionString)
	}
}

func TestRunDeployScript_MissingScript(t *testing.T) {
	// Full run path: configuration resolves, then the deploy service rejects
	// the missing script before any connection attempt.
	resetDeployFlags()
	clearConnectionEnv(t)
	t.Chdir(t.TempDir())

	deployFlags.destination = "sqlserver://sa:pw@staging:1433?database=AppDB_Copy"

	err := runDeployScript(deployCmd, []string{"./does_not_exist.sql"})
	if err == nil {
		t.Fatal("expected error for missing script file")
	}
	if got := mstools.ExitCodeForError(err); got != mstools.ExitScriptMissing {
		t.Errorf("ExitCodeForError = %d, want %d for: %v", got, mstools.ExitScriptMissing, err)
	}
}
