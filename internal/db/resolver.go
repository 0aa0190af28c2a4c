package db

import (
	"fmt"
	"os"

	"github.com/sozezzo/MSTools/internal/config"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow sqlcmd conventions (-S, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $SQLCMDPASSWORD environment variable
//  2. Connection string with embedded password
//  3. Interactive prompt
type GranularConnFlags struct {
	Host                   string
	Port                   int
	Instance               string
	Username               string
	Database               string
	Encrypt                string
	TrustServerCertificate bool
}

// IsEmpty returns true if no connection-related granular flags were provided.
// The Database flag is excluded from this check because it can override the
// database named in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Instance == "" && g.Username == "" && g.Encrypt == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (a.TenantID == "" && a.ClientID == "")
}

// GoogleFlags represents Cloud SQL CLI flags.
type GoogleFlags struct {
	Instance string // Instance connection name: project:region:instance
}

// IsEmpty returns true if no Cloud SQL flags were provided.
func (g *GoogleFlags) IsEmpty() bool {
	return g == nil || g.Instance == ""
}

// EnvVars represents the environment variables the resolver consults.
// The SQLCMD* names follow the sqlcmd utility's conventions.
type EnvVars struct {
	SQLCMDSERVER       string // Server, optionally host,port or host\instance
	SQLCMDUSER         string // Username
	SQLCMDPASSWORD     string // Password, sqlcmd convention
	SQLSERVER_PASSWORD string // Password, takes precedence over SQLCMDPASSWORD
	SQLCMDDBNAME       string // Default database name
	DATABASE_URL       string // Full connection string (Heroku/Rails convention)

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string // Azure AD tenant/directory ID
	AZURE_CLIENT_ID     string // Azure AD application/client ID
	AZURE_CLIENT_SECRET string // Azure AD client secret (for Service Principal auth)
}

// LoadFromEnvironment loads sqlcmd and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		SQLCMDSERVER:        os.Getenv("SQLCMDSERVER"),
		SQLCMDUSER:          os.Getenv("SQLCMDUSER"),
		SQLCMDPASSWORD:      os.Getenv("SQLCMDPASSWORD"),
		SQLSERVER_PASSWORD:  os.Getenv("SQLSERVER_PASSWORD"),
		SQLCMDDBNAME:        os.Getenv("SQLCMDDBNAME"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. Connection string flag - if provided, parse and use directly
//  2. Granular flags (-S, -U, -d) - if any provided, build config from flags
//  3. Environment variables (SQLCMDSERVER, SQLCMDUSER, ...) - fallback
//  4. DATABASE_URL environment variable - fallback if no granular params
//  5. mstools.yaml project config, then defaults (localhost:1433)
//
// Azure Entra ID authentication:
// If azureFlags are provided OR Azure environment variables are set, the
// AuthMethod becomes AzureEntraID and credentials are attached to the
// config. CLI flags take precedence over environment variables.
//
// Cloud SQL authentication:
// A non-empty googleFlags.Instance switches the AuthMethod to
// GoogleCloudSQL and records the instance connection name.
//
// Returns the resolved ConnectionConfig, the management database name (for
// CREATE DATABASE and DROP DATABASE operations), and an error for invalid
// or conflicting configuration.
//
// Conflict detection: an error is returned when BOTH a connection string
// AND granular flags are provided, preventing ambiguity about user intent.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	googleFlags *GoogleFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*mstools.ConnectionConfig, string, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if azureFlags == nil {
		azureFlags = &AzureFlags{}
	}
	if googleFlags == nil {
		googleFlags = &GoogleFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf(
			"cannot specify both a connection string and granular flags (-S, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: \"sqlserver://sa@localhost:1433?database=master\"\n" +
				"  2. Granular flags: -S localhost -U sa -d mydb\n" +
				"  3. Environment variables: export SQLCMDSERVER=localhost SQLCMDUSER=sa",
		)
	}

	var cfg *mstools.ConnectionConfig
	var managementDB string
	var err error

	switch {
	case connStringFlag != "":
		cfg, managementDB, err = resolveFromConnectionString(connStringFlag)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, managementDB, err = resolveFromConnectionString(envVars.DATABASE_URL)
	default:
		cfg, managementDB, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}

	if err != nil {
		return nil, "", err
	}

	applyAzureAuth(cfg, azureFlags, envVars)
	applyGoogleAuth(cfg, googleFlags)

	return cfg, managementDB, nil
}

// applyAzureAuth sets Azure Entra ID authentication on the config if
// credentials are available. CLI flags take precedence over environment
// variables.
func applyAzureAuth(cfg *mstools.ConnectionConfig, flags *AzureFlags, env *EnvVars) {
	tenantID := flags.TenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}

	clientID := flags.ClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	// Client secret only comes from the environment (no flag for security).
	clientSecret := env.AZURE_CLIENT_SECRET

	if tenantID != "" || clientID != "" {
		cfg.AuthMethod = mstools.AuthMethodAzureEntraID
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = clientSecret
	}
}

// applyGoogleAuth switches the config to Cloud SQL dialing when an instance
// connection name was provided.
func applyGoogleAuth(cfg *mstools.ConnectionConfig, flags *GoogleFlags) {
	if flags.IsEmpty() {
		return
	}
	cfg.AuthMethod = mstools.AuthMethodGoogleCloudSQL
	cfg.GoogleInstance = flags.Instance
}

// resolveFromConnectionString parses a connection string and derives the
// management database.
//
// The database component of the connection string serves dual purpose:
//  1. Initial connection target (for CREATE DATABASE operations)
//  2. Management database (returned separately)
//
// The actual target database comes from the database flag.
func resolveFromConnectionString(connStr string) (*mstools.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w", err)
	}

	managementDB := cfg.Database
	if managementDB == "" {
		managementDB = mstools.DefaultManagementDB
	}

	return cfg, managementDB, nil
}

// resolveFromGranularParams builds a ConnectionConfig from granular flags,
// environment variables and the project config file.
//
// Precedence for each parameter:
//  1. CLI flag (highest priority)
//  2. Environment variable
//  3. mstools.yaml
//  4. Default value (lowest priority)
//
// For granular parameters the management database is always "master".
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*mstools.ConnectionConfig, string, error) {
	cfg := &mstools.ConnectionConfig{
		AuthMethod:       mstools.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	// SQLCMDSERVER may carry host,port or host\instance; decode it first so
	// individual flags can still override the pieces.
	if envVars.SQLCMDSERVER != "" {
		if err := parseServerValue(envVars.SQLCMDSERVER, cfg); err != nil {
			return nil, "", fmt.Errorf("invalid $SQLCMDSERVER value %q: %w", envVars.SQLCMDSERVER, err)
		}
	}

	// Host: flag > SQLCMDSERVER > mstools.yaml > default
	if flags.Host != "" {
		cfg.Host = flags.Host
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	// Port: flag > SQLCMDSERVER > mstools.yaml > default
	if flags.Port != 0 {
		cfg.Port = flags.Port
	}
	if cfg.Port == 0 && pc.Port != 0 {
		cfg.Port = pc.Port
	}

	// Instance: flag > SQLCMDSERVER > mstools.yaml
	if flags.Instance != "" {
		cfg.Instance = flags.Instance
	}
	if cfg.Instance == "" {
		cfg.Instance = pc.Instance
	}
	applyDefaultPort(cfg)

	// Username: flag > SQLCMDUSER > mstools.yaml > current OS user
	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.SQLCMDUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.SQLSERVER_PASSWORD
	if cfg.Password == "" {
		cfg.Password = envVars.SQLCMDPASSWORD
	}

	// Database: flag > SQLCMDDBNAME > mstools.yaml
	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.SQLCMDDBNAME
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	// Encrypt: flag > mstools.yaml
	cfg.Encrypt = flags.Encrypt
	if cfg.Encrypt == "" {
		cfg.Encrypt = pc.Encrypt
	}
	cfg.TrustServerCertificate = flags.TrustServerCertificate || pc.TrustServerCertificate

	return cfg, mstools.DefaultManagementDB, nil
}
