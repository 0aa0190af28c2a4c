package mstools

import (
	"errors"
	"fmt"
	"time"
)

// CloneConfig contains all parameters needed for a clone operation.
type CloneConfig struct {
	// SourceConnectionString identifies the server and database to clone from
	// (URI or ADO.NET format).
	SourceConnectionString string

	// DestinationConnectionString identifies the server to clone to
	// (URI or ADO.NET format). After CLI resolution, the database in this
	// string is the TARGET database.
	DestinationConnectionString string

	// DatabaseName is the destination database name.
	DatabaseName string

	// ManagementDatabase is the database to connect to for server-level
	// operations (CREATE DATABASE, DROP DATABASE). Typically "master".
	ManagementDatabase string

	// ScriptDir is the directory where per-stage scripts are materialized.
	// Empty means a temporary directory that is removed after the run
	// unless KeepScripts is set.
	ScriptDir string

	// KeepScripts preserves the generated stage scripts after the run.
	KeepScripts bool

	// IncludeData enables the data-copy stage between base tables and constraints.
	IncludeData bool

	// MaxPasses is the per-stage retry budget. Zero means DefaultMaxPasses.
	MaxPasses int

	// StageOverrides adjusts individual stages of the default catalog:
	// a per-stage retry budget, or skipping the stage entirely.
	StageOverrides []StageOverride

	// Overwrite enables the destructive drop/recreate workflow for the destination.
	Overwrite bool

	// Force bypasses interactive approval when used with Overwrite.
	Force bool

	// Timeout is the global timeout for the entire clone run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism for both servers.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Google Cloud SQL instance connection names in project:region:instance
	// format (used when AuthMethod is AuthMethodGoogleCloudSQL).
	GoogleSourceInstance      string
	GoogleDestinationInstance string
}

// Validate checks if the CloneConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *CloneConfig) Validate() error {
	var errs []error

	if c.SourceConnectionString == "" {
		errs = append(errs, fmt.Errorf("SourceConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.DestinationConnectionString == "" {
		errs = append(errs, fmt.Errorf("DestinationConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}

	// Force requires Overwrite to be set
	if c.Force && !c.Overwrite {
		errs = append(errs, fmt.Errorf("force flag requires overwrite to be enabled: %w", ErrInvalidConfig))
	}

	if c.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("max passes cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ScriptConfig contains all parameters needed for a script-only generation run.
type ScriptConfig struct {
	// SourceConnectionString identifies the server and database to script
	// (URI or ADO.NET format).
	SourceConnectionString string

	// OutputDir is the directory where per-stage scripts are written.
	OutputDir string

	// IncludeData also scripts table data as INSERT statements.
	IncludeData bool

	// Timeout is the global timeout for the generation run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// GoogleSourceInstance is the Cloud SQL instance connection name
	// (used when AuthMethod is AuthMethodGoogleCloudSQL).
	GoogleSourceInstance string
}

// Validate checks if the ScriptConfig has all required fields and valid values.
func (c *ScriptConfig) Validate() error {
	var errs []error

	if c.SourceConnectionString == "" {
		errs = append(errs, fmt.Errorf("SourceConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.OutputDir == "" {
		errs = append(errs, fmt.Errorf("OutputDir is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// DeployConfig contains all parameters needed to deploy a single existing
// script file with the retry engine. This is the manual-remediation path: an
// operator edits a failing stage script kept from a clone run and replays it.
type DeployConfig struct {
	// DestinationConnectionString identifies the server and database to
	// deploy to (URI or ADO.NET format).
	DestinationConnectionString string

	// ScriptPath is the SQL script file to execute.
	ScriptPath string

	// MaxPasses is the retry budget. Zero means DefaultMaxPasses.
	MaxPasses int

	// Timeout is the global timeout for the deployment.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// GoogleDestinationInstance is the Cloud SQL instance connection name
	// (used when AuthMethod is AuthMethodGoogleCloudSQL).
	GoogleDestinationInstance string
}

// Validate checks if the DeployConfig has all required fields and valid values.
func (c *DeployConfig) Validate() error {
	var errs []error

	if c.DestinationConnectionString == "" {
		errs = append(errs, fmt.Errorf("DestinationConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.ScriptPath == "" {
		errs = append(errs, fmt.Errorf("ScriptPath is required: %w", ErrInvalidConfig))
	}

	if c.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("max passes cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// CompareConfig contains all parameters needed for a schema comparison run.
type CompareConfig struct {
	// SourceConnectionString identifies the reference database (URI or ADO.NET format).
	SourceConnectionString string

	// DestinationConnectionString identifies the database being verified.
	DestinationConnectionString string

	// IncludeRowCounts compares table row counts in addition to schema objects.
	IncludeRowCounts bool

	// HTMLReportPath, when set, writes an HTML report to this path in
	// addition to the console summary.
	HTMLReportPath string

	// Timeout is the global timeout for the comparison run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Google Cloud SQL instance connection names
	// (used when AuthMethod is AuthMethodGoogleCloudSQL).
	GoogleSourceInstance      string
	GoogleDestinationInstance string
}

// Validate checks if the CompareConfig has all required fields and valid values.
func (c *CompareConfig) Validate() error {
	var errs []error

	if c.SourceConnectionString == "" {
		errs = append(errs, fmt.Errorf("SourceConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.DestinationConnectionString == "" {
		errs = append(errs, fmt.Errorf("DestinationConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters for one server.
type ConnectionConfig struct {
	Host     string
	Port     int
	Instance string // Named instance, e.g. "SQLEXPRESS". Empty for the default instance.
	Database string
	Username string
	Password string

	// Encrypt is the connection encryption mode: "true", "false", "disable" or "strict".
	Encrypt string

	// TrustServerCertificate skips server certificate validation when encryption is on.
	TrustServerCertificate bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format (used when AuthMethod is AuthMethodGoogleCloudSQL).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard       AuthMethod = iota // SQL Server login (username/password)
	AuthMethodAzureEntraID                     // Microsoft Entra ID (Azure AD) token
	AuthMethodGoogleCloudSQL                   // Google Cloud SQL connector dialing
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	case AuthMethodGoogleCloudSQL:
		return "Google Cloud SQL"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodGoogleCloudSQL
}
