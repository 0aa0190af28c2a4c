package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sozezzo/MSTools/internal/config"
	"github.com/sozezzo/MSTools/internal/db"
	"github.com/sozezzo/MSTools/pkg/mstools"
)

// serverFlags holds the granular connection flag values for the one server a
// command reads from or writes to. They follow sqlcmd conventions (-S, -U,
// -d). Password is never a flag: use $SQLSERVER_PASSWORD, a connection
// string, or the interactive prompt.
type serverFlags struct {
	server    string
	port      int
	instance  string
	username  string
	database  string
	encrypt   string
	trustCert bool
}

// register attaches the granular flags to cmd. role names the server the
// flags describe in help text ("source" or "destination").
func (f *serverFlags) register(cmd *cobra.Command, role string) {
	cmd.Flags().StringVarP(&f.server, "server", "S", "",
		"The "+role+" server host\n"+
			"Precedence: -S > $SQLCMDSERVER > mstools.yaml > localhost")
	cmd.Flags().IntVar(&f.port, "port", 0,
		"The "+role+" server TCP port (default 1433 unless --instance is set)")
	cmd.Flags().StringVar(&f.instance, "instance", "",
		"Named instance on the "+role+" server, e.g. SQLEXPRESS")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"SQL login (default: $SQLCMDUSER, mstools.yaml, or current OS user)")
	cmd.Flags().StringVar(&f.encrypt, "encrypt", "",
		"Connection encryption mode: true|false|disable|strict")
	cmd.Flags().BoolVar(&f.trustCert, "trust-server-certificate", false,
		"Skip server certificate validation when encryption is on")

	_ = cmd.RegisterFlagCompletionFunc("encrypt", completeEncryptModes)
}

// registerDatabase attaches -d/--database separately so each command can word
// the help for what the database names on that command.
func (f *serverFlags) registerDatabase(cmd *cobra.Command, help string) {
	cmd.Flags().StringVarP(&f.database, "database", "d", "", help)
}

func (f *serverFlags) granular() *db.GranularConnFlags {
	return &db.GranularConnFlags{
		Host:                   f.server,
		Port:                   f.port,
		Instance:               f.instance,
		Username:               f.username,
		Database:               f.database,
		Encrypt:                f.encrypt,
		TrustServerCertificate: f.trustCert,
	}
}

// azureFlagValues holds the Azure Entra ID flag values. The client secret is
// never a flag; it comes from $AZURE_CLIENT_SECRET.
type azureFlagValues struct {
	tenantID string
	clientID string
}

func (f *azureFlagValues) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	cmd.Flags().StringVar(&f.clientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
}

func (f *azureFlagValues) flags() *db.AzureFlags {
	return &db.AzureFlags{TenantID: f.tenantID, ClientID: f.clientID}
}

// resolvedEndpoint is one server endpoint after precedence resolution,
// password filling included.
type resolvedEndpoint struct {
	Config *mstools.ConnectionConfig

	// ManagementDB is the database for server-level CREATE and DROP
	// operations, before any target-database correction.
	ManagementDB string
}

// ConnString renders the endpoint back into a connection string for the
// service layer.
func (e *resolvedEndpoint) ConnString() string {
	return db.BuildConnectionString(e.Config)
}

// resolveEndpoint resolves one endpoint from an optional connection string,
// granular flags, cloud auth flags, environment variables and mstools.yaml,
// then guarantees a password for standard authentication. role names the
// endpoint in error messages and the password prompt.
func resolveEndpoint(
	connString string,
	granular *db.GranularConnFlags,
	azure *db.AzureFlags,
	google *db.GoogleFlags,
	projectCfg *config.ProjectConfig,
	role string,
) (*resolvedEndpoint, error) {
	connConfig, managementDB, err := db.ResolveConnectionParams(
		connString, granular, azure, google, db.LoadFromEnvironment(), projectCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", role, err)
	}

	if err := ensurePassword(connConfig, role); err != nil {
		return nil, err
	}

	return &resolvedEndpoint{Config: connConfig, ManagementDB: managementDB}, nil
}

// ensurePassword fills the endpoint password for standard authentication.
// Resolution order: connection string or flags, $SQLSERVER_PASSWORD,
// $SQLCMDPASSWORD, then an interactive prompt when stdin is a terminal.
// A login without a password is left alone; the server decides whether it
// needed one.
func ensurePassword(connConfig *mstools.ConnectionConfig, role string) error {
	if connConfig.AuthMethod != mstools.AuthMethodStandard || connConfig.Password != "" {
		return nil
	}

	// Granular resolution consults the environment already; a full
	// connection string bypasses it, so check again here.
	if pw := os.Getenv("SQLSERVER_PASSWORD"); pw != "" {
		connConfig.Password = pw
		return nil
	}
	if pw := os.Getenv("SQLCMDPASSWORD"); pw != "" {
		connConfig.Password = pw
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s (%s): ", connConfig.Username, connConfig.Host, role)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	connConfig.Password = string(pw)
	return nil
}

// sourceConnString resolves the source connection string:
// --source flag > $MSTOOLS_SOURCE > mstools.yaml source entry.
func sourceConnString(flagValue string, projectCfg *config.ProjectConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if s := os.Getenv("MSTOOLS_SOURCE"); s != "" {
		return s
	}
	if projectCfg != nil && projectCfg.Source != "" {
		return projectCfg.Source
	}
	return ""
}

// requireSourceString is sourceConnString with a guidance error when nothing
// was provided. Commands that read an existing database never fall back to
// localhost defaults: cloning from an accidental default is worse than an
// error.
func requireSourceString(flagValue string, projectCfg *config.ProjectConfig) (string, error) {
	s := sourceConnString(flagValue, projectCfg)
	if s == "" {
		return "", fmt.Errorf("source connection is required\n"+
			"Provide via:\n"+
			"  1. --source flag: --source \"sqlserver://sa@prod:1433?database=AppDB\"\n"+
			"  2. Environment variable: export MSTOOLS_SOURCE=\"sqlserver://...\"\n"+
			"  3. mstools.yaml source entry: %w", mstools.ErrInvalidConfig)
	}
	return s, nil
}

// destinationConnString resolves the destination connection string:
// --destination flag > $MSTOOLS_DESTINATION > mstools.yaml destination entry.
// An empty result is fine when granular flags or defaults can describe the
// destination server.
func destinationConnString(flagValue string, projectCfg *config.ProjectConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if s := os.Getenv("MSTOOLS_DESTINATION"); s != "" {
		return s
	}
	if projectCfg != nil && projectCfg.Destination != "" {
		return projectCfg.Destination
	}
	return ""
}

// resolveTargetDatabase applies database precedence: the -d flag always wins
// over the database named in a connection string.
func resolveTargetDatabase(flagDatabase, connConfigDatabase, commandName string) (string, error) {
	targetDB := flagDatabase
	if targetDB == "" {
		targetDB = connConfigDatabase
	}
	if targetDB == "" {
		return "", fmt.Errorf("destination database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: mstools %s -d AppDB_Copy\n"+
			"  2. Connection string: --destination \"sqlserver://sa@host?database=AppDB_Copy\"\n"+
			"  3. Environment variable: export SQLCMDDBNAME=AppDB_Copy: %w",
			commandName, mstools.ErrInvalidConfig)
	}
	return targetDB, nil
}

// determineManagementDB corrects the management database when the target
// database was taken from the connection string itself: server-level CREATE
// and DROP operations then need master, not the target.
func determineManagementDB(flagDatabase, connStringDatabase, current string) string {
	if flagDatabase == "" && connStringDatabase != "" &&
		!strings.EqualFold(connStringDatabase, mstools.DefaultManagementDB) {
		return mstools.DefaultManagementDB
	}
	return current
}

// loadProjectConfig loads .env files and the project configuration from the
// working directory. A missing mstools.yaml is not an error.
func loadProjectConfig() (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load mstools.yaml: %v: %w", err, mstools.ErrInvalidConfig)
	}
	return projectCfg, nil
}

// resolveEffectiveTimeout prefers mstools.yaml's timeout when the --timeout
// flag was left at its default.
func resolveEffectiveTimeout(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagTimeout time.Duration) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in mstools.yaml: %v: %w", err, mstools.ErrInvalidConfig)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// stageOverridesFromConfig converts mstools.yaml stage entries into overrides
// for the clone pipeline.
func stageOverridesFromConfig(projectCfg *config.ProjectConfig) []mstools.StageOverride {
	if projectCfg == nil || len(projectCfg.Clone.Stages) == 0 {
		return nil
	}
	overrides := make([]mstools.StageOverride, 0, len(projectCfg.Clone.Stages))
	for _, sc := range projectCfg.Clone.Stages {
		overrides = append(overrides, mstools.StageOverride{
			Name:      sc.Name,
			MaxPasses: sc.MaxPasses,
			Skip:      sc.Skip,
		})
	}
	return overrides
}

// logEndpoint records a resolved endpoint at debug level. The password is
// never logged.
func logEndpoint(logger *slog.Logger, role string, e *resolvedEndpoint) {
	logger.Debug("connection resolved",
		"role", role,
		"host", e.Config.Host,
		"port", e.Config.Port,
		"instance", e.Config.Instance,
		"user", e.Config.Username,
		"database", e.Config.Database,
		"auth", e.Config.AuthMethod.String())
}
