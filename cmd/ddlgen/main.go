package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/ddlgen"
	"github.com/tordrt/ddlgen/internal/config"
	"github.com/tordrt/ddlgen/internal/db"
	"github.com/tordrt/ddlgen/internal/logging"
)

var (
	configPath string
	logLevel   string
	tables     string
	exclude    string
	schemaName string
	delimited  bool

	schemaFile    string
	dialect       string
	dbURL         string
	outputFile    string
	outputDir     string
	format        string
	execute       bool
	appendColumns bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ddlgen",
	Short: "Generate and alter database schemas",
	Long: `ddlgen creates DDL scripts from a YAML schema file for PostgreSQL, MySQL, SQLite, Oracle, DB2 and SAP MaxDB,
and computes the statements that bring a live PostgreSQL, MySQL or SQLite database in line with the file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { _ = logger.Sync() },
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Write the script that creates the schema",
	RunE:  runCreate,
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Write the script that drops the schema",
	RunE:  runDrop,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the changes between a database and the schema file",
	RunE:  runDiff,
}

var alterCmd = &cobra.Command{
	Use:   "alter",
	Short: "Write or execute the statements that alter a database into the schema file",
	RunE:  runAlter,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the schema of a database as a YAML schema file",
	RunE:  runDump,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: ddlgen.yaml when present)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	pf.StringVar(&exclude, "exclude", "", "Tables to leave out (comma-separated, optional)")
	pf.StringVar(&schemaName, "schema-name", "", "Database schema name (default: public for PostgreSQL, from the URL for MySQL)")
	pf.BoolVar(&delimited, "delimited", true, "Quote identifiers")

	for _, cmd := range []*cobra.Command{createCmd, dropCmd, diffCmd, alterCmd} {
		cmd.Flags().StringVar(&schemaFile, "schema", "", "YAML schema file")
	}
	for _, cmd := range []*cobra.Command{createCmd, dropCmd, diffCmd, alterCmd} {
		cmd.Flags().StringVar(&dialect, "dialect", "", "Target dialect (default: the database's engine, or ansi)")
	}
	for _, cmd := range []*cobra.Command{diffCmd, alterCmd, dumpCmd} {
		cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (postgres://, mysql:// or sqlite://)")
	}
	for _, cmd := range []*cobra.Command{createCmd, dropCmd, diffCmd, alterCmd, dumpCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	}
	createCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for one file per table")
	diffCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text or markdown (default: text)")
	alterCmd.Flags().BoolVar(&execute, "execute", false, "Run the statements against the database instead of printing them")
	alterCmd.Flags().BoolVar(&appendColumns, "append-columns", false, "Append new columns at the end where the engine cannot place them")

	rootCmd.AddCommand(createCmd, dropCmd, diffCmd, alterCmd, dumpCmd)
}

// setup loads the config file, lets flags override it and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", zap.String("dialect", cfg.Dialect), zap.String("schema_file", cfg.SchemaFile))
	return nil
}

// applyFlags copies the flags given on the command line into the config
func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		c.Logging.Level = logLevel
	}
	if changed("tables") {
		c.Tables = parseTableList(tables)
	}
	if changed("exclude") {
		c.ExcludeTables = parseTableList(exclude)
	}
	if changed("schema-name") {
		c.SchemaName = schemaName
	}
	if changed("delimited") {
		c.DelimitedIdentifiers = &delimited
	}
	if changed("schema") {
		c.SchemaFile = schemaFile
	}
	if changed("dialect") {
		c.Dialect = dialect
	}
	if changed("db-url") {
		c.DatabaseURL = dbURL
	}
	if changed("output") {
		c.Output.File = outputFile
		c.Output.Dir = ""
	}
	if changed("output-dir") {
		c.Output.Dir = outputDir
		c.Output.File = ""
	}
	if changed("format") {
		c.Output.Format = format
	}
}

func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	list := strings.Split(s, ",")
	for i, t := range list {
		list[i] = strings.TrimSpace(t)
	}
	return list
}

func readOptions() *ddlgen.Options {
	return &ddlgen.Options{
		Tables:        cfg.Tables,
		ExcludeTables: cfg.ExcludeTables,
		SchemaName:    cfg.SchemaName,
	}
}

func ddlOptions(dialectName string) *ddlgen.DDLOptions {
	return &ddlgen.DDLOptions{
		Dialect:                dialectName,
		PlainIdentifiers:       !cfg.Delimited(),
		AppendMisplacedColumns: appendColumns,
		Logger:                 logger,
	}
}

// targetDialect is the configured dialect, or the engine behind the
// database URL when none is configured
func targetDialect() (string, error) {
	if cfg.Dialect != "" || cfg.DatabaseURL == "" {
		return cfg.Dialect, nil
	}
	dbType, _, err := db.ParseURL(cfg.DatabaseURL)
	return dbType, err
}

// loadDesired reads the schema file restricted to the selected tables
func loadDesired() (*ddlgen.Schema, error) {
	if cfg.SchemaFile == "" {
		return nil, errors.NotValidf("missing schema file (use --schema)")
	}
	s, err := ddlgen.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	ddlgen.FilterTables(s, cfg.Tables, cfg.ExcludeTables)
	return s, nil
}

func readCurrent(ctx context.Context) (*ddlgen.Schema, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.NotValidf("missing database URL (use --db-url)")
	}
	return ddlgen.ReadSchema(ctx, cfg.DatabaseURL, readOptions())
}

// withOutput runs write against the output file, or stdout when none is set
func withOutput(write func(w io.Writer) error) error {
	if cfg.Output.File == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(cfg.Output.File)
	if err != nil {
		return errors.Annotate(err, "failed to create output file")
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close output file", zap.Error(err))
		}
	}()
	return write(f)
}

func runCreate(cmd *cobra.Command, args []string) error {
	s, err := loadDesired()
	if err != nil {
		return err
	}
	opts := ddlOptions(cfg.Dialect)

	if cfg.Output.Dir != "" {
		files, err := ddlgen.WriteCreateDDLFiles(cfg.Output.Dir, s, opts)
		if err != nil {
			return err
		}
		logger.Info("wrote create scripts", zap.String("dir", cfg.Output.Dir), zap.Int("files", len(files)))
		return nil
	}
	return withOutput(func(w io.Writer) error {
		return ddlgen.WriteCreateDDL(w, s, opts)
	})
}

func runDrop(cmd *cobra.Command, args []string) error {
	s, err := loadDesired()
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return ddlgen.WriteDropDDL(w, s, ddlOptions(cfg.Dialect))
	})
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	desired, err := loadDesired()
	if err != nil {
		return err
	}
	current, err := readCurrent(ctx)
	if err != nil {
		return err
	}
	target, err := targetDialect()
	if err != nil {
		return err
	}

	changes, err := ddlgen.Diff(current, desired, ddlOptions(target))
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return ddlgen.FormatChanges(w, changes, cfg.Output.Format)
	})
}

func runAlter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	desired, err := loadDesired()
	if err != nil {
		return err
	}
	target, err := targetDialect()
	if err != nil {
		return err
	}

	if execute {
		executed, err := ddlgen.Migrate(ctx, cfg.DatabaseURL, desired, readOptions(), ddlOptions(cfg.Dialect))
		logger.Info("migration finished", zap.Int("statements", executed))
		return err
	}

	current, err := readCurrent(ctx)
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return ddlgen.WriteAlterDDL(w, current, desired, ddlOptions(target))
	})
}

func runDump(cmd *cobra.Command, args []string) error {
	s, err := readCurrent(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Output.File != "" {
		return ddlgen.SaveSchema(cfg.Output.File, s)
	}
	data, err := ddlgen.MarshalSchema(s)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return errors.Trace(err)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
