package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsg-Selina-Varshney/EMS/internal/app"
	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/console"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and creates an EMSApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "list", "console").
func newApp(operation string, opts app.Options) (*app.EMSApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if url := defaults["api_url"]; url != "" {
		cfg.API.BaseURL = url
	}

	opts.Verbose = verbose
	a, err := app.NewEMSApp(cfg, operation, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func stdPrompter() *console.Prompter {
	return console.NewPrompter(os.Stdin, os.Stdout)
}

// fail prints err the way the console does and hands cobra a short error.
func fail(cmd *cobra.Command, err error) error {
	cmd.SilenceUsage = true
	return errors.New(console.FormatError(err))
}

var rootCmd = &cobra.Command{
	Use:   "ems",
	Short: "Employee directory admin console",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.InitConfig(defaults)
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("API:      %s\n", cfg.API.BaseURL)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("API:        %s (timeout %ds)\n", cfg.API.BaseURL, cfg.API.TimeoutSeconds)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Session:    %s (encrypted: %v)\n", cfg.Session.Type, cfg.Session.Encrypt)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Export:     %s (%s)\n", cfg.Export.Type, cfg.Export.Format)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the session encryption keys if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := app.SetupEncryption(cfg); err != nil {
			return err
		}
		fmt.Printf("Encryption keys ready (%s)\n", cfg.Encryption.Type)
		return nil
	},
}

// session commands
var loginCmd = &cobra.Command{
	Use:   "login [USERNAME]",
	Short: "Log in to the employee directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("login", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		p := stdPrompter()
		var username string
		if len(args) > 0 {
			username = args[0]
		} else if username, err = p.Ask("Username"); err != nil {
			return err
		}
		password, err := p.Password("Password")
		if err != nil {
			return err
		}

		s, err := a.Login(cmd.Context(), username, password)
		if err != nil {
			return fail(cmd, err)
		}
		fmt.Printf("Logged in as %s (%s)\n", s.Name, s.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("logout", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("whoami", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.WhoAmI()
		if err != nil {
			return fail(cmd, err)
		}
		return console.RenderSession(os.Stdout, s)
	},
}

// employees command
var employeesCmd = &cobra.Command{
	Use:     "employees",
	Aliases: []string{"emp"},
	Short:   "Browse and change the employee directory",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		sortBy, _ := cmd.Flags().GetString("sort")
		desc, _ := cmd.Flags().GetBool("desc")
		filter, _ := cmd.Flags().GetString("filter")
		search, _ := cmd.Flags().GetString("search")

		var q app.Query
		q.Desc = desc
		q.Search = search
		if sortBy != "" {
			col, err := ems.ParseColumn(sortBy)
			if err != nil {
				return err
			}
			q.Sort = col
		}
		if filter != "" {
			name, value, ok := strings.Cut(filter, "=")
			if !ok || value == "" {
				return fmt.Errorf("--filter wants COLUMN=VALUE, got %q", filter)
			}
			col, err := ems.ParseColumn(name)
			if err != nil {
				return err
			}
			q.Filter = ems.Filter{Column: col, Value: value}
		}

		a, err := newApp("list", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.ListEmployees(cmd.Context(), q)
		if err != nil {
			return fail(cmd, err)
		}
		return console.RenderEmployees(os.Stdout, rows)
	},
}

// fieldFlags are the per-column flags of add and edit.
var fieldFlags = []ems.Column{
	ems.ColumnName,
	ems.ColumnDepartment,
	ems.ColumnDesignation,
	ems.ColumnEmail,
	ems.ColumnPhone,
	ems.ColumnStartDate,
	ems.ColumnRole,
}

func addFieldFlags(cmd *cobra.Command) {
	for _, c := range fieldFlags {
		cmd.Flags().String(string(c), "", c.Label())
	}
}

// changedFields collects the field flags that were set on the command line.
func changedFields(cmd *cobra.Command) map[ems.Column]string {
	changes := map[ems.Column]string{}
	for _, c := range fieldFlags {
		if cmd.Flags().Changed(string(c)) {
			changes[c], _ = cmd.Flags().GetString(string(c))
		}
	}
	return changes
}

var employeesAddCmd = &cobra.Command{
	Use:   "add [USERNAME]",
	Short: "Create an employee (admin only)",
	Long: "Create an employee. With a USERNAME the fields come from flags and only\n" +
		"the password is prompted for; without one every field is prompted for.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("add", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		p := stdPrompter()
		var draft ems.Employee
		if len(args) == 0 {
			opts, err := a.View().LoadOptions(cmd.Context())
			if err != nil {
				return fail(cmd, err)
			}
			if draft, err = console.ReadNewEmployee(p, opts); err != nil {
				return err
			}
		} else {
			draft.Set(ems.ColumnUsername, args[0])
			for c, v := range changedFields(cmd) {
				if err := draft.Set(c, v); err != nil {
					return err
				}
			}
			password, err := p.Password("Password")
			if err != nil {
				return err
			}
			draft.Set(ems.FieldPassword, password)
		}

		if err := a.AddEmployee(cmd.Context(), draft); err != nil {
			return fail(cmd, err)
		}
		fmt.Printf("Created employee %s\n", draft.Username)
		return nil
	},
}

var employeesEditCmd = &cobra.Command{
	Use:   "edit USERNAME",
	Short: "Change the fields given as flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := changedFields(cmd)
		if len(changes) == 0 {
			return errors.New("nothing to change: pass at least one field flag")
		}

		a, err := newApp("edit", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EditEmployee(cmd.Context(), args[0], changes); err != nil {
			return fail(cmd, err)
		}
		fmt.Printf("Updated employee %s\n", args[0])
		return nil
	},
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete an employee (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		var confirmer ems.Confirmer = stdPrompter()
		if yes {
			confirmer = ems.AlwaysConfirm
		}
		a, err := newApp("delete", app.Options{Confirmer: confirmer})
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.DeleteEmployee(cmd.Context(), args[0])
		if errors.Is(err, ems.ErrCancelled) {
			fmt.Println("Not deleted.")
			return nil
		}
		if err != nil {
			return fail(cmd, err)
		}
		fmt.Printf("Deleted employee %s\n", args[0])
		return nil
	},
}

var employeesValuesCmd = &cobra.Command{
	Use:   "values COLUMN",
	Short: "List the distinct values of a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := ems.ParseColumn(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("values", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		values, err := a.UniqueValues(cmd.Context(), col)
		if err != nil {
			return fail(cmd, err)
		}
		for _, v := range values {
			fmt.Println(v)
		}
		return nil
	},
}

// audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("audit", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.AuditLog(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		return console.RenderAudit(os.Stdout, entries)
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:       "export employees|audit",
	Short:     "Export the directory or the audit log",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{app.ExportEmployees, app.ExportAudit},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("export", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		location, err := a.Export(cmd.Context(), args[0])
		if err != nil {
			return fail(cmd, err)
		}
		fmt.Printf("Exported %s to %s\n", args[0], location)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View console operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-10s  %-9s  %s  %s\n",
				op.ID,
				op.Name,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Username,
				op.Parameters,
			)
		}
		return nil
	},
}

// console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive console",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := stdPrompter()
		a, err := newApp("console", app.Options{Confirmer: p})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := console.New(a, p, os.Stdout).Run(cmd.Context()); err != nil {
			return fail(cmd, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo log records to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)

	// employees subcommands
	employeesCmd.AddCommand(employeesListCmd)
	employeesListCmd.Flags().String("sort", "", "Sort by COLUMN")
	employeesListCmd.Flags().Bool("desc", false, "Sort descending")
	employeesListCmd.Flags().String("filter", "", "Show only COLUMN=VALUE (department or designation)")
	employeesListCmd.Flags().String("search", "", "Show records containing TERM in any field")
	employeesCmd.AddCommand(employeesAddCmd)
	addFieldFlags(employeesAddCmd)
	employeesCmd.AddCommand(employeesEditCmd)
	addFieldFlags(employeesEditCmd)
	employeesCmd.AddCommand(employeesDeleteCmd)
	employeesDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	employeesCmd.AddCommand(employeesValuesCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(employeesCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of operations to show")
	rootCmd.AddCommand(consoleCmd)
}
