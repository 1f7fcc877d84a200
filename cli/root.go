// cli/root.go
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-notes/config"
	"github.com/ViniZap4/lumi-notes/logging"
)

var version = "dev"

type options struct {
	configPath string
	trace      bool

	cfg *config.Config
	app *App
}

// NewRootCmd builds the lumi command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "lumi",
		Short: "Take notes from the terminal",
		Long: `lumi is a note-taking client. Notes live on a lumi API server, or
on this device when notes.backend is "local".

Configuration is read from ~/.lumi/config.yaml and LUMI_* environment
variables, e.g. LUMI_API_BASE_URL=https://notes.example.com.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if o.app == nil {
				return nil
			}
			if o.trace {
				printTrace(cmd, o.app)
			}
			return o.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default ~/.lumi/config.yaml)")
	root.PersistentFlags().BoolVar(&o.trace, "trace", false, "print recent API requests after the command")

	root.AddCommand(
		newLoginCmd(o),
		newRegisterCmd(o),
		newLogoutCmd(o),
		newLogoutAllCmd(o),
		newRefreshCmd(o),
		newWhoamiCmd(o),
		newNotesCmd(o),
		newServeCmd(o),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *options) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// load builds the client app once per invocation.
func (o *options) load(cmd *cobra.Command) (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	app, err := NewApp(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func printTrace(cmd *cobra.Command, app *App) {
	w := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMETHOD\tURL\tAUTH")
	for _, e := range app.Client.Recent() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", e.Time.Format(time.TimeOnly), e.Method, e.URL, e.HasAuth())
	}
	w.Flush()
}
