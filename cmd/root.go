package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aRestless/staticip/pkg/config"
)

// Execute executes the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	logIn := &LogInput{}

	rootCmd := &cobra.Command{
		Use:   "staticip",
		Short: "Write RENEW records for new and moved GCP instances",
		Long: "staticip compares each project's compute instances with the hosts seen on earlier runs,\n" +
			"gives new hosts a synthetic hardware address and writes one RENEW line per new or changed host.\n" +
			"Runs must not overlap; schedule them from a single cron entry or use --lock-file.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// You can bind cobra and viper in a few locations, but PersistencePreRunE on the root command works well
			return initConfig(cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, logIn)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./staticip.config.yaml)")
	bindLogInput(rootCmd, logIn)
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(initRunCmd(logIn))
	rootCmd.AddCommand(initCheckCmd())

	return rootCmd
}

var envReplacer = strings.NewReplacer("-", "_", ".", "_")

func initConfig(cmd *cobra.Command, cfgFile string) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Set the base name of the config file, without the file extension.
		v.SetConfigName("staticip.config")
		v.AddConfigPath(".")
	}

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Flags bind to STATICIP_-prefixed environment variables,
	// e.g. --inventory.source to STATICIP_INVENTORY_SOURCE.
	v.SetEnvPrefix("STATICIP")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Since viper does case-insensitive comparisons, camelCase keys in the
		// config file match once the hyphens are removed.
		configName := strings.ReplaceAll(f.Name, "-", "")

		// The hyphen-free key would map --log-all-hosts to STATICIP_LOGALLHOSTS;
		// bind the underscored form as well.
		_ = v.BindEnv(configName, "STATICIP_"+envReplacer.Replace(strings.ToUpper(f.Name)))

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if f.Changed || !v.IsSet(configName) {
			return
		}

		var setErr error
		val := v.Get(configName)
		sv, isSlice := f.Value.(pflag.SliceValue)
		switch s, isString := val.(string); {
		case isString:
			// Env values and scalar config entries go through pflag so that
			// slices split on commas, same as on the command line.
			setErr = cmd.Flags().Set(f.Name, s)
		case isSlice:
			setErr = sv.Replace(v.GetStringSlice(configName))
		default:
			setErr = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}

		if setErr != nil && err == nil {
			err = fmt.Errorf("apply config value %s: %w", configName, setErr)
		}
	})

	return err
}

func printTable(w io.Writer, rows []map[string]string, order []string) {
	tw := tabwriter.NewWriter(w, 4, 8, 1, '\t', 0)

	fmt.Fprintln(tw, strings.Join(order, "\t"))
	for _, row := range rows {
		var output []string
		for _, column := range order {
			output = append(output, row[column])
		}

		fmt.Fprintln(tw, strings.Join(output, "\t"))
	}

	tw.Flush()
}
