package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	coreconfig "github.com/AzielCF/az-funnel/core/config"
	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/AzielCF/az-funnel/usecase"
	"github.com/AzielCF/az-funnel/validations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags to the viper keys they override.
var flagKeys = map[string]string{
	"port":   "app_port",
	"debug":  "app_debug",
	"script": "script_file",
	"async":  "webhook_async",
}

var cfg *coreconfig.Config

var rootCmd = &cobra.Command{
	Use:   "az-funnel",
	Short: "WhatsApp Cloud API sales funnel responder",
	Long: `Answers WhatsApp Cloud API webhooks with a scripted sales conversation:
an intro image and menu for new leads, a preview video, the price list and
purchase follow-ups for each button tap.`,
	PersistentPreRunE: initApp,
	SilenceUsage:      true,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "3000", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging --debug <true/false> | example: --debug=true")
	rootCmd.PersistentFlags().StringP("script", "s", "", `conversation script file (yaml or json) --script <path> | example: --script="funnel.yaml"`)
	rootCmd.PersistentFlags().Bool("async", false, "handle webhook events on the worker pool --async <true/false> | example: --async=true")
}

// applyFlags copies only the flags set on the command line, so an unset flag
// never shadows the environment.
func applyFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			viper.Set(key, f.Value.String())
		}
	})
}

func initApp(cmd *cobra.Command, _ []string) error {
	applyFlags(cmd.Flags())

	loaded, err := coreconfig.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Debugf("[APP] settings: %v", coreconfig.GetAllSettings(cfg))
	return nil
}

// loadScript returns the configured script file, or the built-in one, after
// validating it against the configured media links.
func loadScript(ctx context.Context) (*domainConversation.Script, error) {
	script := usecase.DefaultScript()
	if cfg.Conversation.ScriptFile != "" {
		loaded, err := usecase.LoadScript(cfg.Conversation.ScriptFile)
		if err != nil {
			return nil, err
		}
		script = loaded
	}

	fallback := validations.MediaFallback{ImageURL: cfg.Media.ImageURL, VideoURL: cfg.Media.VideoURL}
	if err := validations.ValidateScript(ctx, script, fallback); err != nil {
		return nil, err
	}
	if missing := validations.UnansweredButtons(script); len(missing) > 0 {
		logrus.Warnf("[APP] script %q offers buttons without a reply: %v", script.Name, missing)
	}
	return script, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
