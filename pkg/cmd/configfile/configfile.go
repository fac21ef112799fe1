package configfile

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

var sectionComments = map[string]string{
	"network": "Network settings.\n" +
		"adr_plugins: files containing ADR algorithms (JavaScript).\n" +
		"regions: the region configurations devices profiles may refer to.",
	"codec": "Codec settings.\n" +
		"js.max_execution_time: max duration of a single script execution.\n" +
		"js.plugins: files containing codec plugins (JavaScript).",
	"integration": "Integrations receiving uplink events.\n" +
		"enabled: any of redis, nats, http.",
}

func NewConfigfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configfile",
		Short: "prints a configuration file with default values",
		Long: "Prints the structured configuration with its default values. " +
			"Store the output as $HOME/.lsm.yml or pass it via --config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Write(cmd.OutOrStdout(), config.Default())
		},
	}
}

// Write encodes cfg as commented yaml.
func Write(w io.Writer, cfg *config.Config) error {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return err
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if c, ok := sectionComments[key.Value]; ok {
			key.HeadComment = c
		}
	}
	if _, err := io.WriteString(w, "# lsm configuration file\n\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}
