package codec

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/lorawan-service-manager/pkg/cmd/setup"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
)

type codecArgs struct {
	codec      string
	scriptFile string
	pluginID   string
	fPort      uint8
	variables  map[string]string
	recvTime   string
}

func NewCodecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codec",
		Short: "runs payload codecs offline",
	}
	cmd.AddCommand(newDecodeCmd(), newEncodeCmd(), newPluginsCmd())
	return cmd
}

func addCodecFlags(cmd *cobra.Command, a *codecArgs) {
	cmd.Flags().StringVar(&a.codec, "codec", "CAYENNE_LPP",
		"codec to use (NONE, CAYENNE_LPP, JS)")
	cmd.Flags().StringVar(&a.scriptFile, "script", "",
		"file containing the JS codec script")
	cmd.Flags().StringVar(&a.pluginID, "plugin", "",
		"id of a codec plugin (takes precedence over --codec)")
	cmd.Flags().Uint8Var(&a.fPort, "fport", 1, "fPort of the frame")
	cmd.Flags().StringToStringVar(&a.variables, "var", map[string]string{},
		"device variables (key=value)")
}

func newDecodeCmd() *cobra.Command {
	a := &codecArgs{}
	cmd := &cobra.Command{
		Use:   "decode <hex-payload>",
		Short: "decodes an uplink payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := codecService(cmd.Context())
			if err != nil {
				return err
			}
			return decode(cmd.Context(), cmd.OutOrStdout(), svc, a, args[0])
		},
	}
	addCodecFlags(cmd, a)
	cmd.Flags().StringVar(&a.recvTime, "recv-time", "",
		"receive time (RFC3339, default: now)")
	return cmd
}

func newEncodeCmd() *cobra.Command {
	a := &codecArgs{}
	cmd := &cobra.Command{
		Use:   "encode <json-object>",
		Short: "encodes a downlink object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := codecService(cmd.Context())
			if err != nil {
				return err
			}
			return encode(cmd.Context(), cmd.OutOrStdout(), svc, a, args[0])
		},
	}
	addCodecFlags(cmd, a)
	return cmd
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "lists the configured codec plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := codecService(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range svc.Plugins() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}

func codecService(ctx context.Context) (*codec.Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	setup.InitLogger()
	cfg, err := setup.AppConfig()
	if err != nil {
		return nil, err
	}
	c, err := setup.NewComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c.Codecs, nil
}

func (a *codecArgs) settings() (codec.Settings, error) {
	c, err := codec.ParseCodec(a.codec)
	if err != nil {
		return codec.Settings{}, err
	}
	ret := codec.Settings{Codec: c, PluginID: a.pluginID}
	if a.scriptFile != "" {
		src, err := os.ReadFile(a.scriptFile)
		if err != nil {
			return codec.Settings{}, err
		}
		ret.Script = string(src)
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func decode(
	ctx context.Context, w io.Writer, svc *codec.Service, a *codecArgs, payload string,
) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}
	b, err := hex.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("invalid hex payload: %w", err)
	}
	recvTime := time.Now()
	if a.recvTime != "" {
		if recvTime, err = time.Parse(time.RFC3339, a.recvTime); err != nil {
			return err
		}
	}
	obj, err := svc.Decode(ctx, settings, recvTime, a.fPort, a.variables, b)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

//nolint:whitespace // can't make both editor and linter happy
func encode(
	ctx context.Context, w io.Writer, svc *codec.Service, a *codecArgs, input string,
) error {
	settings, err := a.settings()
	if err != nil {
		return err
	}
	obj := map[string]any{}
	if err = json.Unmarshal([]byte(input), &obj); err != nil {
		return fmt.Errorf("invalid json object: %w", err)
	}
	b, err := svc.Encode(ctx, settings, a.fPort, a.variables, obj)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hex.EncodeToString(b))
	return err
}
