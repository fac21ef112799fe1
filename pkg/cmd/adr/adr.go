package adr

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/cmd/setup"
	adrserver "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

func NewAdrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adr",
		Short: "runs ADR algorithms offline",
	}
	cmd.AddCommand(newListCmd(), newRunCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists the available ADR algorithms",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := components(cmd.Context())
			if err != nil {
				return err
			}
			list(cmd.OutOrStdout(), c.Adr)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	algorithm := "default"
	cmd := &cobra.Command{
		Use:   "run <request.json|->",
		Short: "runs an ADR algorithm on a request",
		Long: "Runs an ADR algorithm on a request read from a file or stdin (-). " +
			"The request uses the JSON format of the AdrService.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := components(cmd.Context())
			if err != nil {
				return err
			}
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			return run(cmd.Context(), cmd.OutOrStdout(), c.Regions, c.Adr, algorithm, in)
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", algorithm, "id of the ADR algorithm")
	return cmd
}

func components(ctx context.Context) (*setup.Components, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	setup.InitLogger()
	cfg, err := setup.AppConfig()
	if err != nil {
		return nil, err
	}
	return setup.NewComponents(ctx, cfg)
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(name)
}

func list(w io.Writer, registry *adr.Registry) {
	for _, a := range registry.Algorithms() {
		fmt.Fprintf(w, "%-20s %s\n", a.ID, a.Name)
	}
}

//nolint:whitespace // can't make both editor and linter happy
func run(
	ctx context.Context,
	w io.Writer,
	regions *region.Registry,
	registry *adr.Registry,
	algorithm string,
	in io.Reader,
) error {
	var req lsmv1.AdrRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	adrReq, err := adrserver.ToRequest(regions, &req)
	if err != nil {
		return err
	}
	resp, err := registry.Run(ctx, algorithm, adrReq)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(adrserver.ToResult(resp), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
