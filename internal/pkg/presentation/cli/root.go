package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/generator"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/spf13/cobra"
)

type settings struct {
	serviceKey string
	pageSize   int
	cache      bool
	debug      bool
}

// NewRootCommand wires the generate, devices, assignments and serve commands.
// Flag defaults are read from the environment.
func NewRootCommand(ctx context.Context, version string) *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:     "sample-payload",
		Short:   "Generate sample measurement payloads for IoT devices",
		Version: version,
		Long: `sample-payload walks the device model of an IoT service (devices, sensors,
sensor types and capabilities) and generates a sample payload with a
plausible value for every measure property.

A payload can be generated for a device, with all of its measure
capabilities, or for a technical object, limited to the capabilities that
are mapped for the object.`,
		SilenceUsage: true,
	}

	pageSize, _ := strconv.Atoi(env.GetVariableOrDefault(ctx, "PAGE_SIZE", strconv.Itoa(client.DefaultPageSize)))

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&s.serviceKey, "service-key", "k", env.GetVariableOrDefault(ctx, "SERVICE_KEY", ""), "service key file of the IoT service instance")
	flags.IntVar(&s.pageSize, "page-size", pageSize, "number of entities requested per page when listing")
	flags.BoolVar(&s.cache, "cache", false, "reuse entities that are fetched more than once during a run")
	flags.BoolVar(&s.debug, "debug", env.GetVariableOrDefault(ctx, "CLIENT_DEBUG", "false") == "true", "log failed requests to the device model service")

	rootCmd.AddCommand(
		newGenerateCommand(ctx, s),
		newDevicesCommand(ctx, s),
		newAssignmentsCommand(ctx, s),
		newServeCommand(ctx),
	)

	return rootCmd
}

func newGenerateCommand(ctx context.Context, s *settings) *cobra.Command {
	opts := generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a sample payload for a device or a technical object",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

			app, err := s.newApp(ctx, p)
			if err != nil {
				return err
			}

			return generate(ctx, app, p, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "direct", "direct (device) or filtered (technical object)")
	cmd.Flags().StringVar(&opts.selector, "id", "", "device id, or object id in filtered mode, selects interactively when empty")
	cmd.Flags().StringVarP(&opts.output, "output", "o", env.GetVariableOrDefault(ctx, "OUTPUT_FILE", DefaultOutputFile), "file to write the payload to")

	return cmd
}

func newDevicesCommand(ctx context.Context, s *settings) *cobra.Command {
	var filter, orderBy string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.newApp(ctx, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
			if err != nil {
				return err
			}

			params := []client.RequestDecoratorFunc{}
			if filter != "" {
				params = append(params, client.Filter(filter))
			}
			if orderBy != "" {
				params = append(params, client.OrderBy(orderBy))
			}

			devices, err := app.ListDevices(ctx, generator.DefaultTenant, params...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), DevicesTable(devices))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter expression passed to the device model service")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "field to order the devices by")

	return cmd
}

func newAssignmentsCommand(ctx context.Context, s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "assignments",
		Short: "List all technical object assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.newApp(ctx, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
			if err != nil {
				return err
			}

			assignments, err := app.ListAssignments(ctx, generator.DefaultTenant)
			if err != nil {
				return err
			}

			if len(assignments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("No assignments have been found."))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), AssignmentsTable(assignments))
			return nil
		},
	}
}

// newApp asks for the service key file when none was given by flag or
// environment.
func (s *settings) newApp(ctx context.Context, p *prompter) (generator.App, error) {
	serviceKey := s.serviceKey

	if serviceKey == "" {
		var err error
		serviceKey, err = p.Ask("Please enter the full file name of your service key file")
		if err != nil {
			return nil, fmt.Errorf("no service key file given: %w", err)
		}
	}

	cfg := generator.SingleTenant(serviceKey, s.cache)
	cfg.Tenants[0].PageSize = s.pageSize
	cfg.Tenants[0].Debug = s.debug

	return generator.New(ctx, cfg)
}
