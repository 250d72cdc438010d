package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/generator"
	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const DefaultOutputFile string = "payload.json"

type generateOptions struct {
	mode     string
	selector string
	output   string
}

// generate runs one generation. Without a selector the devices, or assignments
// in filtered mode, are listed and the user picks one by line number. The
// payload is printed and written to the output file unless the selection has
// no sensors.
func generate(ctx context.Context, app generator.App, p *prompter, out io.Writer, opts generateOptions) error {
	mode, err := payload.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	selector := opts.selector
	if selector == "" {
		selector, err = selectInteractively(ctx, app, p, out, mode)
		if err != nil {
			return err
		}
		if selector == "" {
			return nil
		}
	}

	result, err := app.GeneratePayload(ctx, generator.DefaultTenant, mode, selector)
	if err != nil {
		return err
	}

	if result.Empty {
		fmt.Fprintln(out, infoStyle.Render("\n"+result.Reason))
		return nil
	}

	fmt.Fprintf(out, "\n%s\n", result.Payload)

	err = writePayloadFile(opts.output, result.Payload)
	if err != nil {
		return err
	}

	logging.GetFromContext(ctx).Debug("payload written", "file", opts.output, "run_id", result.Run.ID.String())
	fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("\nSample payload has been written to file %q.", opts.output)))

	return nil
}

// selectInteractively returns an empty selector, and no error, when there is
// nothing to select from.
func selectInteractively(ctx context.Context, app generator.App, p *prompter, out io.Writer, mode payload.Mode) (string, error) {
	if mode == payload.Filtered {
		assignments, err := app.ListAssignments(ctx, generator.DefaultTenant)
		if err != nil {
			return "", err
		}

		if len(assignments) == 0 {
			fmt.Fprintln(out, infoStyle.Render("\nNo assignments have been found."))
			return "", nil
		}

		fmt.Fprintln(out, "\nFollowing assignments have been found:")
		fmt.Fprintln(out, AssignmentsTable(assignments))

		idx, err := p.SelectLine("Please enter the Line No. of the object for which you would like to generate a sample payload", len(assignments))
		if err != nil {
			return "", err
		}

		return assignments[idx].ObjectID, nil
	}

	devices, err := app.ListDevices(ctx, generator.DefaultTenant)
	if err != nil {
		return "", err
	}

	if len(devices) == 0 {
		fmt.Fprintln(out, infoStyle.Render("\nNo devices have been found."))
		return "", nil
	}

	fmt.Fprintln(out, "\nFollowing devices have been found:")
	fmt.Fprintln(out, DevicesTable(devices))

	idx, err := p.SelectLine("Please enter the Line No. of the device for which you would like to generate a sample payload", len(devices))
	if err != nil {
		return "", err
	}

	fmt.Fprintf(out, "\nSelected device: %s (%s)\n", devices[idx].Name, devices[idx].ID)

	return devices[idx].ID, nil
}

func writePayloadFile(path string, data []byte) error {
	contents := make([]byte, 0, len(data)+1)
	contents = append(append(contents, data...), '\n')

	err := os.WriteFile(path, contents, 0644)
	if err != nil {
		return fmt.Errorf("failed to write payload file: %w", err)
	}
	return nil
}
