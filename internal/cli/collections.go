package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/casedesk/pkg/client"
)

var errMissingData = errors.New("--data is required")

func listCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list COLLECTION",
		Short: "List the items of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, err := newPrinter(opts.output)
			if err != nil {
				return err
			}

			c, err := opts.newClient(cmd)
			if err != nil {
				return err
			}

			// A read failure is reported inline and the empty list is still printed.
			state := c.Collection(cmd.Context(), args[0]).State()
			if state.Error != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", state.Error)
			}

			return render(cmd.OutOrStdout(), state.Items)
		},
	}
}

func createCmd(opts *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create COLLECTION",
		Short: "Create an item from a JSON object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, opts, args[0], data, func(coll *client.Collection, item client.Item) (client.Item, error) {
				return coll.Create(cmd.Context(), item)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "item fields as a JSON object")

	return cmd
}

func updateCmd(opts *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update COLLECTION ID",
		Short: "Update an item with the fields of a JSON object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			return runWrite(cmd, opts, args[0], data, func(coll *client.Collection, item client.Item) (client.Item, error) {
				return coll.Update(cmd.Context(), id, item)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "item fields as a JSON object")

	return cmd
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete COLLECTION ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient(cmd)
			if err != nil {
				return err
			}

			return c.Collection(cmd.Context(), args[0]).Delete(cmd.Context(), args[1])
		},
	}
}

// runWrite decodes data, runs the write against the named collection and
// prints the item returned by the server.
func runWrite(
	cmd *cobra.Command,
	opts *rootOptions,
	collection, data string,
	write func(*client.Collection, client.Item) (client.Item, error),
) error {
	item, err := parseData(data)
	if err != nil {
		return err
	}

	render, err := newPrinter(opts.output)
	if err != nil {
		return err
	}

	c, err := opts.newClient(cmd)
	if err != nil {
		return err
	}

	result, err := write(c.Collection(cmd.Context(), collection), item)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), result)
}

func parseData(data string) (client.Item, error) {
	if data == "" {
		return nil, errMissingData
	}

	var item client.Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("decoding --data: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("decoding --data: %w", errMissingData)
	}

	return item, nil
}
