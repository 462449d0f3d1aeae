package main

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-autocache/internal/cacheinfra"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newCatCmd(opts *options) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "cat BLOB",
		Short: "Decode a cache blob and print it as JSON",
		Example: "autocache cat banks/starling/statements/acc-1/2024-01\n" +
			"autocache cat pkg/add/1-2 --query 0.amount",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolve(args[0])
			if err != nil {
				return err
			}

			value, err := cacheinfra.ReadBlob(path)
			if err != nil {
				return err
			}
			opts.logger.Debug("decoded blob", "path", path)

			data, err := json.MarshalIndent(jsonSafe(value), "", "  ")
			if err != nil {
				return fmt.Errorf("render %s: %w", path, err)
			}

			if query != "" {
				result := gjson.GetBytes(data, query)
				if !result.Exists() {
					return fmt.Errorf("query %q matched nothing in %s", query, path)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.String())
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "gjson path selecting part of the value")
	return cmd
}

// jsonSafe converts map[any]any values, which encoding/json rejects, into
// string keyed maps.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	case []byte:
		return string(t)
	}
	return v
}
