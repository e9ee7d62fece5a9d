package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Show the effective configuration. Pass --username, --log-out-file or --log-err-file to update it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, path, err := resolveConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			jsonMode, _ := cmd.Flags().GetBool("json")
			if jsonMode {
				payload := map[string]string{
					"path":         path,
					"username":     config.Username,
					"log_out_file": config.LogOutFile,
					"log_err_file": config.LogErrFile,
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration (%s):\n", path)
			fmt.Fprintf(out, "  username: %s\n", config.Username)
			fmt.Fprintf(out, "  log_out_file: %s\n", config.LogOutFile)
			fmt.Fprintf(out, "  log_err_file: %s\n", config.LogErrFile)
			return nil
		},
	}

	return cmd
}
