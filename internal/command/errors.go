package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/job-status/internal/db"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if isSchemaError(err) {
		dbPath, _ := cmd.Flags().GetString("db")
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s does not hold a job_status history this version can read. Move it aside or pass --db.\n", dbPath)
	}

	return err
}

// isSchemaError reports whether err comes from an unusable job_status table,
// either rejected when the store opened or altered underneath a running monitor.
func isSchemaError(err error) bool {
	var schemaErr *db.SchemaError
	if errors.As(err, &schemaErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "no such column")
}
