package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
)

var importUsersFile string

// The community graph (who belongs to a universe, and how influential
// they are) is built externally; this command loads its NDJSON export of
// users and weights.
var importUsersCmd = &cobra.Command{
	Use:   "import-users <universe>",
	Short: "Upsert tracked users and their influence weights from NDJSON (stdin by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUniverse(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.EnsureIndexes(cmd.Context(), u.Name); err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if importUsersFile != "" {
			f, err := os.Open(importUsersFile)
			if err != nil {
				return fmt.Errorf("failed to open users file: %w", err)
			}
			defer f.Close()
			in = f
		}

		saved := 0
		scanner := bufio.NewScanner(in)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			var user domain.User
			if err := json.Unmarshal([]byte(text), &user); err != nil {
				return apperr.NewValidationWrap(fmt.Sprintf("line %d", line), err)
			}
			if user.ID == "" {
				return apperr.NewValidation(fmt.Sprintf("line %d: user id is required", line))
			}
			if err := store.SaveUser(cmd.Context(), u.Name, &user); err != nil {
				return err
			}
			saved++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read users: %w", err)
		}

		fmt.Printf("saved %d users\n", saved)
		return nil
	},
}

func init() {
	importUsersCmd.Flags().StringVarP(&importUsersFile, "file", "f", "", "read users from a file instead of stdin")
	rootCmd.AddCommand(importUsersCmd)
}
