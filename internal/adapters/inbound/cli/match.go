package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/tui"
	"github.com/lenra-io/lenra-cli/internal/domain/match"
)

func newMatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "match <actual> <expected>",
		Short: "Compare two JSON or YAML documents",
		Long:  "Deep-compare two JSON or YAML files and list every type, value, missing or additional entry. Exits non-zero when they differ.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			expected, err := loadDocument(args[1])
			if err != nil {
				return err
			}

			mismatches := match.Compare(actual, expected)
			if jsonOutput {
				if mismatches == nil {
					mismatches = []match.Mismatch{}
				}
				if err := renderJSON(cmd, mismatches); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderMismatches(mismatches))
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("%s does not match %s: %d mismatch(es)", args[0], args[1], len(mismatches))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// loadDocument decodes a .yaml/.yml file as YAML and anything else as JSON,
// keeping JSON numbers exact. YAML mapping keys are stringified.
func loadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		v = match.StringKeys(v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return v, nil
}
