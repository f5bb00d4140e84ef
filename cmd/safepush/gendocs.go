package safepush

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safepush/safepush/internal/rules"
)

// gendocs regenerates the rules section in README.md between the markers
// <!-- BEGIN:RULES --> and <!-- END:RULES -->.
func init() {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Regenerate the README rules section",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := "README.md"
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			start := []byte("<!-- BEGIN:RULES -->")
			end := []byte("<!-- END:RULES -->")
			i := bytes.Index(b, start)
			j := bytes.Index(b, end)
			if i < 0 || j < 0 || j <= i {
				return fmt.Errorf("markers not found in README.md")
			}

			groups := map[rules.Category][]rules.Rule{}
			for _, r := range rules.Builtin().Rules() {
				groups[r.Category] = append(groups[r.Category], r)
			}
			titles := []struct {
				cat   rules.Category
				title string
			}{
				{rules.CatSecretPattern, "Secret patterns"},
				{rules.CatUnsafeConstruct, "Unsafe constructs"},
				{rules.CatEntropyThreshold, "Entropy"},
				{rules.CatCustomRegex, "Custom"},
			}
			var out strings.Builder
			out.WriteString("\nBuilt-in rules by category (run `safepush rules` for the effective, merged set):\n\n")
			for _, t := range titles {
				rs := groups[t.cat]
				if len(rs) == 0 {
					continue
				}
				out.WriteString("- " + t.title + ":\n")
				for _, r := range rs {
					out.WriteString(fmt.Sprintf("  - `%s` (%s): %s\n", r.ID, r.Severity, r.Description))
				}
			}

			var nb bytes.Buffer
			nb.Write(b[:i])
			nb.Write(start)
			nb.WriteString("\n")
			nb.WriteString(out.String())
			nb.Write(end)
			nb.Write(b[j+len(end):])
			return os.WriteFile(path, nb.Bytes(), 0644)
		},
	}
	rootCmd.AddCommand(cmd)
}
