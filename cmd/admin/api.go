package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"srefhub/docs"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {}, "patch": {}, "head": {}, "options": {},
}

// apiSurface maps "METHOD /path" to the response codes it documents.
type apiSurface map[string]map[string]struct{}

func apiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Inspect the published API document",
	}

	var out string
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Write the embedded swagger document as a baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := docs.SwaggerInfo.ReadDoc()
			if out == "" || out == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), doc)
				return err
			}
			// #nosec G306: API documents are public
			return os.WriteFile(out, []byte(doc), 0o644)
		},
	}
	dump.Flags().StringVarP(&out, "out", "o", "-", "output file")

	check := &cobra.Command{
		Use:   "check <baseline>",
		Short: "Fail when the embedded document drops routes or responses from a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// #nosec G304: path comes from the operator
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			base, err := parseSurface(raw)
			if err != nil {
				return fmt.Errorf("baseline: %w", err)
			}
			current, err := parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
			if err != nil {
				return fmt.Errorf("embedded document: %w", err)
			}

			issues := breakingChanges(base, current)
			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "- %s\n", issue)
				}
				return fmt.Errorf("%d breaking change(s)", len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API compatible: %d operations checked\n", len(base))
			return nil
		},
	}

	cmd.AddCommand(dump, check)
	return cmd
}

// parseSurface reads a swagger document in YAML or JSON.
func parseSurface(raw []byte) (apiSurface, error) {
	var doc struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	surface := apiSurface{}
	for path, ops := range doc.Paths {
		for method, node := range ops {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, ok := httpMethods[method]; !ok {
				continue
			}
			var op struct {
				Responses map[string]any `yaml:"responses"`
			}
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			codes := make(map[string]struct{}, len(op.Responses))
			for code := range op.Responses {
				codes[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
			}
			surface[strings.ToUpper(method)+" "+path] = codes
		}
	}
	return surface, nil
}

func breakingChanges(base, current apiSurface) []string {
	var issues []string
	for op, codes := range base {
		have, ok := current[op]
		if !ok {
			issues = append(issues, "removed operation: "+op)
			continue
		}
		for code := range codes {
			if _, ok := have[code]; !ok {
				issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", op, strings.ToUpper(code)))
			}
		}
	}
	sort.Strings(issues)
	return issues
}
