package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/liketype/internal/descriptor"
	"github.com/funvibe/liketype/pkg/liketype"
)

func (a *app) subtypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subtype INSTANCE TEMPLATE",
		Short: "Check whether INSTANCE is a structural subtype of TEMPLATE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.parse(args[0])
			if err != nil {
				return err
			}
			tmpl, err := a.parse(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.paint.verdict(a.checker.IsSubtypeTypes(inst, tmpl)))
			return nil
		},
	}
}

func (a *app) instanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instance VALUE TARGET",
		Short: "Check whether a YAML or JSON value matches TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(args[0])
			if err != nil {
				return err
			}
			target, err := a.parse(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.paint.verdict(a.checker.IsInstance(value, target)))
			return nil
		},
	}
}

func (a *app) inferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer VALUE",
		Short: "Print the inferred type of a YAML or JSON value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(args[0])
			if err != nil {
				return err
			}
			n := a.checker.Infer(value, a.v.GetInt("max-depth"), a.v.GetInt("max-sample"))
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func (a *app) unifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unify TEMPLATE INSTANCE",
		Short: "Bind the type variables of TEMPLATE against INSTANCE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.parse(args[0])
			if err != nil {
				return err
			}
			inst, err := a.parse(args[1])
			if err != nil {
				return err
			}
			s, err := a.checker.UnifyTypes(tmpl, inst)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			names := maps.Keys(s)
			slices.Sort(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s = %s\n", a.paint.render(titleStyle, name), s[name])
			}
			return nil
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe TYPE",
		Short: "Show the descriptor of TYPE and its shallower approximations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.parse(args[0])
			if err != nil {
				return err
			}
			n, meta := a.checker.Reduce(t)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s %s\n", a.paint.render(subtitleStyle, "descriptor:"), n)
			fmt.Fprintf(out, "%s %d\n", a.paint.render(subtitleStyle, "depth:"), n.Depth())
			if vars := n.Vars(); len(vars) > 0 {
				names := make([]string, len(vars))
				for i, v := range vars {
					names[i] = v.Name
				}
				fmt.Fprintf(out, "%s %s\n", a.paint.render(subtitleStyle, "variables:"), strings.Join(names, ", "))
			}
			for _, ann := range meta.Annotations {
				fmt.Fprintf(out, "%s %s\n", a.paint.render(subtitleStyle, "constraint:"), ann)
			}
			for _, lit := range meta.Literals {
				fmt.Fprintf(out, "%s %v\n", a.paint.render(subtitleStyle, "literals:"), lit)
			}
			for _, approx := range descriptor.Approximations(n) {
				fmt.Fprintf(out, "%s %s\n", a.paint.render(subtitleStyle, "approximation:"), approx)
			}
			return nil
		},
	}
}

func (a *app) classesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the registered classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := a.checker.Registry()
			byKind := make(map[string][]string)
			for _, name := range reg.ClassNames() {
				cls, _ := reg.Class(name)
				k := cls.Kind.String()
				if kind != "" && k != kind {
					continue
				}
				byKind[k] = append(byKind[k], describeClass(cls))
			}

			out := cmd.OutOrStdout()
			kinds := maps.Keys(byKind)
			slices.Sort(kinds)
			for _, k := range kinds {
				fmt.Fprintln(out, a.paint.render(titleStyle, k))
				for _, line := range byKind[k] {
					fmt.Fprintln(out, "  "+line)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list classes of this kind (class, protocol, record)")
	return cmd
}

// describeClass renders "Name[Params] <: Base, Base".
func describeClass(cls *liketype.Class) string {
	var sb strings.Builder
	sb.WriteString(cls.SelfType().String())
	if len(cls.Bases) > 0 {
		bases := make([]string, len(cls.Bases))
		for i, b := range cls.Bases {
			bases[i] = b.String()
		}
		sb.WriteString(" <: ")
		sb.WriteString(strings.Join(bases, ", "))
	}
	return sb.String()
}

// parseValue reads a command-line value as YAML, which covers JSON.
// Sequences and mappings decode to []any and map[string]any.
func parseValue(src string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(src), &v); err != nil {
		return nil, fmt.Errorf("value %q: %w", src, err)
	}
	return v, nil
}
