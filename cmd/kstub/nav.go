package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kstub/internal/index"
	"kstub/internal/names"
	"kstub/internal/navigation"
	"kstub/internal/stubs"
)

var navCmd = &cobra.Command{
	Use:   "nav [flags] <store-dir> <fq-name>",
	Short: "Find the decompiled stub of a compiled declaration",
	Long: `Find the decompiled stub of a compiled declaration.
--container names the classes enclosing the declaration inside its package,
for example Outer.Inner; leave it empty for top-level declarations.`,
	Args: cobra.ExactArgs(2),
	RunE: navExecution,
}

func init() {
	navCmd.Flags().String("kind", "class", "declaration kind (class|object|enum-entry|function|property)")
	navCmd.Flags().String("container", "", "enclosing classes inside the package (Outer.Inner)")
	navCmd.Flags().Bool("class-object", false, "the declaration is a member of the container's class object")
	navCmd.Flags().StringSlice("params", nil, "function parameter names, to pick an overload")
}

func navExecution(cmd *cobra.Command, args []string) error {
	kindValue, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	container, err := cmd.Flags().GetString("container")
	if err != nil {
		return err
	}
	inClassObject, err := cmd.Flags().GetBool("class-object")
	if err != nil {
		return err
	}
	params, err := cmd.Flags().GetStringSlice("params")
	if err != nil {
		return err
	}

	kind, err := parseDeclKind(kindValue)
	if err != nil {
		return err
	}
	decl, err := declarationFromArgs(names.ParseFqName(args[1]), container, kind, inClassObject, params)
	if err != nil {
		return err
	}
	containerFq, ok := navigation.ContainerFqName(navigation.Unwrap(decl))
	if !ok {
		return fmt.Errorf("%s has no named compiled container", args[1])
	}

	store, err := openExistingStore(args[0])
	if err != nil {
		return err
	}
	res, err := index.Run(cmd.Context(), store, newBuilder(store), index.Options{Jobs: activeConfig.Index.Jobs})
	if err != nil {
		return err
	}
	stub := navigation.Find(res, decl)
	if stub == nil {
		if _, built := res.FileFor(containerFq); !built {
			return fmt.Errorf("%s: container %s not found in store", args[1], containerFq)
		}
		return fmt.Errorf("%s: no %s declaration in %s", args[1], kind, containerFq)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s in %s\n\n", kind, decl.FqName(), containerFq)
	return stubs.RenderDecl(out, stub)
}

func parseDeclKind(s string) (navigation.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "class":
		return navigation.KindClass, nil
	case "object":
		return navigation.KindObject, nil
	case "enum-entry", "enum_entry":
		return navigation.KindEnumEntry, nil
	case "function", "fun":
		return navigation.KindFunction, nil
	case "property", "val", "var":
		return navigation.KindProperty, nil
	default:
		return 0, fmt.Errorf("invalid --kind %q (expected class|object|enum-entry|function|property)", s)
	}
}

// declarationFromArgs splits fq into package, enclosing classes and name.
func declarationFromArgs(fq names.FqName, container string, kind navigation.Kind, inClassObject bool, params []string) (*navigation.Declaration, error) {
	segs := fq.Segments()
	var outer []names.Name
	if container != "" {
		outer = names.ParseFqName(container).Segments()
	}
	if len(segs) < len(outer)+1 {
		return nil, fmt.Errorf("%s is too short for container %q", fq, container)
	}
	pkgLen := len(segs) - len(outer) - 1
	for i, o := range outer {
		if segs[pkgLen+i] != o {
			return nil, fmt.Errorf("%s is not inside container %q", fq, container)
		}
	}
	if inClassObject && len(outer) == 0 {
		return nil, fmt.Errorf("--class-object needs --container")
	}

	pkg := names.RootFqName
	for _, s := range segs[:pkgLen] {
		pkg = pkg.Child(s)
	}
	d := navigation.Package(pkg)
	for _, o := range outer {
		d = d.Class(o)
	}
	if inClassObject {
		d = d.ClassObject()
	}
	name := segs[len(segs)-1]
	switch kind {
	case navigation.KindClass:
		return d.Class(name), nil
	case navigation.KindObject:
		return d.Object(name), nil
	case navigation.KindEnumEntry:
		return d.EnumEntry(name), nil
	case navigation.KindProperty:
		return d.Property(name), nil
	case navigation.KindFunction:
		var ps []names.Name
		for _, p := range params {
			ps = append(ps, names.Name(p))
		}
		return d.Function(name, ps...), nil
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}
