package kinetics

import (
	"embed"
	"fmt"
	"os"
	"path"
	"slices"
	"sort"
	"strings"
)

//go:embed mechanisms/*.yaml
var builtinFS embed.FS

func builtinFile(name string) string {
	return path.Join("mechanisms", name+".yaml")
}

// BuiltinNames lists the mechanisms shipped with the binary.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("mechanisms")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func Builtin(name string) (*Mechanism, error) {
	data, err := builtinFS.ReadFile(builtinFile(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMechanism, name, BuiltinNames())
	}
	return ParseMechanism(data)
}

// Resolve accepts a built-in mechanism name or a path to a mechanism file.
func Resolve(ref string) (*Mechanism, error) {
	if slices.Contains(BuiltinNames(), ref) {
		return Builtin(ref)
	}
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		if _, err := os.Stat(ref); err == nil {
			return LoadMechanism(ref)
		}
	}
	return nil, fmt.Errorf("%w: %q is neither built in (%s) nor a mechanism file", ErrUnknownMechanism, ref, strings.Join(BuiltinNames(), ", "))
}
