package files

import (
	"strings"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// Variant is one of the mutually exclusive site configurations that can be
// included from the main nginx config.
type Variant int

const (
	VariantMain Variant = iota
	VariantH5
	VariantToB
	VariantToBAdmin
)

// Variants lists every known variant in menu order.
var Variants = []Variant{VariantMain, VariantH5, VariantToB, VariantToBAdmin}

// Marker is the comment line after which the active include is inserted.
const Marker = "# 这里写对应include的文件"

// includeIndent matches the indentation of the server block around Marker.
const includeIndent = "        "

func (v Variant) String() string {
	switch v {
	case VariantMain:
		return "yx_main"
	case VariantH5:
		return "yx_h5"
	case VariantToB:
		return "yx_tob"
	case VariantToBAdmin:
		return "yx_tob_admin"
	}
	return "unknown"
}

// Include returns the include directive that activates v.
func (v Variant) Include() string {
	return "include ./yx_conf/" + v.String() + ".conf;"
}

// MarshalText lets variants render by name in json/yaml output.
func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// LookupVariant resolves a variant by name. Short names without the yx_
// prefix are accepted.
func LookupVariant(name string) (Variant, bool) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if n == "" {
		return 0, false
	}
	if !strings.HasPrefix(n, "yx_") {
		n = "yx_" + n
	}
	for _, v := range Variants {
		if v.String() == n {
			return v, true
		}
	}
	return 0, false
}

// VariantByName matches the canonical name exactly, e.g. "yx_h5".
func VariantByName(name string) (Variant, bool) {
	for _, v := range Variants {
		if v.String() == name {
			return v, true
		}
	}
	return 0, false
}

// ParseVariant is LookupVariant for callers that must reject unknown names.
func ParseVariant(name string) (Variant, error) {
	v, ok := LookupVariant(name)
	if !ok {
		return 0, exitcodes.InvalidArgsErrorf("invalid site %q (use %s)", name, strings.Join(VariantNames(), "|"))
	}
	return v, nil
}

// VariantNames returns the canonical names of all variants.
func VariantNames() []string {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = v.String()
	}
	return names
}

func isInclude(line string) bool {
	t := strings.TrimSpace(line)
	for _, v := range Variants {
		if t == v.Include() {
			return true
		}
	}
	return false
}
