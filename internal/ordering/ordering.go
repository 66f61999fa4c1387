// Package ordering defines the canonical total order over members, types and
// type references.
package ordering

import (
	"cmp"
	"slices"
	"strings"

	sg "apidump/internal/symbolgraph"
)

// kindRank orders declaration kinds: constants first, nested types last.
func kindRank(m sg.Member) int {
	switch v := m.(type) {
	case *sg.Field:
		if v.Const {
			return 0
		}
		return 1
	case *sg.Property:
		if v.Indexer {
			return 4
		}
		return 5
	case *sg.Event:
		return 6
	case *sg.Method:
		switch v.Kind {
		case sg.Constructor:
			return 2
		case sg.Destructor:
			return 3
		case sg.Ordinary:
			return 7
		case sg.ExplicitInterfaceImplementation:
			return 8
		case sg.UserDefinedOperator:
			return 9
		case sg.Conversion:
			return 10
		default:
			return 11
		}
	case *sg.NestedType:
		return 12
	}
	return 13
}

func boolKey(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isEnumValue(m sg.Member) (*sg.Field, bool) {
	f, ok := m.(*sg.Field)
	if !ok || !f.Const || f.Constant == nil || f.Containing == nil || f.Containing.Kind != sg.Enum {
		return nil, false
	}
	return f, true
}

// CompareMembers is a three-way comparison over members. A nil member sorts
// before everything else. Distinct members never compare equal.
func CompareMembers(x, y sg.Member) int {
	if x == nil {
		if y == nil {
			return 0
		}
		return -1
	}
	if y == nil {
		return 1
	}
	xi, yi := x.Info(), y.Info()
	if xf, ok := isEnumValue(x); ok {
		if yf, ok := isEnumValue(y); ok {
			if c := cmp.Compare(xf.Constant.Bits(), yf.Constant.Bits()); c != 0 {
				return c
			}
			return strings.Compare(xi.Name, yi.Name)
		}
	}
	if c := cmp.Compare(kindRank(x), kindRank(y)); c != 0 {
		return c
	}
	_, xType := x.(*sg.NestedType)
	if !xType {
		if c := cmp.Compare(boolKey(xi.Static), boolKey(yi.Static)); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(boolKey(xi.Unnamed), boolKey(yi.Unnamed)); c != 0 {
		return c
	}
	if c := cmp.Compare(yi.Access, xi.Access); c != 0 {
		return c
	}
	if c := strings.Compare(xi.Name, yi.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(sg.Arity(x), sg.Arity(y)); c != 0 {
		return c
	}
	if c := compareParamLists(sg.Params(x), sg.Params(y)); c != 0 {
		return c
	}
	return compareTail(x, y)
}

func compareParamLists(xp, yp []*sg.Parameter) int {
	if c := cmp.Compare(len(xp), len(yp)); c != 0 {
		return c
	}
	for i := range xp {
		if c := cmp.Compare(xp[i].RefKind, yp[i].RefKind); c != 0 {
			return c
		}
		if c := CompareTypeRefs(xp[i].Type, yp[i].Type); c != 0 {
			return c
		}
	}
	return 0
}

// compareTail separates members that agree on every declared key, such as
// conversion operators differing only by return type.
func compareTail(x, y sg.Member) int {
	switch xv := x.(type) {
	case *sg.Method:
		yv := y.(*sg.Method)
		if c := cmp.Compare(xv.Return.RefKind, yv.Return.RefKind); c != 0 {
			return c
		}
		if c := CompareTypeRefs(xv.Return.Type, yv.Return.Type); c != 0 {
			return c
		}
		return compareImpls(xv.ExplicitImpls, yv.ExplicitImpls)
	case *sg.Property:
		yv := y.(*sg.Property)
		if c := CompareTypeRefs(xv.Type, yv.Type); c != 0 {
			return c
		}
		return compareImpls(xv.ExplicitImpls, yv.ExplicitImpls)
	case *sg.Event:
		return compareImpls(xv.ExplicitImpls, y.(*sg.Event).ExplicitImpls)
	case *sg.NestedType:
		return CompareTypeRefs(sg.SelfRef(xv.Type), sg.SelfRef(y.(*sg.NestedType).Type))
	}
	return 0
}

func compareImpls(x, y []sg.ExplicitImpl) int {
	if c := cmp.Compare(len(x), len(y)); c != 0 {
		return c
	}
	for i := range x {
		if c := CompareTypeRefs(x[i].Interface, y[i].Interface); c != 0 {
			return c
		}
		if c := strings.Compare(x[i].Name, y[i].Name); c != 0 {
			return c
		}
	}
	return 0
}

// CompareTypes orders type declarations as members of a namespace or type.
func CompareTypes(x, y *sg.Type) int {
	return CompareMembers(&sg.NestedType{Type: x}, &sg.NestedType{Type: y})
}

// SortMembers returns a sorted copy of members.
func SortMembers(members []sg.Member) []sg.Member {
	out := slices.Clone(members)
	slices.SortStableFunc(out, CompareMembers)
	return out
}

// SortTypes returns a sorted copy of types.
func SortTypes(types []*sg.Type) []*sg.Type {
	out := slices.Clone(types)
	slices.SortStableFunc(out, CompareTypes)
	return out
}

// SortTypeRefs returns a sorted copy of refs.
func SortTypeRefs(refs []sg.TypeRef) []sg.TypeRef {
	out := slices.Clone(refs)
	slices.SortStableFunc(out, CompareTypeRefs)
	return out
}

// SortNamespaces orders child namespaces by name.
func SortNamespaces(nss []*sg.Namespace) []*sg.Namespace {
	out := slices.Clone(nss)
	slices.SortStableFunc(out, func(a, b *sg.Namespace) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
