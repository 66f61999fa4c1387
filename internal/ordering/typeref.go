package ordering

import (
	"cmp"
	"strings"

	sg "apidump/internal/symbolgraph"
)

func refRank(r sg.TypeRef) int {
	switch r.(type) {
	case *sg.NamedType:
		return 0
	case *sg.ArrayType:
		return 1
	case *sg.PointerType:
		return 2
	case *sg.FunctionPointerType:
		return 3
	case *sg.TypeParameterType:
		return 4
	case *sg.DynamicType:
		return 5
	case *sg.ErrorType:
		return 6
	}
	return 7
}

// CompareTypeRefs orders type references structurally: reference kind,
// declaration kind, name, arity, container, then type arguments, element
// types or signatures recursively. Nullability is ignored.
func CompareTypeRefs(x, y sg.TypeRef) int {
	if x == nil || y == nil {
		return cmp.Compare(boolKey(x != nil), boolKey(y != nil))
	}
	if c := cmp.Compare(refRank(x), refRank(y)); c != 0 {
		return c
	}
	switch xv := x.(type) {
	case *sg.NamedType:
		return compareNamed(xv, y.(*sg.NamedType))
	case *sg.ArrayType:
		yv := y.(*sg.ArrayType)
		if c := cmp.Compare(xv.Rank, yv.Rank); c != 0 {
			return c
		}
		if c := cmp.Compare(boolKey(!xv.Vector), boolKey(!yv.Vector)); c != 0 {
			return c
		}
		return CompareTypeRefs(xv.Elem, yv.Elem)
	case *sg.PointerType:
		return CompareTypeRefs(xv.Elem, y.(*sg.PointerType).Elem)
	case *sg.FunctionPointerType:
		yv := y.(*sg.FunctionPointerType)
		if c := cmp.Compare(xv.Convention, yv.Convention); c != 0 {
			return c
		}
		if c := cmp.Compare(len(xv.UnmanagedConventions), len(yv.UnmanagedConventions)); c != 0 {
			return c
		}
		for i := range xv.UnmanagedConventions {
			if c := strings.Compare(xv.UnmanagedConventions[i], yv.UnmanagedConventions[i]); c != 0 {
				return c
			}
		}
		if c := compareParamLists(xv.Params, yv.Params); c != 0 {
			return c
		}
		if c := cmp.Compare(xv.Return.RefKind, yv.Return.RefKind); c != 0 {
			return c
		}
		return CompareTypeRefs(xv.Return.Type, yv.Return.Type)
	case *sg.TypeParameterType:
		return strings.Compare(xv.Name, y.(*sg.TypeParameterType).Name)
	case *sg.ErrorType:
		return strings.Compare(xv.Name, y.(*sg.ErrorType).Name)
	}
	return 0
}

func compareNamed(x, y *sg.NamedType) int {
	if c := cmp.Compare(x.Kind(), y.Kind()); c != 0 {
		return c
	}
	if c := cmp.Compare(boolKey(x.Native), boolKey(y.Native)); c != 0 {
		return c
	}
	if c := cmp.Compare(boolKey(x.IsTuple()), boolKey(y.IsTuple())); c != 0 {
		return c
	}
	if x.IsTuple() {
		if c := cmp.Compare(len(x.Tuple), len(y.Tuple)); c != 0 {
			return c
		}
		for i := range x.Tuple {
			if c := CompareTypeRefs(x.Tuple[i].Type, y.Tuple[i].Type); c != 0 {
				return c
			}
		}
		return 0
	}
	if c := strings.Compare(x.TypeName(), y.TypeName()); c != 0 {
		return c
	}
	if c := cmp.Compare(len(x.Args), len(y.Args)); c != 0 {
		return c
	}
	if c := strings.Compare(x.ContainerPath(), y.ContainerPath()); c != 0 {
		return c
	}
	for i := range x.Args {
		if c := CompareTypeRefs(x.Args[i].Type, y.Args[i].Type); c != 0 {
			return c
		}
	}
	return 0
}
