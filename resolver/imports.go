package resolver

import (
	"fmt"
	"sort"

	"github.com/benn-herrera/xbind/model"
)

// Import lists the classes a module uses from one foreign module.
type Import struct {
	Module  string
	Classes []string // sorted, deduplicated
}

// ImportSet holds every foreign import of one module, sorted by module name.
type ImportSet struct {
	Module  string
	Imports []Import
}

// Classes returns the imported class names from the given foreign module.
func (s *ImportSet) Classes(module string) []string {
	for _, imp := range s.Imports {
		if imp.Module == module {
			return imp.Classes
		}
	}
	return nil
}

// Table maps module names to their resolved import sets.
type Table map[string]*ImportSet

// ResolveModule computes the import set of one module.
//
// Every argument and return type of every constructor and function is located:
// classes by searching all modules, callbacks and passthrough types at their
// host module, primitives nowhere. A callback host module is seeded with the
// classes its trampolines mention. Self-imports are dropped. The result does
// not depend on previous calls or on module order.
func ResolveModule(api *model.API, moduleName string) (*ImportSet, error) {
	acc := map[string]map[string]bool{}
	add := func(module, class string) {
		if module == moduleName {
			return
		}
		if acc[module] == nil {
			acc[module] = map[string]bool{}
		}
		acc[module][class] = true
	}

	for _, cb := range api.UsedCallbacks() {
		if cb.Module != moduleName {
			continue
		}
		path := "callbacks." + cb.Name
		for _, arg := range cb.Args {
			owner, err := locateClass(api, arg, path)
			if err != nil {
				return nil, err
			}
			add(owner, arg)
		}
		if cb.Returns != "" {
			owner, err := locateClass(api, cb.Returns, path)
			if err != nil {
				return nil, err
			}
			add(owner, cb.Returns)
		}
	}

	if mod := api.ModuleByName(moduleName); mod != nil {
		for _, class := range mod.Classes {
			for _, op := range class.Operations() {
				path := class.Path(op)
				for _, arg := range op.Args {
					owner, ok, err := locate(api, arg.Type.Name, path+".args."+arg.Name)
					if err != nil {
						return nil, err
					}
					if ok {
						add(owner, arg.Type.Name)
					}
				}
				if op.Returns != nil {
					owner, ok, err := locate(api, op.Returns.Name, path+".returns")
					if err != nil {
						return nil, err
					}
					if ok {
						add(owner, op.Returns.Name)
					}
				}
			}
		}
	}

	set := &ImportSet{Module: moduleName}
	for module, classes := range acc {
		imp := Import{Module: module}
		for c := range classes {
			imp.Classes = append(imp.Classes, c)
		}
		sort.Strings(imp.Classes)
		set.Imports = append(set.Imports, imp)
	}
	sort.Slice(set.Imports, func(i, j int) bool { return set.Imports[i].Module < set.Imports[j].Module })
	return set, nil
}

// ResolveAll resolves every module of the API, including host modules of used
// well-known types that the description does not declare.
func ResolveAll(api *model.API) (Table, error) {
	table := make(Table)
	for _, name := range api.ModuleNames() {
		set, err := ResolveModule(api, name)
		if err != nil {
			return nil, err
		}
		table[name] = set
	}
	return table, nil
}

// locate finds the module owning a type name. ok is false for primitives,
// which are never imported.
func locate(api *model.API, name, path string) (module string, ok bool, err error) {
	if wk, found := api.WellKnown.Lookup(name); found {
		if wk.Kind == model.KindPrimitive {
			return "", false, nil
		}
		return wk.Module, true, nil
	}
	owner, err := locateClass(api, name, path)
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}

func locateClass(api *model.API, name, path string) (string, error) {
	owners := api.OwnersOf(name)
	switch len(owners) {
	case 0:
		return "", model.Errorf(model.ErrUnresolvedType, path, name, "type %q is not defined by any module", name)
	case 1:
		return owners[0], nil
	default:
		return "", model.Errorf(model.ErrNameCollision, path, name,
			"type %q is defined by more than one module (%s)", name, joinQuoted(owners))
	}
}

func joinQuoted(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%q", n)
	}
	return s
}
