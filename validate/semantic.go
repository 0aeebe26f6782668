package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/resolver"
)

// ValidationResult holds all validation errors.
type ValidationResult struct {
	Errors []*model.Error
}

func (r *ValidationResult) addError(kind error, path, name, format string, args ...any) {
	r.Errors = append(r.Errors, model.Errorf(kind, path, name, format, args...))
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Err returns nil for a valid result, otherwise all errors joined so that
// errors.Is matches every kind that occurred.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Has reports whether any error of the given kind was recorded.
func (r *ValidationResult) Has(kind error) bool {
	for _, e := range r.Errors {
		if errors.Is(e, kind) {
			return true
		}
	}
	return false
}

// owner records which class or operation claimed a generated identifier.
type owner struct {
	path string
	what string
}

type identifiers map[string]owner

// claim registers id for path, reporting a collision with the first claimant.
func (ids identifiers) claim(result *ValidationResult, id, path, what string) {
	if prev, ok := ids[id]; ok {
		result.addError(model.ErrNameCollision, path, id,
			"%s generates %q, which is already generated by %s (%s)", what, id, prev.what, prev.path)
		return
	}
	ids[id] = owner{path: path, what: what}
}

// Validate performs semantic validation on a loaded API description. It
// collects every problem instead of stopping at the first one.
func Validate(api *model.API, naming model.Naming) *ValidationResult {
	result := &ValidationResult{}

	classPaths := map[string]string{}
	typeNames := identifiers{}
	prefixes := identifiers{}
	functions := identifiers{}

	for _, wk := range api.WellKnown.All() {
		if wk.Kind == model.KindPrimitive {
			continue
		}
		typeNames.claim(result, naming.RawType(wk.Name), wk.Module+"."+wk.Name, wk.Kind.String()+" "+wk.Name)
	}

	for _, mod := range api.Modules {
		for _, class := range mod.Classes {
			classPath := mod.Name + "." + class.Name
			if prev, ok := classPaths[class.Name]; ok {
				result.addError(model.ErrNameCollision, classPath, class.Name,
					"class %q is already defined at %s", class.Name, prev)
				continue
			}
			classPaths[class.Name] = classPath

			if wk, ok := api.WellKnown.Lookup(class.Name); ok {
				result.addError(model.ErrNameCollision, classPath, class.Name,
					"class %q shadows the well-known %s type", class.Name, wk.Kind)
			}

			typeNames.claim(result, naming.OpaqueType(class.Name), classPath, "class "+class.Name)
			prefixes.claim(result, naming.FunctionPrefix(class.Name), classPath, "class "+class.Name)
			for _, helper := range model.ReservedOperations {
				functions.claim(result, naming.Function(class.Name, helper), classPath, "helper "+class.Name+"::"+helper)
			}

			validateClass(result, api, naming, class, functions)
		}
	}

	validateCallbacks(result, api)

	// The resolver reports the first unresolved type only; run it last so the
	// per-argument checks above have already named every missing type.
	if result.IsValid() {
		if _, err := resolver.ResolveAll(api); err != nil {
			var de *model.Error
			if errors.As(err, &de) {
				result.Errors = append(result.Errors, de)
			} else {
				result.addError(model.ErrUnresolvedType, "", "", "%v", err)
			}
		}
	}

	return result
}

func validateClass(result *ValidationResult, api *model.API, naming model.Naming, class *model.Class, functions identifiers) {
	opNames := map[string]string{}
	selfName := model.ToSnake(class.Name)
	receiverChecked := false

	for _, op := range class.Operations() {
		path := class.Path(op)

		for _, reserved := range model.ReservedOperations {
			if op.Name == reserved {
				result.addError(model.ErrNameCollision, path, op.Name,
					"%s %q uses a reserved helper name", op.Kind, op.Name)
			}
		}
		for _, helper := range model.WrapperHelpers {
			if op.Name == helper {
				result.addError(model.ErrNameCollision, path, op.Name,
					"%s %q clashes with the %s method of the owning wrapper", op.Kind, op.Name, helper)
			}
		}
		if prev, ok := opNames[op.Name]; ok {
			result.addError(model.ErrNameCollision, path, op.Name,
				"%s %q duplicates the operation at %s", op.Kind, op.Name, prev)
		} else {
			opNames[op.Name] = path
			functions.claim(result, naming.Function(class.Name, op.Name), path, fmt.Sprintf("%s %s::%s", op.Kind, class.Name, op.Name))
		}

		if op.Self != nil && !receiverChecked {
			checkIdentifier(result, path+".args.self", selfName, "receiver name")
			receiverChecked = true
		}
		for _, arg := range op.Args {
			argPath := path + ".args." + arg.Name
			checkIdentifier(result, argPath, arg.Name, "argument name")
			if op.Self != nil && arg.Name == selfName {
				result.addError(model.ErrNameCollision, argPath, arg.Name,
					"argument %q has the same name as the receiver of %s", arg.Name, class.Name)
			}
			validateTypeRef(result, api, argPath, arg.Type, false)
		}
		if op.Returns != nil {
			validateTypeRef(result, api, path+".returns", *op.Returns, true)
		}
	}
}

func validateTypeRef(result *ValidationResult, api *model.API, path string, t model.TypeRef, isReturn bool) {
	if wk, ok := api.WellKnown.Lookup(t.Name); ok {
		if t.Mode != model.ModeValue {
			result.addError(model.ErrMalformedDescription, path, t.Name,
				"%s type %q has a single raw shape and cannot be passed as %q", wk.Kind, t.Name, t.String())
		}
		if isReturn && wk.Kind == model.KindCallback {
			result.addError(model.ErrMalformedDescription, path, t.Name,
				"callback type %q cannot be returned", t.Name)
		}
		return
	}
	if len(api.OwnersOf(t.Name)) == 0 {
		result.addError(model.ErrUnresolvedType, path, t.Name,
			"type %q is not defined by any module", t.Name)
	}
}

// validateCallbacks checks the signatures of every callback an operation uses:
// the trampoline wraps each argument class and leaks the returned one, so all
// of them must be classes of the API.
func validateCallbacks(result *ValidationResult, api *model.API) {
	for _, cb := range api.UsedCallbacks() {
		path := cb.Module + "." + cb.Name
		for _, arg := range cb.Args {
			if api.ClassByName(arg) == nil {
				result.addError(model.ErrUnresolvedType, path, arg,
					"callback %q takes %q, which is not a class", cb.Name, arg)
			}
			checkIdentifier(result, path, model.ToSnake(arg), "trampoline parameter")
		}
		if cb.Returns == "" {
			continue
		}
		ret := api.ClassByName(cb.Returns)
		if ret == nil {
			result.addError(model.ErrUnresolvedType, path, cb.Returns,
				"callback %q returns %q, which is not a class", cb.Name, cb.Returns)
			continue
		}
		if cb.DefaultConstructor == "" {
			continue
		}
		var found *model.Operation
		for _, ctor := range ret.Constructors {
			if ctor.Name == cb.DefaultConstructor {
				found = ctor
			}
		}
		switch {
		case found == nil:
			result.addError(model.ErrUnresolvedType, path, cb.DefaultConstructor,
				"default constructor %q of callback %q is not a constructor of %s", cb.DefaultConstructor, cb.Name, ret.Name)
		case len(found.Args) != 0:
			result.addError(model.ErrMalformedDescription, path, cb.DefaultConstructor,
				"default constructor %s::%s must take no arguments", ret.Name, found.Name)
		}
	}
}
