// Package ownership decides, for every parameter and result of every
// operation, how it crosses the flat boundary and what the owning wrappers do
// with it. Emitters render from these plans and never look at modes directly.
package ownership

import (
	"fmt"

	"github.com/benn-herrera/xbind/model"
)

// Role is the position a type occupies in an operation signature.
type Role int

const (
	RoleSelf Role = iota
	RoleArg
	RoleResult
)

func (r Role) String() string {
	switch r {
	case RoleSelf:
		return "self"
	case RoleArg:
		return "arg"
	case RoleResult:
		return "result"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Kind classifies the type being passed.
type Kind int

const (
	KindClass Kind = iota
	KindCallback
	KindPassthrough
	KindPrimitive
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindCallback:
		return "callback"
	case KindPassthrough:
		return "passthrough"
	case KindPrimitive:
		return "primitive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Shape is the flat-ABI spelling of a parameter or result.
type Shape int

const (
	ShapeHandle       Shape = iota // opaque handle by value
	ShapeHandleRef                 // shared reference to a handle
	ShapeHandleRefMut              // exclusive reference to a handle
	ShapeFnPtr                     // raw callback function pointer
	ShapeRaw                       // primitive or passthrough, unchanged
)

func (s Shape) String() string {
	switch s {
	case ShapeHandle:
		return "handle"
	case ShapeHandleRef:
		return "&handle"
	case ShapeHandleRefMut:
		return "&mut handle"
	case ShapeFnPtr:
		return "fnptr"
	case ShapeRaw:
		return "raw"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Call is what an owning wrapper does with a value at the call site.
type Call int

const (
	CallLeak        Call = iota // disarm the destructor and pass the handle
	CallAddr                    // pass the address of the wrapper's handle
	CallAddrMut                 // pass the mutable address of the wrapper's handle
	CallInstall                 // store the callback in its cell, pass the trampoline
	CallPassthrough             // pass the value unchanged
	CallWrap                    // wrap a returned handle into an armed owning value
)

func (c Call) String() string {
	switch c {
	case CallLeak:
		return "leak"
	case CallAddr:
		return "addr"
	case CallAddrMut:
		return "addr_mut"
	case CallInstall:
		return "install"
	case CallPassthrough:
		return "passthrough"
	case CallWrap:
		return "wrap"
	default:
		return fmt.Sprintf("Call(%d)", int(c))
	}
}

// Translation is one row of the ownership table.
type Translation struct {
	Shape    Shape
	Call     Call
	Consumes bool // the caller's wrapper no longer owns the resource afterwards
}

// Translate is the ownership table shared by every emitter.
func Translate(role Role, mode model.Mode, kind Kind) (Translation, error) {
	if role == RoleResult {
		if mode != model.ModeValue {
			return Translation{}, fmt.Errorf("%w: results cannot be borrowed", model.ErrMalformedDescription)
		}
		switch kind {
		case KindClass:
			return Translation{Shape: ShapeHandle, Call: CallWrap}, nil
		case KindPassthrough, KindPrimitive:
			return Translation{Shape: ShapeRaw, Call: CallPassthrough}, nil
		default:
			return Translation{}, fmt.Errorf("%w: a %s cannot be returned", model.ErrMalformedDescription, kind)
		}
	}

	switch kind {
	case KindClass:
		switch mode {
		case model.ModeValue:
			return Translation{Shape: ShapeHandle, Call: CallLeak, Consumes: true}, nil
		case model.ModeRef:
			return Translation{Shape: ShapeHandleRef, Call: CallAddr}, nil
		case model.ModeRefMut:
			return Translation{Shape: ShapeHandleRefMut, Call: CallAddrMut}, nil
		}
		return Translation{}, fmt.Errorf("%w %v", model.ErrWrongSelfMode, mode)
	case KindCallback, KindPassthrough, KindPrimitive:
		if role == RoleSelf {
			return Translation{}, fmt.Errorf("%w: a %s cannot be a receiver", model.ErrMalformedDescription, kind)
		}
		if mode != model.ModeValue {
			return Translation{}, fmt.Errorf("%w: a %s has a single raw shape", model.ErrMalformedDescription, kind)
		}
		if kind == KindCallback {
			return Translation{Shape: ShapeFnPtr, Call: CallInstall}, nil
		}
		return Translation{Shape: ShapeRaw, Call: CallPassthrough}, nil
	}
	return Translation{}, fmt.Errorf("unknown kind %v", kind)
}

// Param is one planned parameter or result.
type Param struct {
	Name string // parameter name; the receiver is named after its class
	Type string // class or well-known type name
	Role Role
	Mode model.Mode
	Kind Kind
	Translation
}

// Plan is the complete ownership plan of one operation.
type Plan struct {
	Class     *model.Class
	Op        *model.Operation
	Params    []Param // receiver first, then arguments in description order
	Result    *Param  // nil when the operation returns nothing; constructors return their class
	Callbacks []*model.WellKnown
}

// Self returns the receiver parameter, if any.
func (p *Plan) Self() *Param {
	if len(p.Params) > 0 && p.Params[0].Role == RoleSelf {
		return &p.Params[0]
	}
	return nil
}

// Args returns the non-receiver parameters.
func (p *Plan) Args() []Param {
	if p.Self() != nil {
		return p.Params[1:]
	}
	return p.Params
}

// Consumed returns the names of parameters whose ownership moves into the call.
func (p *Plan) Consumed() []string {
	var out []string
	for _, prm := range p.Params {
		if prm.Consumes {
			out = append(out, prm.Name)
		}
	}
	return out
}

// KindOf classifies a type name against the API.
func KindOf(api *model.API, name string) (Kind, *model.WellKnown, error) {
	if wk, ok := api.WellKnown.Lookup(name); ok {
		switch wk.Kind {
		case model.KindCallback:
			return KindCallback, wk, nil
		case model.KindPassthrough:
			return KindPassthrough, wk, nil
		default:
			return KindPrimitive, wk, nil
		}
	}
	if api.ClassByName(name) != nil {
		return KindClass, nil, nil
	}
	return 0, nil, model.Errorf(model.ErrUnresolvedType, "", name, "type %q is not defined by any module", name)
}

// SelfName is the name of the receiver parameter of a class's functions.
func SelfName(class string) string {
	return model.ToSnake(class)
}

// PlanOperation builds the ownership plan of op. Constructors always produce
// an owning value of their class.
func PlanOperation(api *model.API, class *model.Class, op *model.Operation) (*Plan, error) {
	path := class.Path(op)
	plan := &Plan{Class: class, Op: op}

	if op.Self != nil {
		tr, err := Translate(RoleSelf, *op.Self, KindClass)
		if err != nil {
			return nil, model.Errorf(model.ErrWrongSelfMode, path+".args.self", op.Name, "%v", err)
		}
		plan.Params = append(plan.Params, Param{
			Name: SelfName(class.Name), Type: class.Name, Role: RoleSelf, Mode: *op.Self, Kind: KindClass, Translation: tr,
		})
	}

	seen := map[string]bool{}
	for _, arg := range op.Args {
		argPath := path + ".args." + arg.Name
		kind, wk, err := KindOf(api, arg.Type.Name)
		if err != nil {
			return nil, withPath(err, argPath)
		}
		tr, err := Translate(RoleArg, arg.Type.Mode, kind)
		if err != nil {
			return nil, model.Errorf(model.ErrMalformedDescription, argPath, arg.Type.Name, "%v", err)
		}
		plan.Params = append(plan.Params, Param{
			Name: arg.Name, Type: arg.Type.Name, Role: RoleArg, Mode: arg.Type.Mode, Kind: kind, Translation: tr,
		})
		if kind == KindCallback && !seen[wk.Name] {
			seen[wk.Name] = true
			plan.Callbacks = append(plan.Callbacks, wk)
		}
	}

	var ret *model.TypeRef
	switch {
	case op.Kind == model.OpConstructor:
		ret = &model.TypeRef{Name: class.Name}
	case op.Returns != nil:
		ret = op.Returns
	}
	if ret != nil {
		kind, _, err := KindOf(api, ret.Name)
		if err != nil {
			return nil, withPath(err, path+".returns")
		}
		tr, err := Translate(RoleResult, ret.Mode, kind)
		if err != nil {
			return nil, model.Errorf(model.ErrMalformedDescription, path+".returns", ret.Name, "%v", err)
		}
		plan.Result = &Param{Type: ret.Name, Role: RoleResult, Mode: ret.Mode, Kind: kind, Translation: tr}
	}
	return plan, nil
}

// PlanClass plans every operation of a class: constructors, then functions.
func PlanClass(api *model.API, class *model.Class) ([]*Plan, error) {
	var plans []*Plan
	for _, op := range class.Operations() {
		p, err := PlanOperation(api, class, op)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func withPath(err error, path string) error {
	if de, ok := err.(*model.Error); ok && de.Path == "" {
		de.Path = path
	}
	return err
}
