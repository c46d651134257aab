package resolver

import (
	"git.home.luguber.info/inful/classdoc/internal/logfields"
	"git.home.luguber.info/inful/classdoc/internal/model"
)

// InheritedMethod is a method visible on a class through one of its ancestors.
type InheritedMethod struct {
	Method *model.MethodNode
	Class  *model.ClassNode
}

// InheritedConstant is a constant visible on a class through one of its ancestors.
type InheritedConstant struct {
	Variable *model.VariableNode
	Class    *model.ClassNode
}

type methodKey struct {
	name string
	kind model.MethodType
}

// Ancestors returns the superclass chain of clazz, nearest first. The walk
// stops at the first unresolved parent or at the first class already visited,
// so malformed cyclic hierarchies terminate.
func (r *Resolver) Ancestors(clazz *model.ClassNode) []*model.ClassNode {
	visited := map[string]struct{}{clazz.QualifiedName: {}}
	var chain []*model.ClassNode
	current := clazz
	for {
		parent, ok := r.table.Parent(current)
		if !ok {
			return chain
		}
		if _, seen := visited[parent.QualifiedName]; seen {
			r.logger.Warn("Cyclic inheritance chain truncated",
				logfields.Class(clazz.QualifiedName),
				logfields.Parent(parent.QualifiedName))
			return chain
		}
		visited[parent.QualifiedName] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}
}

// GetInheritedMethods returns the methods clazz inherits, nearest ancestor
// first and in declaration order within each ancestor. A method is identified
// by (name, type); once clazz or a nearer ancestor defines that identity,
// farther definitions are hidden.
func (r *Resolver) GetInheritedMethods(clazz *model.ClassNode) []InheritedMethod {
	r.mu.Lock()
	cached, ok := r.methodCache[clazz.QualifiedName]
	r.mu.Unlock()
	if !ok {
		cached = r.collectMethods(clazz)
		r.mu.Lock()
		r.methodCache[clazz.QualifiedName] = cached
		r.mu.Unlock()
	}
	out := make([]InheritedMethod, len(cached))
	copy(out, cached)
	return out
}

func (r *Resolver) collectMethods(clazz *model.ClassNode) []InheritedMethod {
	seen := make(map[methodKey]struct{}, len(clazz.Methods))
	for _, m := range clazz.Methods {
		seen[methodKey{m.Name, m.Type}] = struct{}{}
	}
	var out []InheritedMethod
	for _, ancestor := range r.Ancestors(clazz) {
		for _, m := range ancestor.Methods {
			key := methodKey{m.Name, m.Type}
			if _, shadowed := seen[key]; shadowed {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, InheritedMethod{Method: m, Class: ancestor})
		}
	}
	return out
}

// GetInheritedConstants applies the same walk and shadowing as
// GetInheritedMethods to constants, identified by name.
func (r *Resolver) GetInheritedConstants(clazz *model.ClassNode) []InheritedConstant {
	r.mu.Lock()
	cached, ok := r.constantCache[clazz.QualifiedName]
	r.mu.Unlock()
	if !ok {
		cached = r.collectConstants(clazz)
		r.mu.Lock()
		r.constantCache[clazz.QualifiedName] = cached
		r.mu.Unlock()
	}
	out := make([]InheritedConstant, len(cached))
	copy(out, cached)
	return out
}

func (r *Resolver) collectConstants(clazz *model.ClassNode) []InheritedConstant {
	seen := make(map[string]struct{})
	for _, v := range clazz.Constants() {
		seen[v.Name] = struct{}{}
	}
	var out []InheritedConstant
	for _, ancestor := range r.Ancestors(clazz) {
		for _, v := range ancestor.Constants() {
			if _, shadowed := seen[v.Name]; shadowed {
				continue
			}
			seen[v.Name] = struct{}{}
			out = append(out, InheritedConstant{Variable: v, Class: ancestor})
		}
	}
	return out
}

// findInstanceMember looks for an instance method named name on clazz and its
// ancestors, then a class method, then a constant.
func (r *Resolver) findInstanceMember(clazz *model.ClassNode, name string) (owner *model.ClassNode, anchor string, ok bool) {
	chain := append([]*model.ClassNode{clazz}, r.Ancestors(clazz)...)
	for _, c := range chain {
		if m := c.FindMethod(name, model.MethodTypeInstance); m != nil {
			return c, m.Anchor(), true
		}
	}
	return r.findStaticMember(clazz, name)
}

// findStaticMember looks for a class method named name on clazz and its
// ancestors, then a constant.
func (r *Resolver) findStaticMember(clazz *model.ClassNode, name string) (owner *model.ClassNode, anchor string, ok bool) {
	chain := append([]*model.ClassNode{clazz}, r.Ancestors(clazz)...)
	for _, c := range chain {
		if m := c.FindMethod(name, model.MethodTypeClass); m != nil {
			return c, m.Anchor(), true
		}
	}
	for _, c := range chain {
		if v := c.FindConstant(name); v != nil {
			return c, v.Anchor(), true
		}
	}
	return nil, "", false
}
