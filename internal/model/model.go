// Package model defines the parsed class model consumed by the symbol table,
// the reference resolver and the page generator.
//
// Nodes are produced once by the upstream parser and are read-only afterwards.
// Members refer back to their owning class by qualified name only; the symbol
// table is the sole owner of every ClassNode.
package model

import "strings"

// MethodType distinguishes class (static) methods from instance methods.
type MethodType string

const (
	MethodTypeClass    MethodType = "class"
	MethodTypeInstance MethodType = "instance"
)

// Valid reports whether t is one of the known method types.
func (t MethodType) Valid() bool {
	return t == MethodTypeClass || t == MethodTypeInstance
}

// ConstructorName is the method name the method list leaves out.
const ConstructorName = "constructor"

// ClassNode is a documented class.
type ClassNode struct {
	Name                string          `yaml:"name" json:"name"`
	QualifiedName       string          `yaml:"qualified_name" json:"qualified_name"`
	NamespacePath       []string        `yaml:"namespace_path,omitempty" json:"namespace_path,omitempty"`
	ParentQualifiedName string          `yaml:"parent,omitempty" json:"parent,omitempty"`
	Mixins              []string        `yaml:"mixins,omitempty" json:"mixins,omitempty"`
	File                string          `yaml:"file,omitempty" json:"file,omitempty"`
	Doc                 *Doc            `yaml:"doc,omitempty" json:"doc,omitempty"`
	Methods             []*MethodNode   `yaml:"methods,omitempty" json:"methods,omitempty"`
	Variables           []*VariableNode `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Namespace returns the dotted namespace of the class ("" for the global namespace).
func (c *ClassNode) Namespace() string {
	return strings.Join(c.NamespacePath, ".")
}

// HasParent reports whether the class declares a superclass.
func (c *ClassNode) HasParent() bool {
	return c.ParentQualifiedName != ""
}

// MethodsOfType returns the class's own methods of the given type in declaration order.
func (c *ClassNode) MethodsOfType(t MethodType) []*MethodNode {
	var out []*MethodNode
	for _, m := range c.Methods {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Constants returns the class's own constant variables in declaration order.
func (c *ClassNode) Constants() []*VariableNode {
	var out []*VariableNode
	for _, v := range c.Variables {
		if v.IsConstant {
			out = append(out, v)
		}
	}
	return out
}

// FindMethod returns the class's own method with the given name and type.
func (c *ClassNode) FindMethod(name string, t MethodType) *MethodNode {
	for _, m := range c.Methods {
		if m.Name == name && m.Type == t {
			return m
		}
	}
	return nil
}

// FindConstant returns the class's own constant with the given name.
func (c *ClassNode) FindConstant(name string) *VariableNode {
	for _, v := range c.Variables {
		if v.IsConstant && v.Name == name {
			return v
		}
	}
	return nil
}

// Param is a method parameter as reported by the parser.
type Param struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Optional    bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// MethodNode is a method owned by a ClassNode.
type MethodNode struct {
	Name   string     `yaml:"name" json:"name"`
	Type   MethodType `yaml:"type" json:"type"`
	Params []Param    `yaml:"params,omitempty" json:"params,omitempty"`
	Doc    *Doc       `yaml:"doc,omitempty" json:"doc,omitempty"`

	// Class is the qualified name of the owning class.
	Class string `yaml:"-" json:"-"`
}

// Deprecated reports whether the method's documentation marks it deprecated.
func (m *MethodNode) Deprecated() bool {
	return m.Doc.IsDeprecated()
}

// Signature renders the method as name(param, param...).
func (m *MethodNode) Signature() string {
	names := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		names = append(names, p.Name)
	}
	return m.Name + "(" + strings.Join(names, ", ") + ")"
}

// Anchor is the fragment identifier of the method on its class page.
func (m *MethodNode) Anchor() string {
	return MethodAnchor(m.Name, m.Type)
}

// VariableNode is a variable owned by a ClassNode.
type VariableNode struct {
	Name       string `yaml:"name" json:"name"`
	IsConstant bool   `yaml:"constant,omitempty" json:"constant,omitempty"`
	Value      string `yaml:"value,omitempty" json:"value,omitempty"`
	Doc        *Doc   `yaml:"doc,omitempty" json:"doc,omitempty"`

	// Class is the qualified name of the owning class.
	Class string `yaml:"-" json:"-"`
}

// Deprecated reports whether the variable's documentation marks it deprecated.
func (v *VariableNode) Deprecated() bool {
	return v.Doc.IsDeprecated()
}

// Anchor is the fragment identifier of the constant on its class page.
func (v *VariableNode) Anchor() string {
	return ConstantAnchor(v.Name)
}

// MethodAnchor builds the class page fragment for a method.
func MethodAnchor(name string, t MethodType) string {
	return name + "-" + string(t)
}

// ConstantAnchor builds the class page fragment for a constant.
func ConstantAnchor(name string) string {
	return name + "-constant"
}
