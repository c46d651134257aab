package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
)

const sampleModel = `
classes:
  - qualified_name: App.Models.User
    parent: App.Models.Base
    file: src/models/user.coffee
    doc:
      comment: A user. See {App.Models.Base}.
      deprecated: Use {Account}
    methods:
      - name: save
        params:
          - name: options
      - name: find
        type: class
      - name: odd
        type: static
    variables:
      - name: TABLE
        constant: true
        value: '"users"'
      - name: cache
  - qualified_name: App.Models.Base
  - name: Loose
    namespace_path: [Util]
  - file: nameless.coffee
`

func TestParse_NormalizesNodes(t *testing.T) {
	m, err := Parse([]byte(sampleModel))
	require.NoError(t, err)
	require.Len(t, m.Classes, 3, "nameless class is skipped")

	user := m.Classes[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, []string{"App", "Models"}, user.NamespacePath)
	assert.Equal(t, "App.Models", user.Namespace())
	assert.Equal(t, "App.Models.Base", user.ParentQualifiedName)
	assert.True(t, user.Doc.IsDeprecated())

	require.Len(t, user.Methods, 3)
	assert.Equal(t, MethodTypeInstance, user.Methods[0].Type, "missing type defaults to instance")
	assert.Equal(t, MethodTypeClass, user.Methods[1].Type)
	assert.Equal(t, MethodTypeInstance, user.Methods[2].Type, "unknown type falls back to instance")
	for _, meth := range user.Methods {
		assert.Equal(t, "App.Models.User", meth.Class)
	}
	assert.Equal(t, "save(options)", user.Methods[0].Signature())
	assert.Equal(t, "find-class", user.Methods[1].Anchor())

	require.Len(t, user.Constants(), 1)
	assert.Equal(t, "TABLE", user.Constants()[0].Name)
	assert.Equal(t, "TABLE-constant", user.Constants()[0].Anchor())
	assert.Equal(t, "App.Models.User", user.Variables[1].Class)

	loose := m.Classes[2]
	assert.Equal(t, "Util.Loose", loose.QualifiedName)
	assert.False(t, loose.HasParent())

	assert.Len(t, m.AllMethods(), 3)
}

func TestParse_AcceptsJSON(t *testing.T) {
	m, err := Parse([]byte(`{"classes":[{"qualified_name":"A.B","methods":[{"name":"x","type":"class"}]}]}`))
	require.NoError(t, err)
	require.Len(t, m.Classes, 1)
	assert.Equal(t, "B", m.Classes[0].Name)
	assert.NotNil(t, m.Classes[0].FindMethod("x", MethodTypeClass))
	assert.Nil(t, m.Classes[0].FindMethod("x", MethodTypeInstance))
}

func TestParse_DropsNullMembers(t *testing.T) {
	doc := "classes:\n  - qualified_name: A\n    methods:\n      - ~\n      - name: ok\n    variables:\n      - ~\n      - name: v\n"

	var m *Model
	require.NotPanics(t, func() {
		var err error
		m, err = Parse([]byte(doc))
		require.NoError(t, err)
	})
	require.Len(t, m.Classes, 1)
	require.Len(t, m.Classes[0].Methods, 1)
	assert.Equal(t, "ok", m.Classes[0].Methods[0].Name)
	assert.Equal(t, "A", m.Classes[0].Methods[0].Class)
	require.Len(t, m.Classes[0].Variables, 1)
	assert.Equal(t, "v", m.Classes[0].Variables[0].Name)
	assert.Len(t, m.AllMethods(), 1)
}

func TestParse_CanonicalizesQualifiedNames(t *testing.T) {
	m, err := Parse([]byte("classes:\n  - qualified_name: A..B\n    parent: ' .A...Base. '\n    methods:\n      - name: run\n"))
	require.NoError(t, err)
	require.Len(t, m.Classes, 1)

	c := m.Classes[0]
	assert.Equal(t, "A.B", c.QualifiedName)
	assert.Equal(t, "B", c.Name)
	assert.Equal(t, []string{"A"}, c.NamespacePath)
	assert.Equal(t, "A.Base", c.ParentQualifiedName)
	assert.Equal(t, "A.B", c.Methods[0].Class)
	assert.Equal(t, "classes/A/B.html", PathToFile(c.QualifiedName))
}

func TestParse_InvalidDocument(t *testing.T) {
	_, err := Parse([]byte("classes: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryModel))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.IsFatal())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleModel), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Classes, 3)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitPath(".A..B."))
	assert.Empty(t, SplitPath(""))
	assert.Equal(t, "classes/A/B/Baz.html", PathToFile("A.B.Baz"))
	assert.Equal(t, "classes/Root.html", PathToFile("Root"))
}
