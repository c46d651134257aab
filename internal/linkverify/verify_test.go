package linkverify

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func TestExtractPageFromReader(t *testing.T) {
	page, err := ExtractPageFromReader(strings.NewReader(`<html><head>
<link rel="stylesheet" href="../assets/classdoc.css">
<script src="../assets/classdoc.js"></script>
</head><body>
<h2 id="area-instance">area</h2><a name="legacy"></a>
<a href="Shape.html#area-instance">Shape <b>area</b></a>
<a href="https://example.com/">external</a>
<frameset><frame src="class_list.html"></frameset>
</body></html>`))
	require.NoError(t, err)

	var tags []string
	for _, l := range page.Links {
		tags = append(tags, l.Tag+":"+l.URL)
	}
	assert.Equal(t, []string{
		"link:../assets/classdoc.css",
		"script:../assets/classdoc.js",
		"a:Shape.html#area-instance",
		"a:https://example.com/",
	}, tags[:4])
	assert.Equal(t, "Shapearea", page.Links[2].Text)
	assert.False(t, page.Links[3].IsInternal)
	assert.True(t, page.HasAnchor("area-instance"))
	assert.True(t, page.HasAnchor("legacy"))
}

func TestShouldVerifyLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"classes/A.html", true},
		{"../index.html#top", true},
		{"#local", false},
		{"https://example.com", false},
		{"mailto:dev@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldVerifyLink(&Link{URL: tt.url, IsInternal: isInternalLink(tt.url)}))
		})
	}
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "index.html", `<a href="classes/Geo/Shape.html">Shape</a><a href="missing.html">x</a>`)
	writePage(t, root, "classes/Geo/Shape.html", `
<link href="../../assets/classdoc.css" rel="stylesheet">
<h3 id="area-instance">area</h3>
<a href="Circle.html#radius-instance">radius</a>
<a href="../../index.html#nowhere">home</a>
<a href="../../../outside.html">out</a>
<a href="https://example.com/">ext</a>`)
	writePage(t, root, "classes/Geo/Circle.html", `<a href="Shape.html#area-instance">area</a>`)
	writePage(t, root, "assets/classdoc.css", "body{}")

	var logs bytes.Buffer
	report, err := Verify(context.Background(), root, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 7, report.Checked)
	require.Len(t, report.Broken, 2)
	assert.False(t, report.OK())
	assert.Equal(t, BrokenLink{Page: "classes/Geo/Shape.html", URL: "../../../outside.html", Tag: "a", Reason: reasonEscapesRoot}, report.Broken[0])
	assert.Equal(t, BrokenLink{Page: "index.html", URL: "missing.html", Tag: "a", Reason: reasonMissingFile}, report.Broken[1])
	assert.Contains(t, logs.String(), "Broken link")

	report, err = Verify(context.Background(), root, Options{CheckFragments: true, Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)
	var reasons []string
	for _, b := range report.Broken {
		reasons = append(reasons, b.URL+" "+b.Reason)
	}
	assert.ElementsMatch(t, []string{
		"Circle.html#radius-instance " + reasonMissingAnchor,
		"../../index.html#nowhere " + reasonMissingAnchor,
		"../../../outside.html " + reasonEscapesRoot,
		"missing.html " + reasonMissingFile,
	}, reasons)
}

func TestVerify_Canceled(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "index.html", `<p>hi</p>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Verify(ctx, root, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
