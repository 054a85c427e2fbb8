package deploy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/extract"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/space"
	"github.com/sitesmith/sitesmith/internal/testutil"
)

func newImporter(fake *testutil.FakeSpace) (*deploy.Importer, *deploy.SessionStore) {
	sessions := deploy.NewSessionStore()
	return deploy.NewImporter(fake, sessions, log.NewNop()), sessions
}

func TestImportSpaceSeedsSessionRecord(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeSpace()
	target := space.Target{Owner: "demo", Name: "chat-widget"}
	fake.Seed(target, map[string]string{
		"index.html": "<!DOCTYPE html><html><body></body></html>",
		"index.js":   "import { pipeline } from '@huggingface/transformers';",
		"style.css":  "body { margin: 0; }",
	})

	im, sessions := newImporter(fake)
	imp, err := im.ImportSpace(t.Context(), "s1", target)
	require.NoError(t, err)

	assert.Equal(t, framework.TransformersJS, imp.Framework)
	assert.ElementsMatch(t, []string{"index.html", "index.js", "style.css"}, imp.Files.Paths())
	assert.Contains(t, imp.Code, "=== index.js ===")

	rec, ok := sessions.Latest("s1", framework.TransformersJS)
	require.True(t, ok)
	assert.Equal(t, target, rec.Target)
}

func TestImportThenDeployUpdatesImportedSpace(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeSpace()
	target := space.Target{Owner: "demo", Name: "old-landing"}
	fake.Seed(target, map[string]string{
		"index.html": "<!DOCTYPE html><html><body><h1>Old</h1></body></html>",
	})

	sessions := deploy.NewSessionStore()
	im := deploy.NewImporter(fake, sessions, log.NewNop())
	d := deploy.New(fake, sessions, "huggingface.co", "demo", log.NewNop())

	imp, err := im.ImportSpace(t.Context(), "s1", target)
	require.NoError(t, err)
	require.Equal(t, framework.StaticHTML, imp.Framework)

	result, err := d.Deploy(t.Context(), deploy.Request{
		SessionID: "s1",
		Framework: framework.StaticHTML,
		Raw:       rawLandingPage,
		Prompt:    "modernize the page",
	})
	require.NoError(t, err)

	assert.False(t, result.Created, "import target must be updated, not recreated")
	assert.Equal(t, target, result.Target)
	assert.Contains(t, fake.Files(target)["index.html"], "Welcome to the Pet Shop")
}

func TestImportSkipsBinaryAndHiddenFiles(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeSpace()
	target := space.Target{Owner: "demo", Name: "classifier"}
	fake.Seed(target, map[string]string{
		"app.py":           "import gradio as gr\n",
		"requirements.txt": "gradio>=4.0.0\n",
		"model.onnx":       "\x00binary\x00",
		".gitattributes":   "*.onnx filter=lfs\n",
	})

	im, _ := newImporter(fake)
	imp, err := im.ImportSpace(t.Context(), "s1", target)
	require.NoError(t, err)

	assert.Equal(t, framework.Gradio, imp.Framework)
	assert.ElementsMatch(t, []string{"app.py", "requirements.txt"}, imp.Files.Paths())
}

func TestImportMissingSpace(t *testing.T) {
	t.Parallel()

	im, sessions := newImporter(testutil.NewFakeSpace())
	_, err := im.ImportSpace(t.Context(), "s1", space.Target{Owner: "demo", Name: "ghost"})
	require.ErrorIs(t, err, space.ErrNotFound)

	_, ok := sessions.Latest("s1", framework.Generic)
	assert.False(t, ok, "failed import must not seed a record")
}

func TestDetectFramework(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  framework.Framework
	}{
		{
			name: "streamlit entry file",
			files: map[string]string{
				"streamlit_app.py": "import streamlit as st\n",
			},
			want: framework.Streamlit,
		},
		{
			name: "streamlit under app.py",
			files: map[string]string{
				"app.py": "import streamlit as st\n",
			},
			want: framework.Streamlit,
		},
		{
			name: "gradio under app.py",
			files: map[string]string{
				"app.py": "import gradio as gr\n",
			},
			want: framework.Gradio,
		},
		{
			name:  "workflow document",
			files: map[string]string{"workflow.json": "{}"},
			want:  framework.ComfyUI,
		},
		{
			name:  "react tree",
			files: map[string]string{"src/App.jsx": "export default function App() {}"},
			want:  framework.React,
		},
		{
			name:  "plain page",
			files: map[string]string{"index.html": "<!DOCTYPE html>"},
			want:  framework.StaticHTML,
		},
		{
			name:  "unrecognized",
			files: map[string]string{"notes.md": "# notes"},
			want:  framework.Generic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := extract.NewFileSet()
			for p, c := range tt.files {
				fs.Set(p, c)
			}
			assert.Equal(t, tt.want, deploy.DetectFramework(fs))
		})
	}
}

func TestParseSpaceURL(t *testing.T) {
	t.Parallel()

	target, ok := deploy.ParseSpaceURL("check out https://huggingface.co/spaces/demo/chat-widget please")
	require.True(t, ok)
	assert.Equal(t, "demo/chat-widget", target.ID())

	_, ok = deploy.ParseSpaceURL("no link here")
	assert.False(t, ok)
}
