package framework_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/framework"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		want framework.Framework
	}{
		{"static-html", framework.StaticHTML},
		{"HTML", framework.StaticHTML},
		{"transformers.js", framework.TransformersJS},
		{"Transformers-JS", framework.TransformersJS},
		{"gradio", framework.Gradio},
		{"streamlit", framework.Streamlit},
		{"react", framework.React},
		{"comfyui", framework.ComfyUI},
		{"", framework.Generic},
		{"auto", framework.Generic},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()
			got, err := framework.Parse(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	t.Parallel()

	_, err := framework.Parse("fortran-web")
	require.ErrorIs(t, err, framework.ErrUnknownFramework)
}

func TestSpec_EveryFrameworkHasEntryFile(t *testing.T) {
	t.Parallel()

	for _, f := range framework.All() {
		spec := f.Spec()
		assert.NotEmpty(t, spec.Tag, "framework %d", f)
		assert.NotEmpty(t, spec.EntryFile, "framework %s", spec.Tag)
		assert.NotEmpty(t, spec.FenceLangs, "framework %s", spec.Tag)
	}
}

func TestSpec_RequiredFilesIncludeEntry(t *testing.T) {
	t.Parallel()

	for _, f := range framework.All() {
		spec := f.Spec()
		if len(spec.RequiredFiles) == 0 {
			continue
		}
		assert.Contains(t, spec.RequiredFiles, spec.EntryFile, "framework %s", spec.Tag)
	}
}

func TestSpec_PythonFamilyHasCriticalDep(t *testing.T) {
	t.Parallel()

	for _, f := range framework.All() {
		spec := f.Spec()
		if spec.PythonFamily {
			assert.NotEmpty(t, spec.CriticalDep, "framework %s", spec.Tag)
			assert.NotEmpty(t, spec.CriticalDepMin, "framework %s", spec.Tag)
		}
	}
}
