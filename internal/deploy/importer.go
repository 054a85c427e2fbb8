package deploy

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sitesmith/sitesmith/internal/extract"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/space"
)

// importSuffixes is the allowlist of file suffixes an import pulls in.
// Binary assets (models, images) stay on the remote space.
var importSuffixes = []string{
	".py", ".js", ".html", ".css", ".json", ".txt",
	".yml", ".yaml", ".toml", ".md",
}

// maxImportFiles caps how many files one import fetches.
const maxImportFiles = 50

// Import is an existing remote space pulled into a session: its files
// become the starting state that follow-up turns edit.
type Import struct {
	Target    space.Target
	Framework framework.Framework
	Files     *extract.FileSet

	// Code is the delimited multi-file rendering of Files, suitable as
	// conversation context for the model.
	Code string
}

// Importer seeds sessions from already-deployed spaces. After an import
// the session's deployment record points at the space, so the next turn
// resolves it as an update target instead of minting a fresh one.
type Importer struct {
	client   space.Client
	sessions *SessionStore
	logger   log.Logger
}

// NewImporter creates an Importer sharing the deployer's record store.
func NewImporter(client space.Client, sessions *SessionStore, logger log.Logger) *Importer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Importer{client: client, sessions: sessions, logger: logger}
}

// ImportSpace fetches target's source files, detects the framework from
// their shape, and records the space as the session's live deployment for
// that framework. A space with no importable files is an error; a missing
// space surfaces the store's not-found error unchanged.
func (im *Importer) ImportSpace(ctx context.Context, sessionID string, target space.Target) (*Import, error) {
	paths, err := im.client.ListFiles(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", target.ID(), err)
	}

	files := extract.NewFileSet()
	for _, p := range paths {
		if !importable(p) {
			continue
		}
		content, err := im.client.FetchFile(ctx, target, p)
		if err != nil {
			// Listed but unfetchable files are skipped, matching the
			// best-effort posture of the rest of the import.
			im.logger.Debug("skipping unfetchable file", "target", target.ID(), "path", p, "error", err)
			continue
		}
		files.Set(p, content)
		if files.Len() >= maxImportFiles {
			break
		}
	}
	if files.Len() == 0 {
		return nil, fmt.Errorf("space %s has no importable files", target.ID())
	}

	fw := DetectFramework(files)
	if im.sessions != nil {
		im.sessions.Put(sessionID, Record{Target: target, Framework: fw})
	}

	im.logger.Info("imported space",
		"session_id", sessionID,
		"target", target.ID(),
		"framework", fw.String(),
		"files", files.Len())

	return &Import{
		Target:    target,
		Framework: fw,
		Files:     files,
		Code:      extract.FormatSections(files),
	}, nil
}

// DetectFramework infers the target framework from an imported file set.
// Detection goes most-specific first; anything unrecognized is Generic.
func DetectFramework(files *extract.FileSet) framework.Framework {
	has := func(p string) bool { _, ok := files.Get(p); return ok }

	switch {
	case has("index.html") && has("index.js") && has("style.css"):
		return framework.TransformersJS
	case has("workflow.json"):
		return framework.ComfyUI
	case has("src/App.jsx"):
		return framework.React
	case has("streamlit_app.py") || has("src/streamlit_app.py"):
		return framework.Streamlit
	}

	// Python entry points are ambiguous between the dashboard families;
	// the import statements disambiguate.
	for _, entry := range []string{"app.py", "main.py", "src/app.py"} {
		content, ok := files.Get(entry)
		if !ok {
			continue
		}
		if strings.Contains(content, "import streamlit") {
			return framework.Streamlit
		}
		if strings.Contains(content, "import gradio") {
			return framework.Gradio
		}
	}

	if has("index.html") {
		return framework.StaticHTML
	}
	return framework.Generic
}

func importable(p string) bool {
	base := path.Base(p)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(p, ".") || strings.Contains(p, "__pycache__") {
		return false
	}
	return hasAnySuffix(p, importSuffixes)
}
