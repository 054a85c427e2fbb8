package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/extract"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/patch"
	"github.com/sitesmith/sitesmith/internal/space"
)

// ErrNoFilesUpdated is returned when an incremental update applied no
// patch block to any fetched file. Uploading nothing would silently
// confirm an edit that never happened, so the turn fails instead.
var ErrNoFilesUpdated = errors.New("no files were updated")

// redesignKeyword scopes a dashboard update down to the entry file.
// Matching is a plain substring check on the latest user turn and the
// commit message; "redesigned" and similar inflections match too.
const redesignKeyword = "redesign"

// Request carries one generation turn into the deployer.
type Request struct {
	SessionID string
	Framework framework.Framework

	// Raw is the complete accumulated model output for the turn.
	Raw string

	// Prompt is the latest user turn, used for name minting and
	// redesign detection.
	Prompt string

	// CommitMessage annotates the upload and participates in redesign
	// detection. Optional.
	CommitMessage string

	// ExplicitTarget, History and OwnerHint feed target resolution.
	ExplicitTarget string
	History        []Message
	OwnerHint      string

	// Generator synthesizes requirements manifests for Python targets.
	// Optional; without it a static manifest is derived from imports.
	Generator extract.RequirementsGenerator
}

// Result reports a completed deployment.
type Result struct {
	Target   space.Target
	Created  bool
	Uploaded []string
	Patch    patch.Report

	// Message is the user-facing confirmation, carrying the success
	// marker so later turns resolve back to the same target.
	Message string
}

// Deployer reconciles generated output against remote deployment state:
// it resolves where output belongs, decides between creating a space and
// updating one, and uploads only what the turn is allowed to touch.
type Deployer struct {
	client   space.Client
	sessions *SessionStore
	logger   log.Logger

	// hubHost builds user-facing space links, e.g. "huggingface.co".
	hubHost      string
	defaultOwner string
}

// New creates a Deployer. sessions may be shared across deployers.
func New(client space.Client, sessions *SessionStore, hubHost, defaultOwner string, logger log.Logger) *Deployer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Deployer{
		client:       client,
		sessions:     sessions,
		logger:       logger,
		hubHost:      hubHost,
		defaultOwner: defaultOwner,
	}
}

// Deploy runs one reconciliation turn. Extraction and patching never
// abort the turn on their own; failures here come from validation
// (missing required files, unusable workflow JSON), from the remote
// store, or from an update that changed nothing.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	res, err := ResolveTarget(ResolveInput{
		ExplicitID:   req.ExplicitTarget,
		History:      req.History,
		OwnerHint:    req.OwnerHint,
		DefaultOwner: d.defaultOwner,
		NameSeed:     req.Prompt,
	}, d.sessions, req.SessionID, req.Framework)
	if err != nil {
		return nil, err
	}

	d.logger.Info("target resolved",
		"session_id", req.SessionID,
		"target", res.Target.ID(),
		"source", res.Source.String(),
		"is_update", res.IsUpdate)

	var result *Result
	if res.IsUpdate {
		result, err = d.update(ctx, res.Target, req)
	} else {
		result, err = d.create(ctx, res.Target, req)
	}
	if err != nil {
		return nil, err
	}

	if d.sessions != nil {
		d.sessions.Put(req.SessionID, Record{
			Target:    result.Target,
			Framework: req.Framework,
			Timestamp: time.Now(),
		})
	}
	return result, nil
}

// create extracts a full file set and provisions a fresh space.
func (d *Deployer) create(ctx context.Context, target space.Target, req Request) (*Result, error) {
	files, err := extract.Files(req.Raw, req.Framework, req.Generator)
	if err != nil {
		return nil, err
	}

	if err := d.client.Create(ctx, target, spaceKind(req.Framework)); err != nil {
		return nil, fmt.Errorf("create space %s: %w", target.ID(), err)
	}

	uploaded, err := d.uploadAll(ctx, target, files, nil)
	if err != nil {
		return nil, err
	}

	return d.result(target, true, uploaded, patch.Report{}), nil
}

// update applies the turn against an existing space. Patch-capable
// frameworks whose output carries search/replace blocks go through the
// patch path; everything else redeploys, with the writable file set
// narrowed for Python dashboards. A missing space degrades into a full
// redeploy rather than failing the turn.
func (d *Deployer) update(ctx context.Context, target space.Target, req Request) (*Result, error) {
	spec := req.Framework.Spec()

	if len(spec.SourceSuffixes) > 0 && !spec.PythonFamily && patch.HasBlocks(req.Raw) {
		result, err := d.applyPatches(ctx, target, req, spec)
		if !errors.Is(err, space.ErrNotFound) {
			return result, err
		}
		d.logger.Warn("space missing during patch update, redeploying",
			"target", target.ID())
	}

	files, err := extract.Files(req.Raw, req.Framework, req.Generator)
	if err != nil {
		return nil, err
	}

	writable := d.writableFiles(req, spec)

	uploaded, err := d.uploadAll(ctx, target, files, writable)
	if err == nil {
		return d.result(target, false, uploaded, patch.Report{}), nil
	}
	if !errors.Is(err, space.ErrNotFound) {
		return nil, err
	}

	// The resolved space no longer exists; recreate it and push the
	// full set so the session recovers instead of erroring forever.
	d.logger.Warn("space missing during update, recreating", "target", target.ID())
	if err := d.client.Create(ctx, target, spaceKind(req.Framework)); err != nil {
		return nil, fmt.Errorf("recreate space %s: %w", target.ID(), err)
	}
	uploaded, err = d.uploadAll(ctx, target, files, nil)
	if err != nil {
		return nil, err
	}
	return d.result(target, true, uploaded, patch.Report{}), nil
}

// applyPatches runs the incremental path: fetch only the source files,
// apply the output's search/replace blocks, upload only what changed.
func (d *Deployer) applyPatches(ctx context.Context, target space.Target, req Request, spec framework.Spec) (*Result, error) {
	paths, err := d.client.ListFiles(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", target.ID(), err)
	}

	sources := extract.NewFileSet()
	for _, path := range paths {
		if !hasAnySuffix(path, spec.SourceSuffixes) {
			continue
		}
		content, err := d.client.FetchFile(ctx, target, path)
		if err != nil {
			return nil, fmt.Errorf("fetch %s from %s: %w", path, target.ID(), err)
		}
		sources.Set(path, content)
	}

	var total patch.Report
	modified := extract.NewFileSet()
	for _, group := range patch.ParseFileGroups(req.Raw) {
		targets := []string{group.Path}
		if group.Path == patch.AllFiles {
			targets = sources.Paths()
		}
		for _, path := range targets {
			original, ok := sources.Get(path)
			if !ok {
				total.Skipped++
				total.Diagnostics = append(total.Diagnostics,
					fmt.Sprintf("%s: no such source file", path))
				continue
			}
			patched, report := patch.Apply(original, group.Body)
			total.Applied += report.Applied
			total.Skipped += report.Skipped
			total.Diagnostics = append(total.Diagnostics, report.Diagnostics...)
			if patched != original {
				sources.Set(path, patched)
				modified.Set(path, patched)
			}
		}
	}

	if modified.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesUpdated,
			strings.Join(total.Diagnostics, "; "))
	}

	uploaded, err := d.uploadAll(ctx, target, modified, nil)
	if err != nil {
		return nil, err
	}
	return d.result(target, false, uploaded, total), nil
}

// writableFiles narrows what an update may overwrite. Python dashboards
// only ever replace their source files, never assets the platform or the
// user added; a redesign request narrows further to the entry file so a
// visual rework cannot clobber working logic in sibling modules.
func (d *Deployer) writableFiles(req Request, spec framework.Spec) func(path string) bool {
	if !spec.PythonFamily {
		return nil
	}
	if isRedesign(req.Prompt, req.CommitMessage) {
		return func(path string) bool { return path == spec.EntryFile }
	}
	return func(path string) bool {
		return hasAnySuffix(path, spec.SourceSuffixes)
	}
}

func isRedesign(prompt, commitMessage string) bool {
	return strings.Contains(strings.ToLower(prompt), redesignKeyword) ||
		strings.Contains(strings.ToLower(commitMessage), redesignKeyword)
}

// uploadAll pushes files in set order. writable nil means everything.
func (d *Deployer) uploadAll(ctx context.Context, target space.Target, files *extract.FileSet, writable func(string) bool) ([]string, error) {
	var uploaded []string
	for _, path := range files.Paths() {
		if writable != nil && !writable(path) {
			d.logger.Debug("skipping non-writable file", "path", path)
			continue
		}
		content, _ := files.Get(path)
		err := d.client.UploadFile(ctx, target, space.File{Path: path, Content: content})
		if err != nil {
			return nil, fmt.Errorf("upload %s to %s: %w", path, target.ID(), err)
		}
		uploaded = append(uploaded, path)
	}
	if len(uploaded) == 0 {
		return nil, ErrNoFilesUpdated
	}
	return uploaded, nil
}

func (d *Deployer) result(target space.Target, created bool, uploaded []string, report patch.Report) *Result {
	verb := "Updated and deployed to"
	if created {
		verb = "Created and deployed to"
	}
	return &Result{
		Target:   target,
		Created:  created,
		Uploaded: uploaded,
		Patch:    report,
		Message:  fmt.Sprintf("%s https://%s/spaces/%s", verb, d.hubHost, target.ID()),
	}
}

// spaceKind maps a framework onto the platform's runtime template.
func spaceKind(fw framework.Framework) string {
	switch fw {
	case framework.Gradio:
		return "gradio"
	case framework.Streamlit:
		return "streamlit"
	default:
		return "static"
	}
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
