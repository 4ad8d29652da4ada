package sog

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/sog/blobstore"
	"github.com/hupe1980/sog/internal/archive"
	"github.com/hupe1980/sog/internal/encode"
	"github.com/hupe1980/sog/internal/kmeans"
	"github.com/hupe1980/sog/internal/morton"
	"github.com/hupe1980/sog/manifest"
	"github.com/hupe1980/sog/plane"
	"github.com/hupe1980/sog/resource"
	"github.com/hupe1980/sog/table"
)

// Entry describes one file of a written archive.
type Entry struct {
	Name string
	Size int64

	// Digest is the xxhash64 of the entry's content.
	Digest uint64
}

// Result summarizes a successful export.
type Result struct {
	// JobID identifies the export in logs.
	JobID string

	// Count is the number of exported rows.
	Count int

	// Width and Height are the plane dimensions.
	Width, Height int

	// SHBands is the number of exported spherical-harmonic bands.
	SHBands int

	// Entries lists the archive files in stored order.
	Entries []Entry

	// Bytes is the archive size.
	Bytes int64

	Duration time.Duration

	// Meta is the manifest written to meta.json.
	Meta *manifest.Meta
}

// Exporter compresses splat sources into SOG archives.
//
// An Exporter is safe for concurrent use. Clustering jobs of concurrent
// exports are serialized through the exporter's resource.Controller.
type Exporter struct {
	opts options
}

// New creates an Exporter.
func New(optFns ...Option) *Exporter {
	return &Exporter{opts: applyOptions(optFns)}
}

// Controller returns the resource controller shared by the exporter's jobs.
func (e *Exporter) Controller() *resource.Controller {
	return e.opts.controller
}

// Export writes the rows of sources selected by filter as a SOG archive to w.
//
// Entries are streamed to w as they are produced. On error w may hold a
// truncated archive without meta.json; use ExportTo to discard it.
func (e *Exporter) Export(ctx context.Context, sources []Source, filter Filter, w io.Writer) (*Result, error) {
	return e.exportAndCommit(ctx, sources, filter, w, nil)
}

// ExportTo streams the archive into a new blob of store. The blob is only
// committed when the export succeeds; on any failure it is aborted.
func (e *Exporter) ExportTo(ctx context.Context, store blobstore.Store, name string, sources []Source, filter Filter) (*Result, error) {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sog: create %q: %w", name, err)
	}

	closed := false
	commit := func() error {
		closed = true
		if err := wb.Close(); err != nil {
			return fmt.Errorf("sog: commit %q: %w", name, err)
		}
		return nil
	}

	res, err := e.exportAndCommit(ctx, sources, filter, resource.NewRateLimitedWriter(ctx, wb, e.opts.controller), commit)
	if err != nil {
		if !closed {
			if abortErr := wb.Abort(); abortErr != nil {
				e.opts.logger.WarnContext(ctx, "abort failed", "blob", name, "error", abortErr)
			}
		}
		return nil, err
	}
	return res, nil
}

// exportAndCommit runs one export and, if commit is set, commits its output
// before the export is recorded and logged.
func (e *Exporter) exportAndCommit(ctx context.Context, sources []Source, filter Filter, w io.Writer, commit func() error) (*Result, error) {
	start := time.Now()
	jobID := uuid.NewString()
	log := e.opts.logger.WithJobID(jobID)

	res, err := e.export(ctx, log, jobID, sources, filter, w)
	if err == nil && commit != nil {
		err = commit()
	}
	duration := time.Since(start)

	if err != nil {
		e.opts.metricsCollector.RecordExport(0, 0, duration, err)
		log.LogExport(ctx, nil, err)
		return nil, err
	}

	res.Duration = duration
	e.opts.metricsCollector.RecordExport(res.Count, res.Bytes, duration, nil)
	log.LogExport(ctx, res, nil)
	return res, nil
}

// job holds the state of one export.
type job struct {
	e   *Exporter
	ctx context.Context
	log *Logger
	rng kmeans.Rand

	tbl    *table.Table
	bands  int
	layout encode.Layout
	zw     *archive.Writer
	meta   *manifest.Meta
}

func (e *Exporter) export(ctx context.Context, log *Logger, jobID string, sources []Source, filter Filter, w io.Writer) (*Result, error) {
	j := &job{e: e, ctx: ctx, log: log}
	if e.opts.seed != nil {
		j.rng = rand.New(rand.NewSource(*e.opts.seed))
	}

	cw := &countingWriter{w: w}

	stages := []struct {
		stage Stage
		fn    func() error
	}{
		{StageExtract, func() error { return j.extract(sources, filter) }},
		{StageMorton, j.reorder},
		{StageMeans, j.means},
		{StageQuats, j.quats},
		{StageScales, j.scales},
		{StageColors, j.colors},
		{StageSH, j.sh},
		{StageMeta, j.writeMeta},
		{StageClose, func() error { return j.zw.Close() }},
	}

	for _, s := range stages {
		if s.stage == StageSH && j.bands == 0 {
			continue
		}
		if s.stage == StageMorton {
			// The archive is opened only once there is something to export.
			j.zw = archive.NewWriter(cw, e.opts.modified)
		}
		if err := j.run(s.stage, s.fn); err != nil {
			return nil, err
		}
	}

	entries := j.zw.Entries()
	res := &Result{
		JobID:   jobID,
		Count:   j.tbl.NumRows(),
		Width:   j.layout.Width,
		Height:  j.layout.Height,
		SHBands: j.bands,
		Entries: make([]Entry, len(entries)),
		Bytes:   cw.n,
		Meta:    j.meta,
	}
	for i, en := range entries {
		res.Entries[i] = Entry(en)
	}
	return res, nil
}

func (j *job) run(stage Stage, fn func() error) error {
	if err := j.ctx.Err(); err != nil {
		return translateError(stage, err)
	}
	j.progress(stage, 0, 0)

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	j.e.opts.metricsCollector.RecordStage(stage, duration, err)
	j.log.LogStage(j.ctx, stage, duration, err)
	return translateError(stage, err)
}

func (j *job) progress(stage Stage, step, total int) {
	if fn := j.e.opts.progress; fn != nil {
		fn(stage, step, total)
	}
}

func (j *job) kmeansConfig(stage Stage) kmeans.Config {
	return kmeans.Config{
		Iterations: j.e.opts.iterations,
		Searcher:   j.e.opts.searcher,
		Resources:  j.e.opts.controller,
		Rand:       j.rng,
		Progress: func(step, total int) {
			j.progress(stage, step, total)
		},
	}
}

func (j *job) extract(sources []Source, filter Filter) error {
	tbl, bands, err := extract(sources, filter, j.e.opts.maxSHBands)
	if err != nil {
		return err
	}
	j.tbl, j.bands = tbl, bands
	j.log = j.log.WithCount(tbl.NumRows())
	return nil
}

func (j *job) reorder() error {
	indices, err := morton.Indices(j.tbl)
	if err != nil {
		return err
	}
	j.layout = encode.NewLayout(indices)
	j.meta = manifest.New(j.e.opts.generator, j.tbl.NumRows())
	return nil
}

func (j *job) means() error {
	m, err := encode.EncodeMeans(j.tbl, j.layout)
	if err != nil {
		return err
	}
	if err := j.add(manifest.MeansLower, m.Lower); err != nil {
		return err
	}
	if err := j.add(manifest.MeansUpper, m.Upper); err != nil {
		return err
	}
	j.meta.Means.Mins = m.Mins[:]
	j.meta.Means.Maxs = m.Maxs[:]
	return nil
}

func (j *job) quats() error {
	p, err := encode.EncodeQuats(j.tbl, j.layout)
	if err != nil {
		return err
	}
	return j.add(manifest.Quats, p)
}

func (j *job) scales() error {
	pal, err := encode.EncodeScales(j.ctx, j.tbl, j.layout, j.kmeansConfig(StageScales))
	if err != nil {
		return err
	}
	j.meta.Scales.Codebook = pal.Codebook
	return j.add(manifest.Scales, pal.Plane)
}

func (j *job) colors() error {
	pal, err := encode.EncodeColors(j.ctx, j.tbl, j.layout, j.kmeansConfig(StageColors))
	if err != nil {
		return err
	}
	j.meta.SH0.Codebook = pal.Codebook
	return j.add(manifest.SH0, pal.Plane)
}

func (j *job) sh() error {
	names := encode.SHColumns(j.bands, j.bands)
	sh, err := encode.EncodeSH(j.ctx, j.tbl, j.layout, j.bands, names, j.kmeansConfig(StageSH))
	if err != nil {
		return err
	}
	if err := j.add(manifest.SHNCentroids, sh.Centroids); err != nil {
		return err
	}
	if err := j.add(manifest.SHNLabels, sh.Labels); err != nil {
		return err
	}
	j.meta.SetSH(sh.Count, sh.Bands, sh.Codebook)
	return nil
}

func (j *job) writeMeta() error {
	if err := j.meta.Validate(); err != nil {
		return err
	}
	data, err := j.meta.Marshal(j.e.opts.codec)
	if err != nil {
		return err
	}
	_, err = j.zw.Add(manifest.FileName, data)
	return err
}

// add encodes p and stores it under name.
func (j *job) add(name string, p *plane.Plane) error {
	data, err := j.e.opts.encoder.Encode(p)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, name, err)
	}
	_, err = j.zw.Add(name, data)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
