package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newScanCmd(a *app) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Decode every class in a directory, jar, or zip file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runScan(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
			return err
		},
	}

	cmd.Flags().DurationVarP(&opts.timeout, "timeout", "t", 10*time.Second, "timeout per class")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of classes decoded in parallel")
	cmd.Flags().StringVar(&opts.index, "index", "", "record decoded classes in this SQLite database")

	return cmd
}

type scanOptions struct {
	timeout time.Duration
	jobs    int
	index   string
}

// scanEntry is one class stream found while walking the input.
type scanEntry struct {
	name string
	read func() ([]byte, error)
}

type scanReport struct {
	Classes int
	TooNew  int
	Errors  []string
}

type scanner struct {
	a     *app
	out   io.Writer
	opts  scanOptions
	index *store.Index
	total int

	mu       sync.Mutex
	progress int
	report   scanReport
}

func (a *app) runScan(ctx context.Context, out io.Writer, path string, opts scanOptions) (*scanReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	if opts.timeout <= 0 {
		opts.timeout = 10 * time.Second
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	entries, walkErrors, err := collectEntries(path, &closers)
	if err != nil {
		return nil, err
	}

	s := &scanner{a: a, out: out, opts: opts, total: len(entries)}
	s.report.Errors = walkErrors

	if opts.index != "" {
		ix, err := store.Open(opts.index)
		if err != nil {
			return nil, fmt.Errorf("open index %s: %w", opts.index, err)
		}
		defer ix.Close()
		s.index = ix
	}

	fmt.Fprintf(out, "Found %d classes to scan\n", len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for _, e := range entries {
		g.Go(func() error {
			return s.scan(ctx, e)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(s.report.Errors)
	fmt.Fprintf(out, "\n=== SCAN COMPLETE ===\n")
	fmt.Fprintf(out, "Classes decoded: %d\n", s.report.Classes)
	if s.report.TooNew > 0 {
		fmt.Fprintf(out, "Newer than supported: %d\n", s.report.TooNew)
	}
	fmt.Fprintf(out, "Errors: %d\n", len(s.report.Errors))
	for _, e := range s.report.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	return &s.report, nil
}

// scan decodes one entry. Decode failures are collected in the report;
// only index failures stop the scan.
func (s *scanner) scan(ctx context.Context, e scanEntry) error {
	data, err := e.read()
	if err != nil {
		s.fail(e.name, fmt.Errorf("read: %w", err))
		return nil
	}

	cf, err := s.decode(ctx, data)
	if err != nil {
		s.fail(e.name, err)
		return nil
	}

	tooNew, err := s.a.cfg.CheckVersion(cf)
	if err != nil {
		s.fail(e.name, err)
		return nil
	}

	if s.index != nil {
		if err := s.index.Put(ctx, e.name, cf); err != nil {
			return fmt.Errorf("index %s: %w", e.name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
	s.report.Classes++
	status := "OK"
	if tooNew {
		s.report.TooNew++
		status = "NEWER"
		log().Warningf("%s: class-file version %d.%d is newer than supported", e.name, cf.MajorVersion, cf.MinorVersion)
	}
	fmt.Fprintf(s.out, "[%d/%d] [%s] %s (%s)\n", s.progress, s.total, status, e.name, cf.ThisClassName())
	return nil
}

// decode parses data, giving up after the per-class timeout.
func (s *scanner) decode(ctx context.Context, data []byte) (*classfile.ClassFile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	type result struct {
		cf  *classfile.ClassFile
		err error
	}
	done := make(chan result, 1)
	go func() {
		cf, err := classfile.ParseBytes(data)
		done <- result{cf, err}
	}()

	select {
	case r := <-done:
		return r.cf, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout parsing: %w", ctx.Err())
	}
}

func (s *scanner) fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress++
	s.report.Errors = append(s.report.Errors, fmt.Sprintf("%s: %v", name, err))
	fmt.Fprintf(s.out, "[%d/%d] [ERROR] %s: %v\n", s.progress, s.total, name, err)
}

func isArchive(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".jar" || ext == ".zip"
}

func collectEntries(path string, closers *[]io.Closer) ([]scanEntry, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		switch {
		case isArchive(path):
			return zipFileEntries(path, closers)
		case filepath.Ext(path) == ".class":
			return []scanEntry{fileEntry(path)}, nil, nil
		default:
			return nil, nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
		}
	}

	var entries []scanEntry
	var errors []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			errors = append(errors, fmt.Sprintf("walk %s: %v", p, err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case filepath.Ext(p) == ".class":
			entries = append(entries, fileEntry(p))
		case isArchive(p):
			zipEntries, zipErrors, err := zipFileEntries(p, closers)
			if err != nil {
				errors = append(errors, err.Error())
				return nil
			}
			entries = append(entries, zipEntries...)
			errors = append(errors, zipErrors...)
		}
		return nil
	})
	if err != nil {
		errors = append(errors, fmt.Sprintf("walk %s: %v", path, err))
	}
	return entries, errors, nil
}

func fileEntry(path string) scanEntry {
	return scanEntry{name: path, read: func() ([]byte, error) { return os.ReadFile(path) }}
}

func zipFileEntries(path string, closers *[]io.Closer) ([]scanEntry, []string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	*closers = append(*closers, r)
	entries, errors := zipEntries(path, &r.Reader)
	return entries, errors, nil
}

// zipEntries lists the classes in an archive, descending one level into
// jars nested in it.
func zipEntries(archive string, r *zip.Reader) ([]scanEntry, []string) {
	var entries []scanEntry
	var errors []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := archive + "!/" + f.Name
		switch {
		case filepath.Ext(f.Name) == ".class":
			entries = append(entries, scanEntry{name: name, read: func() ([]byte, error) { return readZipFile(f) }})
		case isArchive(f.Name):
			data, err := readZipFile(f)
			if err != nil {
				errors = append(errors, fmt.Sprintf("read jar %s: %v", name, err))
				continue
			}
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				errors = append(errors, fmt.Sprintf("open jar %s as zip: %v", name, err))
				continue
			}
			for _, nf := range nested.File {
				if nf.FileInfo().IsDir() || filepath.Ext(nf.Name) != ".class" {
					continue
				}
				entries = append(entries, scanEntry{
					name: name + "!/" + nf.Name,
					read: func() ([]byte, error) { return readZipFile(nf) },
				})
			}
		}
	}
	return entries, errors
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
