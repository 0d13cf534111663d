package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/classfile/classfiletest"
)

func openIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	if err := ix.Put(ctx, "Greeter.class", classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	c, err := ix.Get(ctx, "com/example/Greeter")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if c.Name != "com.example.Greeter" || len(c.Methods) != 3 {
		t.Errorf("summary = %+v", c)
	}

	if _, err := ix.Get(ctx, "com/example/Missing"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrClassNotFound", err)
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	if err := ix.Put(ctx, "old.jar", classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	smaller := classfiletest.New("com/example/Greeter")
	smaller.Method(classfile.AccPublic, "run", "()V", smaller.Code(0, 1, []byte{byte(classfile.OpReturn)}))
	if err := ix.Put(ctx, "new.jar", smaller.Parse(t)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	n, err := ix.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
	refs, err := ix.FindMethods(ctx, "pick")
	if err != nil {
		t.Fatalf("FindMethods() error: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("Expected methods of the replaced class to be gone, got %+v", refs)
	}
	refs, _ = ix.FindMethods(ctx, "run")
	if len(refs) != 1 || refs[0].CodeLength != 1 {
		t.Errorf("FindMethods(run) = %+v", refs)
	}
}

func TestFindMethodsAndSubclasses(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	for _, name := range []string{"com/example/B", "com/example/A"} {
		b := classfiletest.New(name)
		b.Method(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V",
			b.Code(0, 1, []byte{byte(classfile.OpReturn)}))
		if err := ix.Put(ctx, name+".class", b.Parse(t)); err != nil {
			t.Fatalf("Put(%s) error: %v", name, err)
		}
	}

	refs, err := ix.FindMethods(ctx, "main")
	if err != nil {
		t.Fatalf("FindMethods() error: %v", err)
	}
	if len(refs) != 2 || refs[0].Class != "com/example/A" || refs[1].Class != "com/example/B" {
		t.Fatalf("FindMethods() = %+v", refs)
	}
	if !refs[0].Access.IsStatic() || refs[0].Descriptor != "([Ljava/lang/String;)V" {
		t.Errorf("refs[0] = %+v", refs[0])
	}

	subs, err := ix.Subclasses(ctx, "java/lang/Object")
	if err != nil {
		t.Fatalf("Subclasses() error: %v", err)
	}
	if !reflect.DeepEqual(subs, []string{"com/example/A", "com/example/B"}) {
		t.Errorf("Subclasses() = %v", subs)
	}
}

func TestConcurrentPut(t *testing.T) {
	ctx := context.Background()
	ix := openIndex(t)

	names := []string{"p/A", "p/B", "p/C", "p/D", "p/E", "p/F"}
	var wg sync.WaitGroup
	errs := make(chan error, len(names))
	for _, name := range names {
		cf := classfiletest.New(name).Parse(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ix.Put(ctx, name, cf)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Put() error: %v", err)
		}
	}

	if n, err := ix.Count(ctx); err != nil || n != len(names) {
		t.Errorf("Count() = %d, %v; want %d", n, err, len(names))
	}
}
