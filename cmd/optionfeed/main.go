package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/hmaldonadovilla/community-kitchen-sub000/components/optionfeed"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/model"
	"github.com/hmaldonadovilla/community-kitchen-sub000/pkg/optionsource"
)

func main() {
	var (
		addrFlag      = flag.String("addr", ":8384", "HTTP listen address")
		dirFlag       = flag.String("dir", "options", "directory of option documents; each file becomes a feed named after it")
		baseFlag      = flag.String("base", "", "base path the feed is mounted under")
		shutdownGrace = flag.Duration("grace", 5*time.Second, "Shutdown grace period")
	)
	flag.Parse()

	ctx := context.Background()
	store, err := loadDir(ctx, *dirFlag)
	if err != nil {
		log.Fatalf("load options: %v", err)
	}

	mux := http.NewServeMux()
	pattern, err := optionfeed.RegisterRoutes(mux, *baseFlag, optionfeed.WithStore(store))
	if err != nil {
		log.Fatalf("register routes: %v", err)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: mux,
	}

	log.Printf("listening on %s (%d feeds under %s)", *addrFlag, store.Len(), pattern)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		log.Fatalf("listen: %v", err)
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// loadDir parses every option document in dir into a store keyed by file
// name without extension.
func loadDir(ctx context.Context, dir string) (*optionsource.Store, error) {
	files := os.DirFS(dir)
	loader := optionsource.New(optionsource.WithFileSystem(files))
	store := optionsource.NewStore()

	err := fs.WalkDir(files, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil || entry.IsDir() {
			return walkErr
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		set, err := loader.LoadOptions(ctx, model.SourceDescriptor{Kind: model.SourceKindFS, Location: p}, "")
		if err != nil {
			return err
		}
		store.Put(strings.TrimSuffix(path.Base(p), path.Ext(p)), "", set)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
