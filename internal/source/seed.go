package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/model"
)

// ReadFunc fetches raw seed bytes.
type ReadFunc func(ctx context.Context) ([]byte, error)

// Seed is the bundled seed asset. It is read at most once; later loads
// return the first result.
type Seed struct {
	name string
	read ReadFunc

	once sync.Once
	snap *model.Snapshot
	err  error
}

// NewSeed returns a seed source backed by read.
func NewSeed(name string, read ReadFunc) *Seed {
	return &Seed{name: name, read: read}
}

// SeedBytes serves a fixed byte slice, normally the embedded asset.
func SeedBytes(data []byte) *Seed {
	return NewSeed("seed", func(context.Context) ([]byte, error) { return data, nil })
}

// SeedFile reads the seed from a file.
func SeedFile(path string) *Seed {
	return NewSeed("seed:file", func(context.Context) ([]byte, error) {
		return os.ReadFile(path)
	})
}

// SeedURL fetches the seed over HTTP. A nil client uses http.DefaultClient.
func SeedURL(client *http.Client, url string) *Seed {
	if client == nil {
		client = http.DefaultClient
	}
	return NewSeed("seed:url", func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}

func (s *Seed) Name() string { return s.name }

func (s *Seed) Available() bool { return s != nil && s.read != nil }

// Load reads and decodes the seed on first call.
func (s *Seed) Load(ctx context.Context) (*model.Snapshot, error) {
	s.once.Do(func() {
		data, err := s.read(ctx)
		if err != nil {
			s.err = Unavailable(s.name, "read seed", err)
			return
		}
		snap, err := codec.Decode(data)
		if err != nil {
			s.err = Unavailable(s.name, "decode seed", err)
			return
		}
		s.snap = &snap
	})
	if s.err != nil {
		return nil, s.err
	}
	if s.snap == nil {
		return nil, nil
	}
	c := s.snap.Clone()
	return &c, nil
}

// Save always fails; the seed is read-only.
func (s *Seed) Save(context.Context, model.Snapshot) error {
	return WriteFailed(s.name, "seed is read-only", errors.ErrUnsupported)
}
