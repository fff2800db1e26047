package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"privascope/extract"
	"privascope/index"
)

// extractRequest asks the worker pool to extract one file's text.
type extractRequest struct {
	fileID string
	path   string
	entry  index.Entry // content filled in by the worker
}

// extractResult carries the extracted text back, correlated by file id.
type extractResult struct {
	fileID string
	entry  index.Entry
}

// extractPool offloads text extraction to a fixed set of workers so PDF
// parsing never stalls the directory walk. Results are collected by a single
// goroutine that writes the content index, keeping index writes ordered per
// pool.
type extractPool struct {
	requests chan extractRequest
	group    *errgroup.Group
	collect  chan struct{}
	indexed  int
}

// newExtractPool starts workers plus one collector writing into ci.
// onIndexed is invoked for every non-empty extraction after indexing.
func newExtractPool(workers int, ci *index.ContentIndex, onIndexed func(fileID string, err error)) *extractPool {
	if workers < 1 {
		workers = 1
	}

	p := &extractPool{
		requests: make(chan extractRequest, workers*2),
		collect:  make(chan struct{}),
	}
	results := make(chan extractResult, workers*2)

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for req := range p.requests {
				entry := req.entry
				entry.Content = extract.Text(req.path)
				results <- extractResult{fileID: req.fileID, entry: entry}
			}
			return nil
		})
	}
	p.group = g

	go func() {
		defer close(p.collect)
		for res := range results {
			if res.entry.Content == "" {
				continue
			}
			if err := ci.Index(res.fileID, res.entry); err != nil {
				onIndexed(res.fileID, err)
				continue
			}
			p.indexed++
			onIndexed(res.fileID, nil)
		}
	}()

	// Close the results channel once every worker is done.
	go func() {
		g.Wait()
		close(results)
	}()

	return p
}

// submit queues one extraction.
func (p *extractPool) submit(req extractRequest) {
	p.requests <- req
}

// drain waits until all queued extractions are indexed and returns the
// number of files indexed.
func (p *extractPool) drain() int {
	close(p.requests)
	p.group.Wait()
	<-p.collect
	return p.indexed
}
