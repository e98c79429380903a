package search

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

var ErrClosed = errors.New("search engine closed")

type Engine interface {
	Index(ctx context.Context, doc SegmentDoc) error
	IndexBatch(ctx context.Context, docs []SegmentDoc) error
	// ReplaceMedia drops every segment of mediaID and indexes docs.
	ReplaceMedia(ctx context.Context, mediaID string, docs []SegmentDoc) error
	DeleteMedia(ctx context.Context, mediaID string) error
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	Close() error
}

type bleveEngine struct {
	cfg    Config
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
	wmu    sync.Mutex // serializes media replace/delete
}

// New opens the index at cfg.IndexPath, creating it when missing.
func New(cfg Config, m mapping.IndexMapping) (Engine, error) {
	if m == nil {
		m = BuildIndexMapping(cfg.DefaultAnalyzer)
	}
	be := &bleveEngine{cfg: cfg}

	var (
		idx bleve.Index
		err error
	)
	switch _, statErr := os.Stat(cfg.IndexPath); {
	case cfg.IndexPath == "":
		idx, err = bleve.NewMemOnly(m)
	case statErr == nil:
		idx, err = bleve.Open(cfg.IndexPath)
	case os.IsNotExist(statErr):
		idx, err = bleve.New(cfg.IndexPath, m)
	default:
		err = statErr
	}
	if err != nil {
		return nil, err
	}
	be.index = idx
	return be, nil
}

func (e *bleveEngine) guard() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

func (e *bleveEngine) withDeadline(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	ch := make(chan error, 1)
	go func() { ch <- fn(c) }()
	select {
	case <-c.Done():
		return c.Err()
	case err := <-ch:
		return err
	}
}

func docFields(d SegmentDoc) map[string]any {
	return map[string]any{
		"type":      segmentType,
		"mediaId":   d.MediaID,
		"segmentId": d.SegmentID,
		"text":      d.Text,
		"start":     d.Start,
		"end":       d.End,
	}
}

func (e *bleveEngine) Index(ctx context.Context, doc SegmentDoc) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		return e.index.Index(doc.DocID(), docFields(doc))
	})
}

func (e *bleveEngine) IndexBatch(ctx context.Context, docs []SegmentDoc) error {
	if err := e.guard(); err != nil {
		return err
	}
	return e.writeBatches(ctx, nil, docs)
}

func (e *bleveEngine) ReplaceMedia(ctx context.Context, mediaID string, docs []SegmentDoc) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.wmu.Lock()
	defer e.wmu.Unlock()
	stale, err := e.mediaDocIDs(mediaID)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(docs))
	for _, d := range docs {
		keep[d.DocID()] = true
	}
	var drop []string
	for _, id := range stale {
		if !keep[id] {
			drop = append(drop, id)
		}
	}
	return e.writeBatches(ctx, drop, docs)
}

func (e *bleveEngine) DeleteMedia(ctx context.Context, mediaID string) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.wmu.Lock()
	defer e.wmu.Unlock()
	ids, err := e.mediaDocIDs(mediaID)
	if err != nil {
		return err
	}
	return e.writeBatches(ctx, ids, nil)
}

func (e *bleveEngine) mediaDocIDs(mediaID string) ([]string, error) {
	q := bleve.NewTermQuery(mediaID)
	q.SetField("mediaId")
	var ids []string
	for from := 0; ; {
		sr := bleve.NewSearchRequestOptions(q, 500, from, false)
		res, err := e.index.Search(sr)
		if err != nil {
			return nil, err
		}
		for _, h := range res.Hits {
			ids = append(ids, h.ID)
		}
		from += len(res.Hits)
		if len(res.Hits) == 0 || uint64(from) >= res.Total {
			return ids, nil
		}
	}
}

func (e *bleveEngine) writeBatches(ctx context.Context, deletes []string, docs []SegmentDoc) error {
	bs := e.cfg.BatchSize
	if bs <= 0 {
		bs = 200
	}
	return e.withDeadline(ctx, 0, func(ctx context.Context) error {
		b := e.index.NewBatch()
		flush := func(force bool) error {
			if b.Size() == 0 || (!force && b.Size() < bs) {
				return nil
			}
			if err := e.index.Batch(b); err != nil {
				return err
			}
			b.Reset()
			return nil
		}
		for _, id := range deletes {
			b.Delete(id)
			if err := flush(false); err != nil {
				return err
			}
		}
		for _, d := range docs {
			if err := b.Index(d.DocID(), docFields(d)); err != nil {
				return err
			}
			if err := flush(false); err != nil {
				return err
			}
		}
		return flush(true)
	})
}

func buildQuery(req SearchRequest) query.Query {
	var text query.Query
	if strings.TrimSpace(req.Query) == "" {
		text = bleve.NewMatchAllQuery()
	} else {
		m := bleve.NewMatchQuery(req.Query)
		m.SetField("text")
		text = m
	}
	if req.MediaID == "" {
		return text
	}
	media := bleve.NewTermQuery(req.MediaID)
	media.SetField("mediaId")
	return bleve.NewConjunctionQuery(text, media)
}

func (e *bleveEngine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if err := e.guard(); err != nil {
		return SearchResult{}, err
	}

	// 分页
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}
	sr := bleve.NewSearchRequestOptions(buildQuery(req), req.Size, req.From, false)
	sr.Fields = []string{"mediaId", "segmentId", "text", "start", "end"}
	if strings.TrimSpace(req.Query) == "" {
		sr.SortBy([]string{"mediaId", "start"})
	}
	if req.Highlight {
		sr.Highlight = bleve.NewHighlightWithStyle("html")
		sr.Highlight.AddField("text")
	}

	var res *bleve.SearchResult
	err := e.withDeadline(ctx, e.cfg.QueryTimeout, func(ctx context.Context) error {
		r, err := e.index.SearchInContext(ctx, sr)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{
		Total: res.Total,
		Took:  res.Took,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score, Fragments: h.Fragments}
		hit.MediaID, _ = h.Fields["mediaId"].(string)
		hit.SegmentID, _ = h.Fields["segmentId"].(string)
		hit.Text, _ = h.Fields["text"].(string)
		hit.Start, _ = h.Fields["start"].(float64)
		hit.End, _ = h.Fields["end"].(float64)
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func (e *bleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.index.Close()
}
