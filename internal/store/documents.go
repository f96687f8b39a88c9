package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"floodguard/internal/logging"
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
)

// DefaultBatchSize is the number of documents embedded per request.
const DefaultBatchSize = 100

// ProjectDocument renders the searchable text and metadata for a record.
func ProjectDocument(r projects.Record) (string, map[string]any) {
	parts := []string{r.Description, r.Contractor, r.Municipality, r.Province, r.TypeOfWork}
	if r.InfraYear != 0 {
		parts = append(parts, strconv.Itoa(r.InfraYear))
	}
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " "), map[string]any{
		"project_id":    r.ProjectID,
		"contractor":    r.Contractor,
		"contract_cost": r.ContractCost,
		"abc":           r.ABC,
		"region":        r.Region,
		"province":      r.Province,
		"municipality":  r.Municipality,
		"infra_year":    r.InfraYear,
		"type_of_work":  r.TypeOfWork,
		"lat":           r.Latitude,
		"lon":           r.Longitude,
	}
}

// IndexProjects adds records to the projects collection in batches. Records
// sharing a component id get a positional suffix; records with no text or id
// are skipped.
func (v *VectorIndex) IndexProjects(ctx context.Context, records []projects.Record, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	timer := logging.StartTimer(logging.CategoryStore, "IndexProjects")
	defer timer.Stop()

	var docs []string
	var metas []map[string]any
	var ids []string
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		doc, meta := ProjectDocument(r)
		id := r.ProjectComponentID
		if doc == "" || id == "" {
			continue
		}
		if seen[id] {
			id = fmt.Sprintf("%s_%d", id, i)
		}
		seen[id] = true
		docs = append(docs, doc)
		metas = append(metas, meta)
		ids = append(ids, id)
	}

	total := (len(docs) + batchSize - 1) / batchSize
	for start := 0; start < len(docs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return start, err
		}
		end := min(start+batchSize, len(docs))
		if err := v.Add(ctx, CollectionProjects, docs[start:end], metas[start:end], ids[start:end]); err != nil {
			return start, fmt.Errorf("batch %d/%d: %w", start/batchSize+1, total, err)
		}
		logging.StoreDebug("indexed project batch %d/%d", start/batchSize+1, total)
	}
	logging.Store("Indexed %d projects", len(docs))
	return len(docs), nil
}

// ArticleID is the hex md5 of the article URL.
func ArticleID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// IndexArticles adds articles to the news collection.
func (v *VectorIndex) IndexArticles(ctx context.Context, articles []retrieval.Article) error {
	var docs []string
	var metas []map[string]any
	var ids []string
	seen := make(map[string]bool)
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		id := ArticleID(a.URL)
		if seen[id] {
			continue
		}
		seen[id] = true
		docs = append(docs, a.Title+" "+a.Snippet)
		metas = append(metas, map[string]any{
			"title":          a.Title,
			"url":            a.URL,
			"source":         a.Source,
			"published_date": a.PublishedDate,
		})
		ids = append(ids, id)
	}
	if err := v.Add(ctx, CollectionNews, docs, metas, ids); err != nil {
		return err
	}
	logging.StoreDebug("Added %d news articles to vector index", len(docs))
	return nil
}
