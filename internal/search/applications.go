// internal/search/applications.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/models"
)

var (
	ErrSearchFailed  = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")
)

// Filter narrows a reporting query. Zero value matches everything.
type Filter struct {
	Status   string   `json:"status,omitempty"`
	FromDate string   `json:"fromDate,omitempty"` // ISO 8601 date
	ToDate   string   `json:"toDate,omitempty"`
	MinScore *float64 `json:"minScore,omitempty"`
	MaxScore *float64 `json:"maxScore,omitempty"`
	From     int      `json:"from,omitempty"`
	Size     int      `json:"size,omitempty"`
}

type Result struct {
	Applications []models.ApplicationSummary `json:"applications"`
	TotalHits    int64                       `json:"totalHits"`
	Took         int                         `json:"took"`
}

// ApplicationIndex mirrors application summaries into Elasticsearch for the
// reporting screens. Postgres stays canonical; the index is rebuilt from it.
type ApplicationIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewApplicationIndex(client *elasticsearch.Client, index string, log logger.Logger) *ApplicationIndex {
	return &ApplicationIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "application-index", "index": index}),
	}
}

// Index upserts the record's summary document, keyed by application id.
func (ix *ApplicationIndex) Index(ctx context.Context, record *models.ApplicationRecord) error {
	doc := models.ApplicationSummary{
		ID:              record.ID,
		FullName:        record.FullName,
		LoanAmount:      record.LoanAmount,
		ApplicationDate: record.ApplicationDate,
		TotalScore:      record.TotalScore,
		Status:          record.Status,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrSearchFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("%w: index request: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index response: %s", ErrSearchFailed, res.Status())
	}
	return nil
}

// Remove deletes the document for an application. A missing document is not
// an error; the index may lag the canonical store.
func (ix *ApplicationIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      ix.index,
		DocumentID: id,
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("%w: delete request: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("%w: delete response: %s", ErrSearchFailed, res.Status())
	}
	return nil
}

// Search runs a filtered listing ordered by application date, newest first.
func (ix *ApplicationIndex) Search(ctx context.Context, filter Filter) (*Result, error) {
	body, err := json.Marshal(buildQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %v", ErrSearchFailed, err)
	}

	size := filter.Size
	if size <= 0 {
		size = 50
	}
	from := filter.From

	req := esapi.SearchRequest{
		Index: []string{ix.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, fmt.Errorf("%w: search request: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, ix.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: search response: %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.ApplicationSummary `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	apps := make([]models.ApplicationSummary, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		apps = append(apps, hit.Source)
	}

	return &Result{
		Applications: apps,
		TotalHits:    parsed.Hits.Total.Value,
		Took:         parsed.Took,
	}, nil
}

func buildQuery(filter Filter) map[string]interface{} {
	filterClauses := []interface{}{}

	if filter.Status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"status": filter.Status},
		})
	}

	if filter.FromDate != "" || filter.ToDate != "" {
		dateRange := map[string]interface{}{}
		if filter.FromDate != "" {
			dateRange["gte"] = filter.FromDate
		}
		if filter.ToDate != "" {
			dateRange["lte"] = filter.ToDate
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"applicationDate": dateRange},
		})
	}

	if filter.MinScore != nil || filter.MaxScore != nil {
		scoreRange := map[string]interface{}{}
		if filter.MinScore != nil {
			scoreRange["gte"] = *filter.MinScore
		}
		if filter.MaxScore != nil {
			scoreRange["lte"] = *filter.MaxScore
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"totalScore": scoreRange},
		})
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}},
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []map[string]interface{}{{"applicationDate": "desc"}},
	}
}
