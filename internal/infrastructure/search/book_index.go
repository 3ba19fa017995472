// Package search keeps an Elasticsearch copy of the catalog for relevance
// ranked full-text queries. PostgreSQL stays the source of truth; every
// failure here is reported to the caller, who decides whether to ignore it.
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	jsoniter "github.com/json-iterator/go"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

var json = jsoniter.ConfigFastest

const requestTimeout = 3 * time.Second

// NewClient creates an Elasticsearch client with short timeouts and optional basic auth.
func NewClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// BookDocument is the indexed shape of a book. Copy counts are left out:
// they change on every loan and are always read from the database.
type BookDocument struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
}

func documentOf(b *entity.Book) BookDocument {
	return BookDocument{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
	}
}

// BookIndex reads and writes book documents in one index.
type BookIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewBookIndex(es *elasticsearch.Client, index string) *BookIndex {
	return &BookIndex{es: es, index: index}
}

// Index upserts the document of b.
func (x *BookIndex) Index(ctx context.Context, b *entity.Book) error {
	body, err := json.Marshal(documentOf(b))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: strconv.FormatInt(b.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index book %d: %s", b.ID, res.Status())
	}
	return nil
}

// Delete removes the document of the given book. A missing document is not an error.
func (x *BookIndex) Delete(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete book %d: %s", id, res.Status())
	}
	return nil
}

const defaultSize = 10

// SearchIDs runs a multi_match query over title (boosted), author and genre
// and returns the matching book ids, best match first.
func (x *BookIndex) SearchIDs(ctx context.Context, q string, size int) ([]int64, error) {
	body, err := searchBody(q, size)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search books: %s", res.Status())
	}
	return hitIDs(res.Body)
}

func searchBody(q string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}
	return json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "author", "genre"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
		"size":    size,
	})
}

// hitIDs reads the document ids of a search response in hit order.
func hitIDs(r io.Reader) ([]int64, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("search books: bad document id %q", h.ID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
