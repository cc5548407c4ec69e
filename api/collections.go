package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/overlaydb/collection"
	"github.com/fulldump/overlaydb/service"
	"github.com/fulldump/overlaydb/utils"
)

type CollectionResponse struct {
	Name    string   `json:"name"`
	Total   int      `json:"total"`
	Indexes []string `json:"indexes"`
}

func newCollectionResponse(name string, col *collection.Collection) *CollectionResponse {
	return &CollectionResponse{
		Name:    name,
		Total:   col.Len(),
		Indexes: col.IndexNames(),
	}
}

func listCollections(ctx context.Context) ([]*CollectionResponse, error) {

	s := GetServicer(ctx)

	collections := s.ListCollections()

	result := []*CollectionResponse{}
	for _, name := range utils.SortedKeys(collections) {
		result = append(result, newCollectionResponse(name, collections[name]))
	}

	return result, nil
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

func createCollection(ctx context.Context, w http.ResponseWriter, input *createCollectionRequest) (*CollectionResponse, error) {

	s := GetServicer(ctx)

	col, err := s.CreateCollection(input.Name)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newCollectionResponse(input.Name, col), nil
}

func getCollection(ctx context.Context) (*CollectionResponse, error) {

	s := GetServicer(ctx)

	collectionName := box.GetUrlParameter(ctx, "collectionName")

	col, err := s.GetCollection(collectionName)
	if err != nil {
		return nil, err
	}

	return newCollectionResponse(collectionName, col), nil
}

// insert reads a stream of JSON documents and writes back every stored
// document, one per line
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	s := GetServicer(ctx)
	collectionName := box.GetUrlParameter(ctx, "collectionName")
	col, err := s.GetCollection(collectionName)
	if err != nil {
		return err
	}

	decoder := jsontext.NewDecoder(r.Body)

	for i := 0; true; i++ {
		item, err := decoder.ReadValue()
		if err == io.EOF {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: document %d: %w", ErrBadRequest, i, err)
		}

		row, err := col.Insert(item)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		w.Write(row.Payload)
		w.Write([]byte("\n"))
	}

	return nil
}

// remove deletes the documents matching a filter and writes back every removed
// document, one per line
func remove(ctx context.Context, w http.ResponseWriter, input *service.RemoveOptions) error {

	s := GetServicer(ctx)
	collectionName := box.GetUrlParameter(ctx, "collectionName")

	removed, err := s.RemoveDocuments(collectionName, input)
	if err != nil && len(removed) == 0 {
		return err
	}

	for _, row := range removed {
		w.Write(row.Payload)
		w.Write([]byte("\n"))
	}

	return err
}

type createIndexRequest struct {
	Name                         string `json:"name"`
	collection.IndexBTreeOptions `json:",inline"`
}

type createIndexResponse struct {
	Name string `json:"name"`
	*collection.IndexBTreeOptions
}

func createIndex(ctx context.Context, w http.ResponseWriter, input *createIndexRequest) (*createIndexResponse, error) {

	s := GetServicer(ctx)
	collectionName := box.GetUrlParameter(ctx, "collectionName")
	col, err := s.GetCollection(collectionName)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: index name is empty", ErrBadRequest)
	}

	err = col.Index(input.Name, &input.IndexBTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	w.WriteHeader(http.StatusCreated)
	return &createIndexResponse{
		Name:              input.Name,
		IndexBTreeOptions: &input.IndexBTreeOptions,
	}, nil
}

func dropCollection(ctx context.Context, w http.ResponseWriter) error {

	s := GetServicer(ctx)

	collectionName := box.GetUrlParameter(ctx, "collectionName")

	err := s.DropCollection(collectionName)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
