package icloud

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/errors"
)

const listPageSize = 200

// Smart folder names understood by the query endpoint.
const (
	collectionAll             = "CPLAssetByAssetDateWithoutHiddenOrDeleted"
	collectionRecentlyDeleted = "CPLAssetDeletedByExpungedDate"
	collectionAlbum           = "CPLContainerRelationLiveByAssetDate"
)

// ListAssets enumerates the library (optionally scoped to an album) and
// yields each decoded asset to fn. Enumeration is sequential and lazy:
// pagination order defines iteration order. A failure mid-listing aborts the
// whole listing; the next invocation restarts from the beginning.
func (c *Client) ListAssets(ctx context.Context, album string, fn func(asset.Asset) error) error {
	collection := collectionAll
	if album != "" {
		collection = collectionAlbum
	}
	return c.listCollection(ctx, collection, album, fn)
}

// ListRecentlyDeleted enumerates the remote recently-deleted collection, used
// by the auto-delete pass.
func (c *Client) ListRecentlyDeleted(ctx context.Context, fn func(asset.Asset) error) error {
	return c.listCollection(ctx, collectionRecentlyDeleted, "", fn)
}

func (c *Client) listCollection(ctx context.Context, collection, album string, fn func(asset.Asset) error) error {
	if !c.Authenticated() {
		return errors.Wrap(errors.ErrListingFailed, "not authenticated")
	}

	marker := ""
	for {
		page, err := c.queryPage(ctx, collection, album, marker)
		if err != nil {
			if marker != "" {
				return errors.Wrap(errors.ErrListingIncomplete, err.Error())
			}
			return err
		}

		for _, rec := range page.Records {
			a, err := decodeRecord(rec)
			if err != nil {
				logger.Warn("skipping undecodable record", logger.Fields{
					"record": rec.RecordName, "error": err.Error(),
				})
				continue
			}
			if err := fn(a); err != nil {
				return err
			}
		}

		if page.ContinuationMarker == "" || len(page.Records) == 0 {
			return nil
		}
		marker = page.ContinuationMarker
	}
}

// CountAssets returns the remote library size for progress reporting, or 0
// when the count query is unavailable.
func (c *Client) CountAssets(ctx context.Context, album string) int {
	collection := collectionAll
	if album != "" {
		collection = collectionAlbum
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"recordType": "HyperionIndexCountLookup",
			"filterBy": []map[string]interface{}{{
				"fieldName":  "indexCountID",
				"comparator": "IN",
				"fieldValue": map[string]interface{}{
					"type":  "STRING_LIST",
					"value": []string{collection},
				},
			}},
		},
		"zoneID": map[string]string{"zoneName": "PrimarySync"},
	}

	resp, err := c.postJSON(ctx, c.serviceQueryURL("/records/query"), body)
	if err != nil {
		return 0
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0
	}

	var out struct {
		Records []struct {
			Fields map[string]wireField `json:"fields"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Records) == 0 {
		return 0
	}
	if f, ok := out.Records[0].Fields["itemCount"]; ok {
		if n, ok := f.Value.(float64); ok {
			return int(n)
		}
	}
	return 0
}

type wirePage struct {
	Records            []wireRecord `json:"records"`
	ContinuationMarker string       `json:"continuationMarker"`
}

func (c *Client) queryPage(ctx context.Context, collection, album, marker string) (*wirePage, error) {
	query := map[string]interface{}{
		"recordType": collection,
	}
	if album != "" {
		query["filterBy"] = []map[string]interface{}{{
			"fieldName":  "parentId",
			"comparator": "EQUALS",
			"fieldValue": map[string]interface{}{"type": "STRING", "value": album},
		}}
	}
	body := map[string]interface{}{
		"query":        query,
		"resultsLimit": listPageSize,
		"zoneID":       map[string]string{"zoneName": "PrimarySync"},
	}
	if marker != "" {
		body["continuationMarker"] = marker
	}

	resp, err := c.postJSON(ctx, c.serviceQueryURL("/records/query"), body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrListingFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusGone {
		c.session.Reset()
		return nil, errors.Wrapf(errors.ErrAuthFailed, "listing status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrListingFailed, "listing status %d", resp.StatusCode)
	}

	var page wirePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(errors.ErrListingFailed, "failed to decode listing page")
	}
	return &page, nil
}
