// Package repositories orchestrates the two stores. Every repository
// follows the same contract: reads are served live from the local cache
// and never block on the network; Sync fetches all matching documents
// from the remote store and replaces them into the cache; mutations
// write locally first and mirror selected fields to the remote store.
// The dual write is not transactional: a later sync overwrites any local
// change whose remote push failed.
package repositories

import (
	"context"
	"encoding/json"

	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
)

// syncCollection runs one fetch-all-then-replace cycle: every remote
// document matching the filter is decoded and bulk-upserted into the
// cache table. Documents that fail to decode are skipped, not fatal.
// Rows absent from the remote result are left untouched; this sync never
// purges.
func syncCollection[T any](
	ctx context.Context,
	rs remote.Store,
	log logging.Logger,
	collection string,
	filter *remote.Filter,
	table *localstore.Table[T],
) error {
	docs, err := rs.FetchAll(ctx, collection, filter)
	if err != nil {
		return err
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			log.Warn(ctx, "skipping undecodable document", "collection", collection, "error", err)
			continue
		}
		items = append(items, item)
	}

	return table.UpsertAll(ctx, items)
}
