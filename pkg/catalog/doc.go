// Package catalog provides type-safe Go definitions, a Redis-backed document
// store and change notifications for Concepto's production catalog.
//
// # Overview
//
// A studio's catalog is a set of shows. Every other document (assets,
// episodes, episode ideas, general ideas and plot themes) belongs to exactly
// one show and carries that show's ID. Views load one show's working set at a
// time, so the store is organised around "give me every document of
// collection C for show S".
//
// # Multi-Tenant Layout
//
// All Redis keys and Pub/Sub channels are namespaced by studio namespace, and
// show-owned data additionally by show ID:
//
//	concepto:{namespace}:shows                                  (SET of show IDs)
//	concepto:{namespace}:show:{show_id}                         (HASH)
//	concepto:{namespace}:show:{show_id}:{collection}            (SET of document IDs)
//	concepto:{namespace}:show:{show_id}:{collection}:{id}       (HASH)
//	concepto:{namespace}:show:{show_id}:events                  (Pub/Sub channel)
//
// Documents are hashes with indexed fields (id, show_id, collection) plus a
// JSON body holding the complete document.
//
// # Usage Example
//
//	client, err := catalog.NewClient(&redis.Options{Addr: "localhost:6379"}, "studio-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	asset := catalog.Asset{
//		ID:       uuid.New().String(),
//		ShowID:   showID,
//		Name:     "Captain Nova",
//		Category: catalog.CategoryCharacter,
//	}
//	if err := client.Put(ctx, asset); err != nil {
//		log.Fatal(err)
//	}
//
//	assets, err := client.ListAssets(ctx, showID)
//
// Every mutator publishes a ChangeEvent on the owning show's channel;
// SubscribeShowEvents delivers them.
package catalog
