// Package vectorstore implements the reference tool set served by the MCP
// server: create_vector_store, upload_file_to_vector_store and
// list_vector_stores.
//
// Records are kept in a storage.Storage backend (memory or redis) so the
// tools behave statefully: uploads require an existing store and bump its
// file count, and listings reflect every store created so far. No external
// vector database is contacted.
//
//	st, _ := memory.New(10000, memory.WithPinnedCollections(vectorstore.StoresCollection))
//	svc := vectorstore.NewService(st)
//	_ = svc.Seed(ctx)
//	tools := svc.Tools() // []mcpservice.StaticTool
package vectorstore
