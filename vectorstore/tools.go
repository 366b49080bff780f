package vectorstore

import (
	"context"

	"github.com/light-autom8/mcp-server-go/mcpservice"
)

// Tool names.
const (
	ToolCreateStore = "create_vector_store"
	ToolUploadFile  = "upload_file_to_vector_store"
	ToolListStores  = "list_vector_stores"
)

// CreateStoreArgs are the arguments of create_vector_store.
type CreateStoreArgs struct {
	Name string `json:"name" jsonschema:"description=Name of the vector store"`
}

// CreateStoreResult is returned by create_vector_store.
type CreateStoreResult struct {
	Success       bool   `json:"success"`
	VectorStoreID string `json:"vector_store_id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// UploadFileArgs are the arguments of upload_file_to_vector_store.
type UploadFileArgs struct {
	VectorStoreID string `json:"vector_store_id" jsonschema:"description=ID of the vector store"`
	FileContent   string `json:"file_content" jsonschema:"description=Content of the file"`
	FileName      string `json:"file_name,omitempty" jsonschema:"description=Name of the file"`
}

// UploadFileResult is returned by upload_file_to_vector_store.
type UploadFileResult struct {
	Success       bool   `json:"success"`
	FileID        string `json:"file_id"`
	VectorStoreID string `json:"vector_store_id"`
	FileName      string `json:"file_name"`
	Bytes         int    `json:"bytes"`
	Status        string `json:"status"`
}

// ListStoresArgs is the empty argument object of list_vector_stores.
type ListStoresArgs struct{}

// StoreSummary is one entry of a list_vector_stores result.
type StoreSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	FileCount int    `json:"file_count"`
}

// ListStoresResult is returned by list_vector_stores.
type ListStoresResult struct {
	Success      bool           `json:"success"`
	VectorStores []StoreSummary `json:"vector_stores"`
}

// Tools returns the tool set in advertisement order.
func (s *Service) Tools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool(ToolCreateStore, s.createStoreTool,
			mcpservice.WithToolDescription("Creates a new vector store")),
		mcpservice.NewTool(ToolUploadFile, s.uploadFileTool,
			mcpservice.WithToolDescription("Uploads a file into a vector store")),
		mcpservice.NewTool(ToolListStores, s.listStoresTool,
			mcpservice.WithToolDescription("Lists all available vector stores")),
	}
}

func (s *Service) createStoreTool(ctx context.Context, args CreateStoreArgs) (CreateStoreResult, error) {
	st, err := s.CreateStore(ctx, args.Name)
	if err != nil {
		return CreateStoreResult{}, err
	}
	return CreateStoreResult{
		Success:       true,
		VectorStoreID: st.ID,
		Name:          st.Name,
		Status:        st.Status,
		CreatedAt:     formatTime(st),
	}, nil
}

func (s *Service) uploadFileTool(ctx context.Context, args UploadFileArgs) (UploadFileResult, error) {
	f, err := s.UploadFile(ctx, args.VectorStoreID, args.FileName, args.FileContent)
	if err != nil {
		return UploadFileResult{}, err
	}
	return UploadFileResult{
		Success:       true,
		FileID:        f.ID,
		VectorStoreID: f.StoreID,
		FileName:      f.Name,
		Bytes:         f.Bytes,
		Status:        f.Status,
	}, nil
}

func (s *Service) listStoresTool(ctx context.Context, _ ListStoresArgs) (ListStoresResult, error) {
	stores, err := s.ListStores(ctx)
	if err != nil {
		return ListStoresResult{}, err
	}
	out := ListStoresResult{Success: true, VectorStores: make([]StoreSummary, 0, len(stores))}
	for _, st := range stores {
		out.VectorStores = append(out.VectorStores, StoreSummary{
			ID:        st.ID,
			Name:      st.Name,
			Status:    st.Status,
			CreatedAt: formatTime(st),
			FileCount: st.FileCount,
		})
	}
	return out, nil
}

func formatTime(st Store) string {
	return st.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
}
