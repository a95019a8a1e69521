package jsonapi

import (
	"strconv"

	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/domain/transfer"
)

// Resource types.
const (
	TypeFile     = "file"
	TypeTransfer = "transfer"
)

// FileAttributes represents a directory entry in JSON:API format.
type FileAttributes struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	IsDirectory  bool     `json:"is_directory"`
	Size         int64    `json:"size"`
	ModifiedTime DateTime `json:"modified_time" swaggertype:"string" format:"date-time"`
}

// TransferAttributes represents a ledger entry in JSON:API format.
type TransferAttributes struct {
	Path       string   `json:"path"`
	Kind       string   `json:"kind"`
	Status     int      `json:"status"`
	Start      int64    `json:"start"`
	End        int64    `json:"end"`
	Length     int64    `json:"length"`
	BytesSent  int64    `json:"bytes_sent"`
	Complete   bool     `json:"complete"`
	ClientAddr string   `json:"client_addr,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`
	StartedAt  DateTime `json:"started_at" swaggertype:"string" format:"date-time"`
	FinishedAt DateTime `json:"finished_at" swaggertype:"string" format:"date-time"`
}

// FileResource is a single file resource, used for API documentation.
type FileResource struct {
	Type       string         `json:"type" example:"file"`
	ID         string         `json:"id"`
	Attributes FileAttributes `json:"attributes"`
}

// FileListResponse is the document returned by directory listings.
type FileListResponse struct {
	Data []FileResource `json:"data"`
	Meta *Meta          `json:"meta,omitempty"`
}

// TransferResource is a single transfer resource, used for API documentation.
type TransferResource struct {
	Type       string             `json:"type" example:"transfer"`
	ID         string             `json:"id"`
	Attributes TransferAttributes `json:"attributes"`
}

// TransferListResponse is the document returned by ledger listings.
type TransferListResponse struct {
	Data  []TransferResource `json:"data"`
	Meta  *Meta              `json:"meta,omitempty"`
	Links *Links             `json:"links,omitempty"`
}

// TransferResponse is the document returned for a single transfer.
type TransferResponse struct {
	Data TransferResource `json:"data"`
}

// Serializer converts domain values to JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// FileResource converts a directory entry to a JSON:API resource.
// Entries are identified by their path relative to the served root.
func (s *Serializer) FileResource(entry file.Entry) *Resource {
	attrs := &FileAttributes{
		Name:         entry.Name(),
		Path:         entry.Path(),
		IsDirectory:  entry.IsDirectory(),
		Size:         entry.Size(),
		ModifiedTime: DateTime(entry.ModifiedTime()),
	}
	return NewResource(TypeFile, entry.Path(), attrs)
}

// FileResources converts multiple entries to JSON:API resources.
func (s *Serializer) FileResources(entries []file.Entry) []*Resource {
	resources := make([]*Resource, len(entries))
	for i, entry := range entries {
		resources[i] = s.FileResource(entry)
	}
	return resources
}

// TransferResource converts a transfer to a JSON:API resource.
func (s *Serializer) TransferResource(t transfer.Transfer) *Resource {
	attrs := &TransferAttributes{
		Path:       t.Path(),
		Kind:       string(t.Kind()),
		Status:     t.Status(),
		Start:      t.Start(),
		End:        t.End(),
		Length:     t.Length(),
		BytesSent:  t.BytesSent(),
		Complete:   t.Complete(),
		ClientAddr: t.ClientAddr(),
		RequestID:  t.RequestID(),
		StartedAt:  DateTime(t.StartedAt()),
		FinishedAt: DateTime(t.FinishedAt()),
	}
	return NewResource(TypeTransfer, strconv.FormatInt(t.ID(), 10), attrs)
}

// TransferResources converts multiple transfers to JSON:API resources.
func (s *Serializer) TransferResources(transfers []transfer.Transfer) []*Resource {
	resources := make([]*Resource, len(transfers))
	for i, t := range transfers {
		resources[i] = s.TransferResource(t)
	}
	return resources
}
